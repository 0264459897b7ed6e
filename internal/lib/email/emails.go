package email

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SignalEmail is the data rendered into the signal notification.
type SignalEmail struct {
	ID        int64
	Symbol    string
	Action    string
	Price     *float64
	Quantity  *float64
	Strategy  string
	Timeframe string
	Message   string
	CreatedAt time.Time
}

// FormatNumber renders an optional number in plain decimal notation
// (no exponent); nil shows as "-".
func (s SignalEmail) FormatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).String()
}

// SendSignalEmail notifies to about a saved trading signal.
func (c *Client) SendSignalEmail(to string, s SignalEmail) error {
	subject := fmt.Sprintf("[%s] %s signal #%d", s.Symbol, s.Action, s.ID)
	return c.SendEmail(to, subject, TemplateSignal, s)
}
