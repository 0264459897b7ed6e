package email

import "time"

// PreviewData contains sample template data for local preview of each template.
var PreviewData = map[Template]any{
	TemplateSignal: SignalEmail{
		ID:        42,
		Symbol:    "BTCUSD",
		Action:    "buy",
		Price:     floatPtr(50000),
		Strategy:  "EMA Cross",
		Timeframe: "15",
		Message:   "Long entry",
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	},
}

func floatPtr(v float64) *float64 { return &v }
