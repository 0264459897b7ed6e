// Package model holds the trading-signal types shared by validation,
// the service layer and storage.
package model

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action is what the alert asks for.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionClose Action = "close"
)

// Actions lists the accepted actions in the order they are reported to clients.
var Actions = []Action{ActionBuy, ActionSell, ActionClose}

// Timeframes lists the accepted chart resolutions.
var Timeframes = []string{"1", "3", "5", "15", "30", "45", "60", "120", "180", "240", "D", "W", "M"}

// Payload is a decoded webhook body that passed validation.
// Unknown keys are kept verbatim; numbers are json.Number.
type Payload map[string]any

// NormalizedSignal is the row handed to storage.
// Nil pointers are stored as NULL.
type NormalizedSignal struct {
	Symbol          string         `json:"symbol"`
	Action          Action         `json:"action"`
	Price           *float64       `json:"price"`
	Quantity        *float64       `json:"quantity"`
	StrategyName    *string        `json:"strategy_name"`
	Timeframe       *string        `json:"timeframe"`
	IndicatorValues map[string]any `json:"indicator_values"`
	Message         string         `json:"message"`
	RawPayload      Payload        `json:"raw_payload"`
}

// PersistedSignal is what storage returns for a saved signal.
type PersistedSignal struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// UpperSymbol upper-cases a ticker with full Unicode case mapping, so
// "straße" becomes "STRASSE". A Caser is stateful, hence one per call.
func UpperSymbol(sym string) string {
	return cases.Upper(language.Und).String(sym)
}

// Normalize maps a validated payload to the persisted shape.
//
// It never fails and never mutates p. Fields that are absent, or of a type
// validation lets through but storage cannot use, take their default.
func Normalize(p Payload) NormalizedSignal {
	s := NormalizedSignal{
		IndicatorValues: map[string]any{},
		RawPayload:      p,
	}

	if sym, ok := p["symbol"].(string); ok {
		s.Symbol = UpperSymbol(sym)
	}
	if act, ok := p["action"].(string); ok {
		s.Action = Action(act)
	}

	s.Price = numberField(p, "price")
	s.Quantity = numberField(p, "quantity")

	if v, ok := p["strategy"].(string); ok {
		s.StrategyName = &v
	}
	if v, ok := p["timeframe"].(string); ok {
		s.Timeframe = &v
	}
	if ind, ok := p["indicators"].(map[string]any); ok {
		for k, v := range ind {
			s.IndicatorValues[k] = v
		}
	}
	if msg, ok := p["message"].(string); ok {
		s.Message = msg
	}

	return s
}

func numberField(p Payload, key string) *float64 {
	v, ok := p[key]
	if !ok {
		return nil
	}
	n := ToNumber(v)
	if math.IsNaN(n) {
		return nil
	}
	return &n
}

// ToNumber converts a decoded JSON value to a float64 the way JavaScript's
// Number() does: numeric strings are parsed (blank means 0), booleans are 1
// or 0, null is 0 and everything else is NaN.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		return parseNumber(string(n))
	case string:
		return parseNumber(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		i, err := strconv.ParseInt(lower, 0, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(i)
	}

	// strconv accepts spellings Number() rejects ("inf", "nan", "1_000", hex floats).
	if strings.ContainsAny(lower, "_inp") {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// SignalRecord is a full stored row, as read back by operators.
type SignalRecord struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	NormalizedSignal
}

// Persisted returns the subset of r echoed to webhook callers.
func (r SignalRecord) Persisted() PersistedSignal {
	return PersistedSignal{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Action:    r.Action,
		CreatedAt: r.CreatedAt,
	}
}
