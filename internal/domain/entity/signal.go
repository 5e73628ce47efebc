package entity

import (
	"encoding/json"
	"time"
)

// DefaultSignalSymbol is used when a generate request names no symbol.
const DefaultSignalSymbol = "XAUUSD"

// Signal is a trading suggestion shown on the dashboard.
type Signal struct {
	ID     int64
	Symbol string
	Type   Direction
	Status string
	Entry  float64
	SL     float64
	TP     float64
	Time   time.Time
}

// NewStubSignal returns the fixed placeholder signal for symbol. The id is the
// creation time in milliseconds.
func NewStubSignal(symbol string, now time.Time) Signal {
	if symbol == "" {
		symbol = DefaultSignalSymbol
	}
	return Signal{
		ID:     now.UnixMilli(),
		Symbol: symbol,
		Type:   DirectionBuy,
		Status: "ACTIVE",
		Entry:  2435.12,
		SL:     2420,
		TP:     2450,
		Time:   now.UTC(),
	}
}

type signalJSON struct {
	ID     int64     `json:"id"`
	Symbol string    `json:"symbol"`
	Type   Direction `json:"type"`
	Status string    `json:"status"`
	Entry  float64   `json:"entry"`
	SL     float64   `json:"sl"`
	TP     float64   `json:"tp"`
	Time   string    `json:"time"`
}

// ISOMillis is the timestamp layout browsers produce with toISOString.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// MarshalJSON renders time as a millisecond UTC ISO-8601 string.
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalJSON{
		ID:     s.ID,
		Symbol: s.Symbol,
		Type:   s.Type,
		Status: s.Status,
		Entry:  s.Entry,
		SL:     s.SL,
		TP:     s.TP,
		Time:   s.Time.UTC().Format(ISOMillis),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw signalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Time)
	if err != nil {
		return err
	}
	*s = Signal{
		ID:     raw.ID,
		Symbol: raw.Symbol,
		Type:   raw.Type,
		Status: raw.Status,
		Entry:  raw.Entry,
		SL:     raw.SL,
		TP:     raw.TP,
		Time:   ts,
	}
	return nil
}
