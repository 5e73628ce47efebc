package entity

import (
	"slices"
	"strings"
)

// DefaultTimeframe and DefaultCandleCount apply when a candle query leaves them out.
const (
	DefaultTimeframe   = "H1"
	DefaultCandleCount = 100
	MaxCandleCount     = 5000
)

// Timeframes lists the bar periods the connector understands.
var Timeframes = []string{"M1", "M5", "M15", "M30", "H1", "H4", "D1", "W1", "MN1"}

// ParseTimeframe upper-cases tf and checks it is known. Empty means DefaultTimeframe.
func ParseTimeframe(tf string) (string, error) {
	tf = strings.ToUpper(strings.TrimSpace(tf))
	if tf == "" {
		return DefaultTimeframe, nil
	}
	if !slices.Contains(Timeframes, tf) {
		return "", &ValidationError{Field: "timeframe", Message: "must be one of " + strings.Join(Timeframes, ", ")}
	}
	return tf, nil
}

// NormalizeCandleCount applies the default and rejects out-of-range counts.
func NormalizeCandleCount(count int) (int, error) {
	switch {
	case count == 0:
		return DefaultCandleCount, nil
	case count < 0 || count > MaxCandleCount:
		return 0, &ValidationError{Field: "count", Message: "must be between 1 and 5000"}
	}
	return count, nil
}
