package postgres

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// optionalDecimal maps a zero price level to NULL.
func optionalDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: !d.IsZero()}
}

// optionalJSON maps an empty document to NULL.
func optionalJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
