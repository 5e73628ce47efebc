package entity

import (
	"encoding/json"
	"fmt"
)

// FilterBySymbol keeps the elements of a JSON array whose "symbol" field equals
// symbol, in their original order and byte-for-byte. An empty symbol keeps
// everything. Output that is not a JSON array is an error.
func FilterBySymbol(payload json.RawMessage, symbol string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("expected an array of records: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("expected an array of records, got null")
	}
	if symbol == "" {
		return records, nil
	}

	filtered := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		var head struct {
			Symbol *string `json:"symbol"`
		}
		if err := json.Unmarshal(rec, &head); err != nil {
			continue
		}
		if head.Symbol != nil && *head.Symbol == symbol {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}
