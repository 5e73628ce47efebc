package entity

import (
	"encoding/json"
	"testing"
)

func TestFilterBySymbol(t *testing.T) {
	payload := json.RawMessage(`[
		{"deal_id":1,"symbol":"XAUUSD","profit":12.5},
		{"deal_id":2,"symbol":"EURUSD","profit":-3},
		{"deal_id":3,"symbol":"XAUUSD","profit":0.25,"extra":{"nested":[1,2]}},
		{"deal_id":4},
		7
	]`)

	tests := []struct {
		name     string
		symbol   string
		expected []string
	}{
		{
			name:   "matching subset in order",
			symbol: "XAUUSD",
			expected: []string{
				`{"deal_id":1,"symbol":"XAUUSD","profit":12.5}`,
				`{"deal_id":3,"symbol":"XAUUSD","profit":0.25,"extra":{"nested":[1,2]}}`,
			},
		},
		{
			name:     "no match",
			symbol:   "GBPUSD",
			expected: []string{},
		},
		{
			name:     "case sensitive",
			symbol:   "xauusd",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterBySymbol(payload, tt.symbol)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d records, got %d: %s", len(tt.expected), len(got), got)
			}
			for i := range got {
				if string(got[i]) != tt.expected[i] {
					t.Errorf("record %d: expected %s, got %s", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestFilterBySymbol_EmptySymbolKeepsAll(t *testing.T) {
	got, err := FilterBySymbol(json.RawMessage(`[{"symbol":"A"},{"symbol":"B"}]`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestFilterBySymbol_RejectsNonArray(t *testing.T) {
	for _, in := range []string{`{"error":"Failed to initialize MT5"}`, `null`, `"text"`} {
		if _, err := FilterBySymbol(json.RawMessage(in), "XAUUSD"); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
