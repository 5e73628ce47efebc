package outbound

import (
	"context"
	"time"
)

// TradeEvent is published after every manual trade attempt.
type TradeEvent struct {
	TradeID    string    `json:"tradeId"`
	Account    string    `json:"account"`
	Server     string    `json:"server"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	Volume     string    `json:"volume"`
	StopLoss   string    `json:"sl,omitempty"`
	TakeProfit string    `json:"tp,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventSink publishes trade events to downstream consumers.
type EventSink interface {
	Publish(ctx context.Context, event TradeEvent) error

	// Close closes the sink and releases any resources.
	Close() error
}
