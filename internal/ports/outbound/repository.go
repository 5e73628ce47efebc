package outbound

import (
	"context"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

// TradeRepository keeps the audit trail of manual trades.
type TradeRepository interface {
	// CreateTrade stores a record in the submitted state.
	CreateTrade(ctx context.Context, trade *entity.TradeRecord) error

	// CompleteTrade stores the final status, result and error of a record.
	CompleteTrade(ctx context.Context, trade *entity.TradeRecord) error

	// ListTrades returns the most recent records for an account, newest first.
	ListTrades(ctx context.Context, account string, limit int) ([]*entity.TradeRecord, error)
}

// SignalRepository stores generated signals.
type SignalRepository interface {
	SaveSignal(ctx context.Context, signal entity.Signal) error

	// ListSignals returns up to limit signals, newest first.
	ListSignals(ctx context.Context, limit int) ([]entity.Signal, error)
}
