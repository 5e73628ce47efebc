package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

const maxSignalListLimit = 1000

var _ outbound.SignalRepository = (*SignalRepository)(nil)

// SignalRepository stores generated signals in trading_signals.
type SignalRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSignalRepository creates a new PostgreSQL signal repository.
func NewSignalRepository(pool *pgxpool.Pool, logger *slog.Logger) (*SignalRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalRepository{
		pool:   pool,
		logger: logger.With("component", "signal-repository"),
	}, nil
}

// SaveSignal inserts a signal. An id already stored is rejected with
// entity.ErrDuplicateSignal and the stored row is left untouched.
func (r *SignalRepository) SaveSignal(ctx context.Context, signal entity.Signal) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO trading_signals
			(id, symbol, signal_type, status, entry_price, stop_loss, take_profit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		signal.ID,
		signal.Symbol,
		string(signal.Type),
		signal.Status,
		signal.Entry,
		signal.SL,
		signal.TP,
		signal.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal %d: %w", signal.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", entity.ErrDuplicateSignal, signal.ID)
	}
	return nil
}

// ListSignals returns the newest signals first.
func (r *SignalRepository) ListSignals(ctx context.Context, limit int) ([]entity.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, symbol, signal_type, status, entry_price, stop_loss, take_profit, created_at
		FROM trading_signals
		ORDER BY created_at DESC, id DESC
		LIMIT $1`,
		clampLimit(limit, maxSignalListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []entity.Signal{}
	for rows.Next() {
		var (
			s          entity.Signal
			signalType string
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &signalType, &s.Status, &s.Entry, &s.SL, &s.TP, &s.Time); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.Type = entity.Direction(signalType)
		s.Time = s.Time.UTC()
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", err)
	}
	return signals, nil
}
