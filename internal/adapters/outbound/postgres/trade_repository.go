package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

const maxTradeListLimit = 500

// Compile-time check that TradeRepository implements outbound.TradeRepository
var _ outbound.TradeRepository = (*TradeRepository)(nil)

// TradeRepository stores manual trade audits in trade_submissions.
type TradeRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTradeRepository creates a new PostgreSQL trade repository.
func NewTradeRepository(pool *pgxpool.Pool, logger *slog.Logger) (*TradeRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeRepository{
		pool:   pool,
		logger: logger.With("component", "trade-repository"),
	}, nil
}

// CreateTrade inserts a record in its submitted state.
func (r *TradeRepository) CreateTrade(ctx context.Context, trade *entity.TradeRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trade_submissions
			(id, account, server, symbol, direction, volume, stop_loss, take_profit, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		trade.ID,
		trade.Account,
		trade.Server,
		trade.Symbol,
		string(trade.Direction),
		trade.Volume,
		optionalDecimal(trade.StopLoss),
		optionalDecimal(trade.TakeProfit),
		string(trade.Status),
		trade.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", trade.ID, err)
	}
	return nil
}

// CompleteTrade stores the final status of a record.
func (r *TradeRepository) CompleteTrade(ctx context.Context, trade *entity.TradeRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE trade_submissions
		SET status = $2, result = $3, error = $4, completed_at = $5
		WHERE id = $1`,
		trade.ID,
		string(trade.Status),
		optionalJSON(trade.Result),
		optionalText(trade.Error),
		trade.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete trade %s: %w", trade.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %s not found", trade.ID)
	}
	return nil
}

// ListTrades returns the newest records for account.
func (r *TradeRepository) ListTrades(ctx context.Context, account string, limit int) ([]*entity.TradeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account, server, symbol, direction, volume, stop_loss, take_profit,
		       status, result, error, created_at, completed_at
		FROM trade_submissions
		WHERE account = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		account, clampLimit(limit, maxTradeListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*entity.TradeRecord
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows pgx.Rows) (*entity.TradeRecord, error) {
	var (
		trade      entity.TradeRecord
		direction  string
		status     string
		stopLoss   decimal.NullDecimal
		takeProfit decimal.NullDecimal
		result     []byte
		errText    *string
	)
	err := rows.Scan(
		&trade.ID,
		&trade.Account,
		&trade.Server,
		&trade.Symbol,
		&direction,
		&trade.Volume,
		&stopLoss,
		&takeProfit,
		&status,
		&result,
		&errText,
		&trade.CreatedAt,
		&trade.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade: %w", err)
	}

	trade.Direction = entity.Direction(direction)
	trade.Status = entity.TradeStatus(status)
	if stopLoss.Valid {
		trade.StopLoss = stopLoss.Decimal
	}
	if takeProfit.Valid {
		trade.TakeProfit = takeProfit.Decimal
	}
	if len(result) > 0 {
		trade.Result = result
	}
	if errText != nil {
		trade.Error = *errText
	}
	return &trade, nil
}
