// Package memory provides in-memory implementations of the outbound ports.
// Useful for testing and for running the gateway without external services.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var (
	_ outbound.TradeRepository  = (*TradeRepository)(nil)
	_ outbound.SignalRepository = (*SignalRepository)(nil)
)

// TradeRepository keeps trade audits in a map, evicting the oldest once
// max is reached.
type TradeRepository struct {
	mu     sync.RWMutex
	trades map[uuid.UUID]entity.TradeRecord
	order  []uuid.UUID
	max    int
}

// NewTradeRepository creates an in-memory trade repository holding at most
// max trades. max <= 0 keeps everything.
func NewTradeRepository(max int) *TradeRepository {
	return &TradeRepository{trades: make(map[uuid.UUID]entity.TradeRecord), max: max}
}

func (r *TradeRepository) CreateTrade(_ context.Context, trade *entity.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.trades[trade.ID]; exists {
		return fmt.Errorf("trade %s already exists", trade.ID)
	}
	r.trades[trade.ID] = *trade
	r.order = append(r.order, trade.ID)

	if r.max > 0 && len(r.order) > r.max {
		for _, id := range r.order[:len(r.order)-r.max] {
			delete(r.trades, id)
		}
		r.order = r.order[len(r.order)-r.max:]
	}
	return nil
}

func (r *TradeRepository) CompleteTrade(_ context.Context, trade *entity.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.trades[trade.ID]; !exists {
		return fmt.Errorf("trade %s not found", trade.ID)
	}
	r.trades[trade.ID] = *trade
	return nil
}

func (r *TradeRepository) ListTrades(_ context.Context, account string, limit int) ([]*entity.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trades []*entity.TradeRecord
	for _, t := range r.trades {
		if t.Account == account {
			trade := t
			trades = append(trades, &trade)
		}
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// SignalRepository keeps the most recent signals in insertion order.
type SignalRepository struct {
	mu      sync.RWMutex
	signals []entity.Signal
	seen    map[int64]struct{}
	max     int
}

// NewSignalRepository creates a repository holding at most max signals.
// max <= 0 keeps everything.
func NewSignalRepository(max int) *SignalRepository {
	return &SignalRepository{seen: make(map[int64]struct{}), max: max}
}

// SaveSignal appends a signal. An id already held is rejected with
// entity.ErrDuplicateSignal.
func (r *SignalRepository) SaveSignal(_ context.Context, signal entity.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[signal.ID]; ok {
		return fmt.Errorf("%w: %d", entity.ErrDuplicateSignal, signal.ID)
	}
	r.seen[signal.ID] = struct{}{}
	r.signals = append(r.signals, signal)

	if r.max > 0 && len(r.signals) > r.max {
		for _, old := range r.signals[:len(r.signals)-r.max] {
			delete(r.seen, old.ID)
		}
		r.signals = r.signals[len(r.signals)-r.max:]
	}
	return nil
}

// ListSignals returns up to limit signals, newest first.
func (r *SignalRepository) ListSignals(_ context.Context, limit int) ([]entity.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.signals)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]entity.Signal, 0, n)
	for i := len(r.signals) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, r.signals[i])
	}
	return result, nil
}
