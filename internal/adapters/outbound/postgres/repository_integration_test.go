//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/testutil"
)

func TestTradeRepository_Lifecycle(t *testing.T) {
	pool, cleanup := testutil.SetupPostgres(t)
	defer cleanup()

	repo, err := NewTradeRepository(pool, nil)
	if err != nil {
		t.Fatalf("NewTradeRepository: %v", err)
	}
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	ok := entity.NewTradeRecord(entity.TradeRequest{
		Symbol:      "XAUUSD",
		Direction:   entity.DirectionBuy,
		Volume:      decimal.RequireFromString("0.10"),
		StopLoss:    decimal.RequireFromString("2420"),
		Credentials: entity.Credentials{Account: "1001", Server: "Demo"},
	}, now)
	if err := repo.CreateTrade(ctx, ok); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}
	ok.Complete(json.RawMessage(`{"order":42,"retcode":10009}`), nil, now.Add(time.Second))
	if err := repo.CompleteTrade(ctx, ok); err != nil {
		t.Fatalf("CompleteTrade: %v", err)
	}

	failed := entity.NewTradeRecord(entity.TradeRequest{
		Symbol:      "EURUSD",
		Direction:   entity.DirectionSell,
		Volume:      decimal.RequireFromString("1"),
		Credentials: entity.Credentials{Account: "1001", Server: "Demo"},
	}, now.Add(time.Minute))
	if err := repo.CreateTrade(ctx, failed); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}
	failed.Complete(nil, errors.New("market closed"), now.Add(2*time.Minute))
	if err := repo.CompleteTrade(ctx, failed); err != nil {
		t.Fatalf("CompleteTrade: %v", err)
	}

	trades, err := repo.ListTrades(ctx, "1001", 10)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}

	newest, oldest := trades[0], trades[1]
	if newest.ID != failed.ID || newest.Status != entity.TradeStatusFailed || newest.Error != "market closed" {
		t.Errorf("newest = %+v", newest)
	}
	if !newest.StopLoss.IsZero() || newest.Result != nil {
		t.Errorf("failed trade should have no stop-loss or result: %+v", newest)
	}
	if oldest.Status != entity.TradeStatusSucceeded || !oldest.StopLoss.Equal(decimal.RequireFromString("2420")) {
		t.Errorf("oldest = %+v", oldest)
	}
	var result map[string]int
	if err := json.Unmarshal(oldest.Result, &result); err != nil || result["order"] != 42 {
		t.Errorf("result = %s (%v)", oldest.Result, err)
	}
	if oldest.CompletedAt == nil {
		t.Error("CompletedAt not stored")
	}

	other, err := repo.ListTrades(ctx, "2002", 10)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other account has %d trades", len(other))
	}
}

func TestTradeRepository_CompleteUnknown(t *testing.T) {
	pool, cleanup := testutil.SetupPostgres(t)
	defer cleanup()

	repo, _ := NewTradeRepository(pool, nil)
	rec := entity.NewTradeRecord(entity.TradeRequest{
		Symbol:    "XAUUSD",
		Direction: entity.DirectionBuy,
		Volume:    decimal.NewFromInt(1),
	}, time.Now())
	rec.Complete(json.RawMessage(`{}`), nil, time.Now())

	if err := repo.CompleteTrade(context.Background(), rec); err == nil {
		t.Fatal("expected error for unknown trade")
	}
}

func TestSignalRepository_NewestFirst(t *testing.T) {
	pool, cleanup := testutil.SetupPostgres(t)
	defer cleanup()

	repo, err := NewSignalRepository(pool, nil)
	if err != nil {
		t.Fatalf("NewSignalRepository: %v", err)
	}
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 8, 30, 0, 123_000_000, time.UTC)

	first := entity.NewStubSignal("", base)
	second := entity.NewStubSignal("EURUSD", base.Add(time.Second))
	for _, s := range []entity.Signal{first, second} {
		if err := repo.SaveSignal(ctx, s); err != nil {
			t.Fatalf("SaveSignal: %v", err)
		}
	}
	dup := entity.NewStubSignal("GBPUSD", base)
	if err := repo.SaveSignal(ctx, dup); !errors.Is(err, entity.ErrDuplicateSignal) {
		t.Errorf("duplicate SaveSignal = %v, want ErrDuplicateSignal", err)
	}

	got, err := repo.ListSignals(ctx, 50)
	if err != nil {
		t.Fatalf("ListSignals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d signals, want 2", len(got))
	}
	if got[0] != second || got[1] != first {
		t.Errorf("got %+v", got)
	}
}

func TestSignalRepository_EmptyIsNotNil(t *testing.T) {
	pool, cleanup := testutil.SetupPostgres(t)
	defer cleanup()

	repo, _ := NewSignalRepository(pool, nil)
	got, err := repo.ListSignals(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListSignals: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty slice", got)
	}
}
