// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the gateway exposes.
package inbound

import (
	"context"
	"encoding/json"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

// ConnectResult is returned by Connect.
type ConnectResult struct {
	Message  string
	Account  string
	Server   string
	Verified bool
}

// Quote is a price for a symbol.
type Quote struct {
	Symbol string
	Price  float64
}

// HistoryQuery selects closed deals.
type HistoryQuery struct {
	Symbol      string
	From        string
	To          string
	Credentials entity.Credentials
}

// CandleQuery selects recent bars for a symbol.
type CandleQuery struct {
	Symbol      string
	Timeframe   string
	Count       int
	Credentials entity.Credentials
}

// TradeQuery selects audited manual trades for one account.
type TradeQuery struct {
	Credentials entity.Credentials
	Limit       int
}

// GatewayService defines the use cases behind the HTTP API.
// Inbound adapters (HTTP handlers) call these methods. Connector payloads are
// returned as raw JSON so they reach the client exactly as the connector wrote them.
type GatewayService interface {
	Connect(ctx context.Context, creds entity.Credentials) (*ConnectResult, error)
	Price(ctx context.Context, symbol string) (*Quote, error)
	Account(ctx context.Context, creds entity.Credentials) (json.RawMessage, error)
	OpenTrades(ctx context.Context, symbol string, creds entity.Credentials) (json.RawMessage, error)
	TradeHistory(ctx context.Context, q HistoryQuery) ([]json.RawMessage, error)
	Candles(ctx context.Context, q CandleQuery) (json.RawMessage, error)
	Tick(ctx context.Context, symbol string, creds entity.Credentials) (json.RawMessage, error)
	ManualTrade(ctx context.Context, req entity.TradeRequest) (json.RawMessage, error)
	RecentTrades(ctx context.Context, q TradeQuery) ([]*entity.TradeRecord, error)
	ListSignals(ctx context.Context) ([]entity.Signal, error)
	GenerateSignal(ctx context.Context, symbol string) (entity.Signal, error)
}

// HealthChecker reports readiness and liveness for the health endpoints.
type HealthChecker interface {
	// IsReady returns true when the connector can be launched.
	IsReady() bool

	// IsHealthy returns true when the process is operating normally.
	IsHealthy() bool
}
