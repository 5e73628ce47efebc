// Package gateway implements the use cases behind the HTTP API: it resolves
// credentials, turns requests into connector commands and shapes the results.
//
// Trade audits, trade events and account caching are side channels. Their
// failures are logged and never change what the caller receives.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/inbound"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var _ inbound.GatewayService = (*Service)(nil)

// StubConnectMessage is returned by Connect when verification is off.
const StubConnectMessage = "Connected to MT5 (stub)."

// Base of the stub price quote.
const stubBasePrice = 2435.12

// maxSignalIDAttempts bounds how often GenerateSignal moves past ids another
// writer already stored.
const maxSignalIDAttempts = 8

// Config holds configuration for the gateway service.
type Config struct {
	// Defaults fill credentials a request leaves out.
	Defaults entity.Credentials

	// VerifyConnect makes Connect log in through the connector instead of
	// returning the stub acknowledgement.
	VerifyConnect bool

	// SignalListLimit caps GET /api/signals.
	SignalListLimit int

	// TradeListLimit is the default and maximum page of GET /api/mt5/trades.
	TradeListLimit int

	// SideEffectTimeout bounds audit completion and event publication after
	// the caller has its answer.
	SideEffectTimeout time.Duration

	// Metrics is the metrics recorder (optional).
	Metrics outbound.MetricsRecorder

	// Logger for the service.
	Logger *slog.Logger
}

// ConfigDefaults returns sensible defaults for the gateway service.
func ConfigDefaults() Config {
	return Config{
		SignalListLimit:   100,
		TradeListLimit:    100,
		SideEffectTimeout: 30 * time.Second,
		Logger:            slog.Default(),
	}
}

// Dependencies are the outbound ports the service drives. Only Connector and
// Signals are required.
type Dependencies struct {
	Connector outbound.Connector
	Signals   outbound.SignalRepository
	Trades    outbound.TradeRepository
	Cache     outbound.AccountCache
	Events    outbound.EventSink
}

// Service implements inbound.GatewayService.
type Service struct {
	config    Config
	connector outbound.Connector
	signals   outbound.SignalRepository
	trades    outbound.TradeRepository
	cache     outbound.AccountCache
	events    outbound.EventSink
	metrics   outbound.MetricsRecorder
	logger    *slog.Logger

	now    func() time.Time
	jitter func() float64

	signalMu     sync.Mutex
	lastSignalID int64

	// closing is set by Wait; later trades run their side effects inline.
	sideMu  sync.Mutex
	closing bool
	pending sync.WaitGroup
}

// NewService creates a new gateway service.
func NewService(config Config, deps Dependencies) (*Service, error) {
	if deps.Connector == nil {
		return nil, fmt.Errorf("connector is required")
	}
	if deps.Signals == nil {
		return nil, fmt.Errorf("signal repository is required")
	}

	defaults := ConfigDefaults()
	if config.SignalListLimit <= 0 {
		config.SignalListLimit = defaults.SignalListLimit
	}
	if config.TradeListLimit <= 0 {
		config.TradeListLimit = defaults.TradeListLimit
	}
	if config.SideEffectTimeout <= 0 {
		config.SideEffectTimeout = defaults.SideEffectTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Service{
		config:    config,
		connector: deps.Connector,
		signals:   deps.Signals,
		trades:    deps.Trades,
		cache:     deps.Cache,
		events:    deps.Events,
		metrics:   config.Metrics,
		logger:    config.Logger.With("component", "gateway-service"),
		now:       time.Now,
		jitter:    rand.Float64,
	}, nil
}

// Wait blocks until background audit and event work has finished. Trades
// that complete afterwards finish their side effects before responding.
func (s *Service) Wait() {
	s.sideMu.Lock()
	s.closing = true
	s.sideMu.Unlock()
	s.pending.Wait()
}

// Ping logs in through the connector with the configured defaults.
func (s *Service) Ping(ctx context.Context) error {
	payload, err := s.invoke(ctx, entity.Command{
		Operation:   entity.OperationConnect,
		Credentials: s.config.Defaults,
	})
	if err != nil {
		return err
	}
	if failed, reason := entity.ReportsFailure(payload); failed {
		return &entity.RejectedError{Operation: entity.OperationConnect, Reason: reason}
	}
	return nil
}

// Connect acknowledges a connection. With VerifyConnect set the credentials
// are checked by logging in through the connector.
func (s *Service) Connect(ctx context.Context, creds entity.Credentials) (*inbound.ConnectResult, error) {
	creds = creds.WithFallback(s.config.Defaults)
	result := &inbound.ConnectResult{
		Message: StubConnectMessage,
		Account: creds.Account,
		Server:  creds.Server,
	}
	if !s.config.VerifyConnect {
		return result, nil
	}

	payload, err := s.invoke(ctx, entity.Command{Operation: entity.OperationConnect, Credentials: creds})
	if err != nil {
		return nil, err
	}
	if failed, reason := entity.ReportsFailure(payload); failed {
		return nil, &entity.RejectedError{Operation: entity.OperationConnect, Reason: reason}
	}
	result.Message = "Connected to MT5."
	result.Verified = true
	return result, nil
}

// Price returns the placeholder quote for symbol.
func (s *Service) Price(_ context.Context, symbol string) (*inbound.Quote, error) {
	return &inbound.Quote{Symbol: symbol, Price: stubBasePrice + s.jitter()}, nil
}

// Account returns the account snapshot, from cache when one is configured.
func (s *Service) Account(ctx context.Context, creds entity.Credentials) (json.RawMessage, error) {
	creds = creds.WithFallback(s.config.Defaults)

	if s.cache != nil && creds.Complete() {
		cached, err := s.cache.GetAccount(ctx, creds)
		if err != nil {
			s.logger.Warn("account cache read failed", "credentials", creds, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	payload, err := s.invoke(ctx, entity.Command{Operation: entity.OperationAccount, Credentials: creds})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if failed, _ := entity.ReportsFailure(payload); !failed {
			if err := s.cache.SetAccount(ctx, creds, payload); err != nil {
				s.logger.Warn("account cache write failed", "credentials", creds, "error", err)
			}
		}
	}
	return payload, nil
}

// OpenTrades returns the open positions the connector reports for symbol.
func (s *Service) OpenTrades(ctx context.Context, symbol string, creds entity.Credentials) (json.RawMessage, error) {
	return s.invoke(ctx, entity.Command{
		Operation:   entity.OperationOpenTrades,
		Credentials: creds.WithFallback(s.config.Defaults),
		Symbol:      symbol,
	})
}

// TradeHistory returns closed deals whose symbol equals q.Symbol, in the
// order the connector listed them.
func (s *Service) TradeHistory(ctx context.Context, q inbound.HistoryQuery) ([]json.RawMessage, error) {
	payload, err := s.invoke(ctx, entity.Command{
		Operation:   entity.OperationTradeHistory,
		Credentials: q.Credentials.WithFallback(s.config.Defaults),
		From:        q.From,
		To:          q.To,
	})
	if err != nil {
		return nil, err
	}

	records, err := entity.FilterBySymbol(payload, q.Symbol)
	if err != nil {
		return nil, &entity.DecodeError{
			Operation: entity.OperationTradeHistory,
			Raw:       string(payload),
			Err:       err,
		}
	}
	return records, nil
}

// Candles returns recent bars for a symbol.
func (s *Service) Candles(ctx context.Context, q inbound.CandleQuery) (json.RawMessage, error) {
	timeframe, err := entity.ParseTimeframe(q.Timeframe)
	if err != nil {
		return nil, err
	}
	count, err := entity.NormalizeCandleCount(q.Count)
	if err != nil {
		return nil, err
	}
	return s.invoke(ctx, entity.Command{
		Operation:   entity.OperationCandle,
		Credentials: q.Credentials.WithFallback(s.config.Defaults),
		Symbol:      q.Symbol,
		Timeframe:   timeframe,
		Count:       count,
	})
}

// Tick returns the latest quote the terminal has for symbol.
func (s *Service) Tick(ctx context.Context, symbol string, creds entity.Credentials) (json.RawMessage, error) {
	return s.invoke(ctx, entity.Command{
		Operation:   entity.OperationTick,
		Credentials: creds.WithFallback(s.config.Defaults),
		Symbol:      symbol,
	})
}

// ListSignals returns stored signals, newest first.
func (s *Service) ListSignals(ctx context.Context) ([]entity.Signal, error) {
	signals, err := s.signals.ListSignals(ctx, s.config.SignalListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing signals: %w", err)
	}
	if signals == nil {
		signals = []entity.Signal{}
	}
	return signals, nil
}

// GenerateSignal creates and stores the placeholder signal for symbol.
// Signals generated within the same millisecond get consecutive ids.
func (s *Service) GenerateSignal(ctx context.Context, symbol string) (entity.Signal, error) {
	signal := entity.NewStubSignal(symbol, s.now())
	signal.ID = s.nextSignalID(signal.ID)

	for attempt := 1; ; attempt++ {
		err := s.signals.SaveSignal(ctx, signal)
		if err == nil {
			break
		}
		if errors.Is(err, entity.ErrDuplicateSignal) && attempt < maxSignalIDAttempts {
			signal.ID = s.nextSignalID(signal.ID + 1)
			continue
		}
		s.logger.Warn("failed to store signal", "id", signal.ID, "symbol", signal.Symbol, "error", err)
		break
	}
	return signal, nil
}

// nextSignalID returns candidate, or one past the last issued id if the
// clock has not moved past it.
func (s *Service) nextSignalID(candidate int64) int64 {
	s.signalMu.Lock()
	defer s.signalMu.Unlock()
	if candidate <= s.lastSignalID {
		candidate = s.lastSignalID + 1
	}
	s.lastSignalID = candidate
	return candidate
}

// ManualTrade validates and submits a market order.
func (s *Service) ManualTrade(ctx context.Context, req entity.TradeRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Credentials = req.Credentials.WithFallback(s.config.Defaults)
	if !req.Credentials.Complete() {
		return nil, entity.ErrMissingCredentials
	}

	record := entity.NewTradeRecord(req, s.now())
	audited := false
	if s.trades != nil {
		if err := s.trades.CreateTrade(ctx, record); err != nil {
			s.logger.Warn("failed to audit trade", "tradeId", record.ID, "error", err)
		} else {
			audited = true
		}
	}

	result, err := s.invoke(ctx, req.Command())

	outcomeErr := err
	if outcomeErr == nil {
		if failed, reason := entity.ReportsFailure(result); failed {
			outcomeErr = &entity.RejectedError{Operation: entity.OperationTrade, Reason: reason}
		}
	}
	record.Complete(result, outcomeErr, s.now())

	s.logger.Info("manual trade",
		"tradeId", record.ID,
		"credentials", req.Credentials,
		"symbol", record.Symbol,
		"direction", record.Direction,
		"volume", record.Volume.String(),
		"status", record.Status)
	if s.metrics != nil {
		s.metrics.RecordTrade(ctx, record.Symbol, string(record.Direction), string(record.Status))
	}

	s.afterTrade(ctx, record, audited)

	return result, err
}

// RecentTrades lists the audited manual trades of the resolved account,
// newest first. The account must resolve to complete credentials, the same
// rule every connector route applies.
func (s *Service) RecentTrades(ctx context.Context, q inbound.TradeQuery) ([]*entity.TradeRecord, error) {
	creds := q.Credentials.WithFallback(s.config.Defaults)
	if !creds.Complete() {
		return nil, entity.ErrMissingCredentials
	}
	if q.Limit < 0 {
		return nil, &entity.ValidationError{Field: "limit", Message: "must not be negative"}
	}
	limit := q.Limit
	if limit == 0 || limit > s.config.TradeListLimit {
		limit = s.config.TradeListLimit
	}
	if s.trades == nil {
		return []*entity.TradeRecord{}, nil
	}

	trades, err := s.trades.ListTrades(ctx, creds.Account, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	if trades == nil {
		trades = []*entity.TradeRecord{}
	}
	return trades, nil
}

// afterTrade completes the audit row and publishes the trade event without
// holding up the response.
func (s *Service) afterTrade(ctx context.Context, record *entity.TradeRecord, audited bool) {
	if (s.trades == nil || !audited) && s.events == nil {
		return
	}

	s.sideMu.Lock()
	if s.closing {
		s.sideMu.Unlock()
		s.finishTrade(ctx, record, audited)
		return
	}
	s.pending.Add(1)
	s.sideMu.Unlock()

	go func() {
		defer s.pending.Done()
		s.finishTrade(ctx, record, audited)
	}()
}

func (s *Service) finishTrade(ctx context.Context, record *entity.TradeRecord, audited bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SideEffectTimeout)
	defer cancel()

	if s.trades != nil && audited {
		if err := s.trades.CompleteTrade(ctx, record); err != nil {
			s.logger.Warn("failed to complete trade audit", "tradeId", record.ID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, tradeEvent(record)); err != nil {
			s.logger.Warn("failed to publish trade event", "tradeId", record.ID, "error", err)
		}
	}
}

func tradeEvent(record *entity.TradeRecord) outbound.TradeEvent {
	event := outbound.TradeEvent{
		TradeID:    record.ID.String(),
		Account:    record.Account,
		Server:     record.Server,
		Symbol:     record.Symbol,
		Direction:  string(record.Direction),
		Volume:     record.Volume.String(),
		Status:     string(record.Status),
		Error:      record.Error,
		OccurredAt: record.CreatedAt,
	}
	if !record.StopLoss.IsZero() {
		event.StopLoss = record.StopLoss.String()
	}
	if !record.TakeProfit.IsZero() {
		event.TakeProfit = record.TakeProfit.String()
	}
	if record.CompletedAt != nil {
		event.OccurredAt = *record.CompletedAt
	}
	return event
}

// invoke checks credentials before handing the command to the connector so a
// request that cannot log in never starts a process.
func (s *Service) invoke(ctx context.Context, cmd entity.Command) (json.RawMessage, error) {
	if !cmd.Credentials.Complete() {
		return nil, entity.ErrMissingCredentials
	}
	return s.connector.Invoke(ctx, cmd)
}
