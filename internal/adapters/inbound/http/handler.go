package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/inbound"
)

type connectResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Account  string `json:"account,omitempty"`
	Server   string `json:"server,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

type priceResponse struct {
	Success bool    `json:"success"`
	Symbol  string  `json:"symbol"`
	Price   float64 `json:"price"`
}

type tradesResponse struct {
	Success bool              `json:"success"`
	Trades  []json.RawMessage `json:"trades"`
}

type rawTradesResponse struct {
	Success bool            `json:"success"`
	Trades  json.RawMessage `json:"trades"`
}

type candlesResponse struct {
	Success bool            `json:"success"`
	Candles json.RawMessage `json:"candles"`
}

type tickResponse struct {
	Success bool            `json:"success"`
	Tick    json.RawMessage `json:"tick"`
}

type signalsResponse struct {
	Success bool            `json:"success"`
	Signals []entity.Signal `json:"signals"`
}

type signalResponse struct {
	Success bool          `json:"success"`
	Signal  entity.Signal `json:"signal"`
}

type tradeResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// auditedTrade is the client view of a manual trade audit row.
type auditedTrade struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	Server      string          `json:"server"`
	Symbol      string          `json:"symbol"`
	Type        string          `json:"type"`
	Volume      string          `json:"volume"`
	StopLoss    string          `json:"sl,omitempty"`
	TakeProfit  string          `json:"tp,omitempty"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	CompletedAt string          `json:"completedAt,omitempty"`
}

type auditedTradesResponse struct {
	Success bool           `json:"success"`
	Trades  []auditedTrade `json:"trades"`
}

func newAuditedTrade(rec *entity.TradeRecord) auditedTrade {
	t := auditedTrade{
		ID:        rec.ID.String(),
		Account:   rec.Account,
		Server:    rec.Server,
		Symbol:    rec.Symbol,
		Type:      string(rec.Direction),
		Volume:    rec.Volume.String(),
		Status:    string(rec.Status),
		Result:    rec.Result,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !rec.StopLoss.IsZero() {
		t.StopLoss = rec.StopLoss.String()
	}
	if !rec.TakeProfit.IsZero() {
		t.TakeProfit = rec.TakeProfit.String()
	}
	if rec.CompletedAt != nil {
		t.CompletedAt = rec.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// requestCredentials decodes the body and resolves credentials from it and
// the query string.
func (s *Server) requestCredentials(w http.ResponseWriter, r *http.Request) (entity.Credentials, bool) {
	var body credentialsBody
	if err := decodeBody(r, s.config.MaxBodyBytes, &body); err != nil {
		respondError(w, r, s.logger, err)
		return entity.Credentials{}, false
	}
	return resolveCredentials(body.credentials(), r), true
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	result, err := s.service.Connect(r.Context(), creds)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, connectResponse{
		Success:  true,
		Message:  result.Message,
		Account:  result.Account,
		Server:   result.Server,
		Verified: result.Verified,
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	quote, err := s.service.Price(r.Context(), r.PathValue("symbol"))
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, priceResponse{Success: true, Symbol: quote.Symbol, Price: quote.Price})
}

func (s *Server) handleOpenTrades(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	trades, err := s.service.OpenTrades(r.Context(), r.PathValue("symbol"), creds)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, rawTradesResponse{Success: true, Trades: trades})
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	trades, err := s.service.TradeHistory(r.Context(), inbound.HistoryQuery{
		Symbol:      r.PathValue("symbol"),
		From:        strings.TrimSpace(q.Get("from")),
		To:          strings.TrimSpace(q.Get("to")),
		Credentials: creds,
	})
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, tradesResponse{Success: true, Trades: trades})
}

// handleAccount returns the connector's account document unchanged, including
// documents that report success:false.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	account, err := s.service.Account(r.Context(), creds)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondRaw(w, s.logger, http.StatusOK, account)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	count, err := queryInt(r, "count")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	candles, err := s.service.Candles(r.Context(), inbound.CandleQuery{
		Symbol:      r.PathValue("symbol"),
		Timeframe:   strings.TrimSpace(r.URL.Query().Get("timeframe")),
		Count:       count,
		Credentials: creds,
	})
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, candlesResponse{Success: true, Candles: candles})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	tick, err := s.service.Tick(r.Context(), r.PathValue("symbol"), creds)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, tickResponse{Success: true, Tick: tick})
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := s.service.ListSignals(r.Context())
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, signalsResponse{Success: true, Signals: signals})
}

func (s *Server) handleGenerateSignal(w http.ResponseWriter, r *http.Request) {
	var body generateSignalBody
	if err := decodeBody(r, s.config.MaxBodyBytes, &body); err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	signal, err := s.service.GenerateSignal(r.Context(), strings.TrimSpace(string(body.Symbol)))
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, signalResponse{Success: true, Signal: signal})
}

// handleManualTrade places a market order. Credentials come from the body or
// the configured defaults, never the query string.
func (s *Server) handleManualTrade(w http.ResponseWriter, r *http.Request) {
	var body manualTradeBody
	if err := decodeBody(r, s.config.MaxBodyBytes, &body); err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	result, err := s.service.ManualTrade(r.Context(), body.tradeRequest())
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, tradeResponse{Success: true, Result: result})
}

// handleRecentTrades lists the gateway's own audit of manual trades for the
// resolved account.
func (s *Server) handleRecentTrades(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requestCredentials(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	records, err := s.service.RecentTrades(r.Context(), inbound.TradeQuery{Credentials: creds, Limit: limit})
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	trades := make([]auditedTrade, 0, len(records))
	for _, rec := range records {
		trades = append(trades, newAuditedTrade(rec))
	}
	respondJSON(w, s.logger, http.StatusOK, auditedTradesResponse{Success: true, Trades: trades})
}
