package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a market order.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// ParseDirection accepts buy/sell in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case DirectionBuy:
		return DirectionBuy, nil
	case DirectionSell:
		return DirectionSell, nil
	default:
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("%q is not BUY or SELL", s)}
	}
}

// TradeRequest is a manual market order submitted by a user.
type TradeRequest struct {
	Symbol      string
	Direction   Direction
	Volume      decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	Credentials Credentials
}

// Validate checks the required fields and normalises the direction.
// Zero stop-loss and take-profit mean "not set".
func (r *TradeRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" || strings.TrimSpace(string(r.Direction)) == "" || r.Volume.IsZero() {
		return ErrMissingTradeParams
	}
	dir, err := ParseDirection(string(r.Direction))
	if err != nil {
		return err
	}
	r.Direction = dir
	if r.Volume.IsNegative() {
		return &ValidationError{Field: "volume", Message: "must be positive"}
	}
	if r.StopLoss.IsNegative() {
		return &ValidationError{Field: "sl", Message: "must not be negative"}
	}
	if r.TakeProfit.IsNegative() {
		return &ValidationError{Field: "tp", Message: "must not be negative"}
	}
	return nil
}

// Command converts the request into a connector command.
func (r TradeRequest) Command() Command {
	return Command{
		Operation:   OperationTrade,
		Credentials: r.Credentials,
		Symbol:      r.Symbol,
		Direction:   r.Direction,
		Volume:      r.Volume,
		StopLoss:    r.StopLoss,
		TakeProfit:  r.TakeProfit,
	}
}

// TradeStatus is the lifecycle state of an audited trade.
type TradeStatus string

const (
	TradeStatusSubmitted TradeStatus = "submitted"
	TradeStatusSucceeded TradeStatus = "succeeded"
	TradeStatusFailed    TradeStatus = "failed"
)

// TradeRecord is the audit row written for every manual trade attempt.
type TradeRecord struct {
	ID          uuid.UUID
	Account     string
	Server      string
	Symbol      string
	Direction   Direction
	Volume      decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	Status      TradeStatus
	Result      json.RawMessage
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewTradeRecord starts an audit record for a validated request.
func NewTradeRecord(req TradeRequest, now time.Time) *TradeRecord {
	return &TradeRecord{
		ID:         uuid.New(),
		Account:    req.Credentials.Account,
		Server:     req.Credentials.Server,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Status:     TradeStatusSubmitted,
		CreatedAt:  now.UTC(),
	}
}

// Complete records the connector outcome.
func (t *TradeRecord) Complete(result json.RawMessage, err error, now time.Time) {
	done := now.UTC()
	t.CompletedAt = &done
	if err != nil {
		t.Status = TradeStatusFailed
		t.Error = err.Error()
		return
	}
	t.Status = TradeStatusSucceeded
	t.Result = result
}
