// Package entity holds the gateway's domain types: connector operations and
// commands, trade requests, signals and the records kept about them.
package entity

import (
	"fmt"
	"strings"
)

// Operation is a connector operation, passed to the script as --type.
type Operation string

const (
	OperationConnect      Operation = "connect"
	OperationAccount      Operation = "account"
	OperationOpenTrades   Operation = "open_trades"
	OperationTradeHistory Operation = "trade_history"
	OperationTrade        Operation = "trade"
	OperationCandle       Operation = "candle"
	OperationTick         Operation = "tick"
)

// Operations lists every operation the connector script accepts.
var Operations = []Operation{
	OperationConnect,
	OperationAccount,
	OperationOpenTrades,
	OperationTradeHistory,
	OperationTrade,
	OperationCandle,
	OperationTick,
}

func (o Operation) String() string { return string(o) }

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	for _, known := range Operations {
		if o == known {
			return true
		}
	}
	return false
}

// ParseOperation normalises s and returns the matching operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}

// Label is the noun used in "Failed to parse MT5 <label>" messages.
func (o Operation) Label() string {
	switch o {
	case OperationConnect:
		return "connect response"
	case OperationAccount:
		return "account info"
	case OperationOpenTrades:
		return "open trades"
	case OperationTradeHistory:
		return "trade history"
	case OperationTrade:
		return "trade response"
	case OperationCandle:
		return "candles"
	case OperationTick:
		return "tick"
	default:
		return string(o)
	}
}
