package entity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

var testCreds = Credentials{Account: "5012345", Password: "s3cret", Server: "MetaQuotes-Demo"}

func TestCommand_Args(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected []string
	}{
		{
			name: "account",
			cmd:  Command{Operation: OperationAccount, Credentials: testCreds},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "account",
			},
		},
		{
			name: "open trades with symbol filter",
			cmd:  Command{Operation: OperationOpenTrades, Credentials: testCreds, Symbol: "XAUUSD"},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "open_trades", "--symbol", "XAUUSD",
			},
		},
		{
			name: "trade with stop-loss and take-profit",
			cmd: Command{
				Operation:   OperationTrade,
				Credentials: testCreds,
				Symbol:      "EURUSD",
				Direction:   DirectionSell,
				Volume:      decimal.RequireFromString("0.10"),
				StopLoss:    decimal.RequireFromString("1.0950"),
				TakeProfit:  decimal.RequireFromString("1.08"),
			},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "trade", "--symbol", "EURUSD", "--trade_type", "SELL",
				"--volume", "0.1", "--sl", "1.095", "--tp", "1.08",
			},
		},
		{
			name: "trade omits zero stop-loss",
			cmd: Command{
				Operation:   OperationTrade,
				Credentials: testCreds,
				Symbol:      "EURUSD",
				Direction:   DirectionBuy,
				Volume:      decimal.NewFromInt(1),
				TakeProfit:  decimal.RequireFromString("1.2"),
			},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "trade", "--symbol", "EURUSD", "--trade_type", "BUY",
				"--volume", "1", "--tp", "1.2",
			},
		},
		{
			name: "trade history window",
			cmd: Command{
				Operation:   OperationTradeHistory,
				Credentials: testCreds,
				From:        "2026-01-01",
				To:          "2026-02-01",
			},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "trade_history", "--from", "2026-01-01", "--to", "2026-02-01",
			},
		},
		{
			name: "candles",
			cmd:  Command{Operation: OperationCandle, Credentials: testCreds, Symbol: "XAUUSD", Timeframe: "M15", Count: 50},
			expected: []string{
				"--account", "5012345", "--password", "s3cret", "--server", "MetaQuotes-Demo",
				"--type", "candle", "--symbol", "XAUUSD", "--timeframe", "M15", "--count", "50",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.Args()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("args mismatch\n got: %q\nwant: %q", got, tt.expected)
			}
		})
	}
}

func TestCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{
			name: "valid account",
			cmd:  Command{Operation: OperationAccount, Credentials: testCreds},
		},
		{
			name:    "missing password",
			cmd:     Command{Operation: OperationAccount, Credentials: Credentials{Account: "1", Server: "s"}},
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "trade without volume",
			cmd:     Command{Operation: OperationTrade, Credentials: testCreds, Symbol: "EURUSD", Direction: DirectionBuy},
			wantErr: ErrMissingTradeParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCommand_ValidateRejectsUnknownOperation(t *testing.T) {
	err := Command{Operation: "liquidate", Credentials: testCreds}.Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "type" {
		t.Errorf("expected field type, got %s", vErr.Field)
	}
}

func TestCommand_ValidateCandleNeedsSymbol(t *testing.T) {
	err := Command{Operation: OperationCandle, Credentials: testCreds}.Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "symbol" {
		t.Fatalf("expected symbol ValidationError, got %v", err)
	}
}
