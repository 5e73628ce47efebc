package entity

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Command is one connector invocation. Zero-valued optional fields are not
// passed to the script.
type Command struct {
	Operation   Operation
	Credentials Credentials

	Symbol     string
	Direction  Direction
	Volume     decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal

	Timeframe string
	Count     int
	From      string
	To        string
}

// Validate checks the command can be turned into a well-formed argument list.
func (c Command) Validate() error {
	if !c.Operation.Valid() {
		return &ValidationError{Field: "type", Message: "unknown operation " + strconv.Quote(string(c.Operation))}
	}
	if !c.Credentials.Complete() {
		return ErrMissingCredentials
	}
	switch c.Operation {
	case OperationTrade:
		if c.Symbol == "" || c.Direction == "" || c.Volume.IsZero() {
			return ErrMissingTradeParams
		}
	case OperationCandle, OperationTick:
		if c.Symbol == "" {
			return &ValidationError{Field: "symbol", Message: "required"}
		}
	}
	return nil
}

// Args renders the flags in the order the connector script has always received them:
//
//	--account A --password P --server S --type OP [--symbol] [--trade_type] [--volume] [--sl] [--tp]
//
// followed by the optional --timeframe, --count, --from and --to.
func (c Command) Args() []string {
	args := []string{
		"--account", c.Credentials.Account,
		"--password", c.Credentials.Password,
		"--server", c.Credentials.Server,
		"--type", string(c.Operation),
	}
	if c.Symbol != "" {
		args = append(args, "--symbol", c.Symbol)
	}
	if c.Direction != "" {
		args = append(args, "--trade_type", string(c.Direction))
	}
	if !c.Volume.IsZero() {
		args = append(args, "--volume", c.Volume.String())
	}
	if !c.StopLoss.IsZero() {
		args = append(args, "--sl", c.StopLoss.String())
	}
	if !c.TakeProfit.IsZero() {
		args = append(args, "--tp", c.TakeProfit.String())
	}
	if c.Timeframe != "" {
		args = append(args, "--timeframe", c.Timeframe)
	}
	if c.Count > 0 {
		args = append(args, "--count", strconv.Itoa(c.Count))
	}
	if c.From != "" {
		args = append(args, "--from", c.From)
	}
	if c.To != "" {
		args = append(args, "--to", c.To)
	}
	return args
}
