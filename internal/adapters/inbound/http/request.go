package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

// errInvalidBody is returned when a request body is not a JSON object.
var errInvalidBody = errors.New("invalid JSON body")

// looseString accepts a JSON string or number. Clients send account logins
// either way.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = looseString(n.String())
	}
	return nil
}

// looseDecimal accepts a JSON number, a numeric string, an empty string or null.
// The last two decode as zero, which the trade rules treat as "not set".
type looseDecimal struct {
	value decimal.Decimal
}

func (d *looseDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		d.value = decimal.Zero
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	d.value = v
	return nil
}

// credentialsBody is the part of every JSON body that may carry credentials.
type credentialsBody struct {
	Account  looseString `json:"account"`
	Password looseString `json:"password"`
	Server   looseString `json:"server"`
}

func (b credentialsBody) credentials() entity.Credentials {
	return entity.Credentials{
		Account:  strings.TrimSpace(string(b.Account)),
		Password: string(b.Password),
		Server:   strings.TrimSpace(string(b.Server)),
	}
}

type generateSignalBody struct {
	Symbol looseString `json:"symbol"`
}

type manualTradeBody struct {
	credentialsBody
	Symbol     looseString  `json:"symbol"`
	Type       looseString  `json:"type"`
	Volume     looseDecimal `json:"volume"`
	StopLoss   looseDecimal `json:"sl"`
	TakeProfit looseDecimal `json:"tp"`
}

// decodeBody decodes an optional JSON object body into dst. An empty body
// leaves dst untouched.
func decodeBody(r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return &entity.ValidationError{Field: "body", Message: "too large"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// resolveCredentials prefers each field from the body, then the query string.
// Configured defaults are applied by the service.
func resolveCredentials(body entity.Credentials, r *http.Request) entity.Credentials {
	q := r.URL.Query()
	return body.WithFallback(entity.Credentials{
		Account:  strings.TrimSpace(q.Get("account")),
		Password: q.Get("password"),
		Server:   strings.TrimSpace(q.Get("server")),
	})
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &entity.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

func (b manualTradeBody) tradeRequest() entity.TradeRequest {
	return entity.TradeRequest{
		Symbol:      strings.TrimSpace(string(b.Symbol)),
		Direction:   entity.Direction(strings.TrimSpace(string(b.Type))),
		Volume:      b.Volume.value,
		StopLoss:    b.StopLoss.value,
		TakeProfit:  b.TakeProfit.value,
		Credentials: b.credentials(),
	}
}
