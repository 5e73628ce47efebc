// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"encoding/json"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

// Connector runs one command against the MT5 terminal and returns the JSON
// document it produced.
//
// Implementations return *entity.ConnectorError when the connector reported a
// failure, *entity.DecodeError when its output was not JSON,
// entity.ErrConnectorTimeout when it ran past its deadline and
// *entity.StartError when it could not be launched.
type Connector interface {
	Invoke(ctx context.Context, cmd entity.Command) (json.RawMessage, error)
}
