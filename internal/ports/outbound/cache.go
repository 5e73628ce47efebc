package outbound

import (
	"context"
	"encoding/json"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

// AccountCache holds recent account snapshots. Entries are keyed by the full
// credentials so a snapshot is only served to callers that could fetch it.
type AccountCache interface {
	// GetAccount returns nil, nil on a miss.
	GetAccount(ctx context.Context, creds entity.Credentials) (json.RawMessage, error)

	SetAccount(ctx context.Context, creds entity.Credentials, data json.RawMessage) error

	// Close releases the cache connection.
	Close() error
}
