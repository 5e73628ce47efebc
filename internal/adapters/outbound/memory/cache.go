package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var _ outbound.AccountCache = (*AccountCache)(nil)

type cachedAccount struct {
	data    json.RawMessage
	expires time.Time
}

// AccountCache is a process-local account snapshot cache with a fixed TTL.
type AccountCache struct {
	mu      sync.Mutex
	entries map[entity.Credentials]cachedAccount
	ttl     time.Duration
	now     func() time.Time
}

// NewAccountCache creates a cache whose entries live for ttl.
func NewAccountCache(ttl time.Duration) *AccountCache {
	return &AccountCache{
		entries: make(map[entity.Credentials]cachedAccount),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *AccountCache) GetAccount(_ context.Context, creds entity.Credentials) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[creds]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, creds)
		return nil, nil
	}
	return entry.data, nil
}

func (c *AccountCache) SetAccount(_ context.Context, creds entity.Credentials, data json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.entries {
		if !now.Before(v.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[creds] = cachedAccount{
		data:    append(json.RawMessage(nil), data...),
		expires: now.Add(c.ttl),
	}
	return nil
}

func (c *AccountCache) Close() error { return nil }
