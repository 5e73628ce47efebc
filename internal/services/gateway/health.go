package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/ports/inbound"
)

var _ inbound.HealthChecker = (*ConnectorHealth)(nil)

// ConnectorHealth reports ready while the connector preflight check passes.
// Results are cached for interval so health checks do not stat the filesystem on
// every request.
type ConnectorHealth struct {
	check    func() error
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	ready     bool
	checked   bool
}

// NewConnectorHealth wraps check, typically mt5script.Connector.Check.
func NewConnectorHealth(check func() error, interval time.Duration, logger *slog.Logger) *ConnectorHealth {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectorHealth{
		check:    check,
		interval: interval,
		logger:   logger.With("component", "connector-health"),
		now:      time.Now,
	}
}

// IsReady runs the check at most once per interval.
func (h *ConnectorHealth) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.checked && now.Sub(h.checkedAt) < h.interval {
		return h.ready
	}

	err := h.check()
	ready := err == nil
	if h.checked && ready != h.ready {
		if ready {
			h.logger.Info("connector available")
		} else {
			h.logger.Warn("connector unavailable", "error", err)
		}
	} else if !h.checked && !ready {
		h.logger.Warn("connector unavailable", "error", err)
	}

	h.ready = ready
	h.checked = true
	h.checkedAt = now
	return ready
}

// IsHealthy is true while the process serves requests; the connector runs
// per request, so there is no background loop to stall.
func (h *ConnectorHealth) IsHealthy() bool {
	return true
}
