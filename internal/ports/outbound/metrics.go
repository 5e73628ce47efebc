package outbound

import (
	"context"
	"time"
)

// MetricsRecorder records gateway metrics without tying the services to a
// telemetry implementation.
type MetricsRecorder interface {
	// RecordConnectorCall records one connector invocation. outcome is one of
	// "ok", "stderr", "decode", "timeout", "start" or "cancelled".
	RecordConnectorCall(ctx context.Context, op string, outcome string, duration time.Duration)

	// RecordTrade records a manual trade attempt by symbol, direction and status.
	RecordTrade(ctx context.Context, symbol, direction, status string)
}
