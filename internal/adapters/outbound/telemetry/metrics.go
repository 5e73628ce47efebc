package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var _ outbound.MetricsRecorder = (*Metrics)(nil)

// Metrics implements the MetricsRecorder interface using OpenTelemetry.
type Metrics struct {
	connectorLatency metric.Float64Histogram
	connectorCalls   metric.Int64Counter
	tradesTotal      metric.Int64Counter
}

// NewMetrics creates a new OpenTelemetry metrics recorder.
// meterName should typically be the package name or service name.
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	latency, err := meter.Float64Histogram(
		"mt5_connector_duration_seconds",
		metric.WithDescription("Wall time of one connector process"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mt5_connector_duration_seconds histogram: %w", err)
	}

	calls, err := meter.Int64Counter(
		"mt5_connector_calls_total",
		metric.WithDescription("Connector invocations by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mt5_connector_calls_total counter: %w", err)
	}

	trades, err := meter.Int64Counter(
		"mt5_trades_total",
		metric.WithDescription("Manual trade attempts by symbol, direction and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mt5_trades_total counter: %w", err)
	}

	return &Metrics{
		connectorLatency: latency,
		connectorCalls:   calls,
		tradesTotal:      trades,
	}, nil
}

// RecordConnectorCall records the duration and outcome of a connector call.
func (m *Metrics) RecordConnectorCall(ctx context.Context, op string, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	m.connectorLatency.Record(ctx, duration.Seconds(), attrs)
	m.connectorCalls.Add(ctx, 1, attrs)
}

// maxSymbolLabel covers broker suffixes such as "XAUUSD.pro" or "US30#".
const maxSymbolLabel = 16

// otherSymbol replaces symbols that do not look like a broker symbol, so a
// client cannot create a new series per request.
const otherSymbol = "other"

// RecordTrade increments the trade counter.
func (m *Metrics) RecordTrade(ctx context.Context, symbol, direction, status string) {
	m.tradesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbolLabel(symbol)),
		attribute.String("direction", direction),
		attribute.String("status", status),
	))
}

func symbolLabel(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || len(symbol) > maxSymbolLabel {
		return otherSymbol
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '#', r == '-':
		default:
			return otherSymbol
		}
	}
	return symbol
}
