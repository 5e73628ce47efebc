// Package mt5script runs the Python MT5 connector as a child process.
//
// Every Invoke starts a fresh interpreter with the command rendered as
// flags, waits for it to exit and classifies the result: anything on stderr
// is a connector failure, otherwise stdout must be a single JSON document.
package mt5script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var _ outbound.Connector = (*Connector)(nil)

// Outcomes reported to the metrics recorder.
const (
	outcomeOK        = "ok"
	outcomeStderr    = "stderr"
	outcomeDecode    = "decode"
	outcomeTimeout   = "timeout"
	outcomeStart     = "start"
	outcomeCancelled = "cancelled"
)

// Connector implements outbound.Connector by spawning the connector script.
type Connector struct {
	config     Config
	scriptPath string
	sem        *semaphore.Weighted
	metrics    outbound.MetricsRecorder
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewConnector creates a connector runner. metrics may be nil.
func NewConnector(config Config, metrics outbound.MetricsRecorder, logger *slog.Logger) (*Connector, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid mt5 connector config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := filepath.Abs(config.ScriptDir)
	if err != nil {
		return nil, fmt.Errorf("resolving script dir %q: %w", config.ScriptDir, err)
	}
	config.ScriptDir = dir

	return &Connector{
		config:     config,
		scriptPath: filepath.Join(dir, config.Script),
		sem:        semaphore.NewWeighted(config.MaxConcurrent),
		metrics:    metrics,
		tracer:     otel.Tracer("github.com/fxdesk/mt5-gateway/internal/adapters/outbound/mt5script"),
		logger:     logger.With("component", "mt5-connector"),
	}, nil
}

// ScriptPath returns the absolute path of the connector script.
func (c *Connector) ScriptPath() string {
	return c.scriptPath
}

// Check reports whether the interpreter and the script can be found.
func (c *Connector) Check() error {
	if _, err := exec.LookPath(c.config.PythonPath); err != nil {
		return &entity.StartError{Path: c.config.PythonPath, Err: err}
	}
	info, err := os.Stat(c.scriptPath)
	if err != nil {
		return &entity.StartError{Path: c.scriptPath, Err: err}
	}
	if info.IsDir() {
		return &entity.StartError{Path: c.scriptPath, Err: errors.New("is a directory")}
	}
	return nil
}

// Invoke runs one command and returns the JSON document the script printed.
func (c *Connector) Invoke(ctx context.Context, cmd entity.Command) (json.RawMessage, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "mt5.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mt5.operation", string(cmd.Operation)),
			attribute.String("mt5.symbol", cmd.Symbol),
		),
	)
	defer span.End()

	start := time.Now()
	out, outcome, err := c.run(ctx, cmd)
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordConnectorCall(ctx, string(cmd.Operation), outcome, duration)
	}
	span.SetAttributes(attribute.String("mt5.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Warn("connector call failed",
			"operation", cmd.Operation,
			"credentials", cmd.Credentials,
			"outcome", outcome,
			"duration", duration,
			"error", err)
		return nil, err
	}

	c.logger.Debug("connector call completed",
		"operation", cmd.Operation,
		"credentials", cmd.Credentials,
		"duration", duration,
		"bytes", len(out))
	return out, nil
}

func (c *Connector) run(ctx context.Context, cmd entity.Command) (json.RawMessage, string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, outcomeCancelled, fmt.Errorf("%w: %w", entity.ErrConnectorBusy, err)
	}
	defer c.sem.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	args := append([]string{c.scriptPath}, cmd.Args()...)
	proc := exec.CommandContext(runCtx, c.config.PythonPath, args...)
	proc.Dir = c.config.ScriptDir
	proc.WaitDelay = c.config.WaitDelay

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	runErr := proc.Run()

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, outcomeCancelled, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, outcomeTimeout, entity.ErrConnectorTimeout
		}
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, outcomeStart, &entity.StartError{Path: c.config.PythonPath, Err: runErr}
		}
		exitCode = exitErr.ExitCode()
	}

	if stderr.Len() > 0 {
		return nil, outcomeStderr, &entity.ConnectorError{
			Operation: cmd.Operation,
			Stderr:    stderr.String(),
			ExitCode:  exitCode,
		}
	}

	if exitCode != 0 {
		c.logger.Warn("connector exited non-zero without stderr",
			"operation", cmd.Operation,
			"exitCode", exitCode)
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	var doc json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, outcomeDecode, &entity.DecodeError{
			Operation: cmd.Operation,
			Raw:       stdout.String(),
			Err:       err,
		}
	}
	return doc, outcomeOK, nil
}
