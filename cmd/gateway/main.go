// Package main runs the MT5 gateway: an HTTP API that drives the MT5 connector
// script and serves the trading dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fxdesk/mt5-gateway/db"
	"github.com/fxdesk/mt5-gateway/db/migrator"
	httpadapter "github.com/fxdesk/mt5-gateway/internal/adapters/inbound/http"
	"github.com/fxdesk/mt5-gateway/internal/adapters/outbound/memory"
	"github.com/fxdesk/mt5-gateway/internal/adapters/outbound/mt5script"
	"github.com/fxdesk/mt5-gateway/internal/adapters/outbound/postgres"
	redisadapter "github.com/fxdesk/mt5-gateway/internal/adapters/outbound/redis"
	snsadapter "github.com/fxdesk/mt5-gateway/internal/adapters/outbound/sns"
	"github.com/fxdesk/mt5-gateway/internal/adapters/outbound/supabase"
	"github.com/fxdesk/mt5-gateway/internal/adapters/outbound/telemetry"
	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/pkg/env"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
	"github.com/fxdesk/mt5-gateway/internal/services/gateway"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout   = 25 * time.Second
	readinessInterval = 10 * time.Second
	memorySignalLimit = 1000
	memoryTradeLimit  = 1000
	memoryEventLimit  = 1000
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type cliConfig struct {
	addr        string
	dbURL       string
	redisAddr   string
	ping        bool
	environment string
}

func parseConfig(args []string) (cliConfig, error) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	addr := fs.String("addr", "", "HTTP listen address (default :$PORT)")
	dbURL := fs.String("db", "", "PostgreSQL connection URL")
	redisAddr := fs.String("redis", "", "Redis address for the account cache")
	ping := fs.Bool("ping", false, "log in with the configured MT5 credentials and exit")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	cfg := cliConfig{
		addr:        *addr,
		dbURL:       *dbURL,
		redisAddr:   *redisAddr,
		ping:        *ping,
		environment: env.Get("ENVIRONMENT", "development"),
	}
	if cfg.addr == "" {
		cfg.addr = ":" + env.Get("PORT", "3001")
	}
	if cfg.dbURL == "" {
		cfg.dbURL = env.Get("DATABASE_URL", "")
	}
	if cfg.redisAddr == "" {
		cfg.redisAddr = env.Get("REDIS_ADDR", "")
	}
	return cfg, nil
}

func connectorConfig() mt5script.Config {
	defaults := mt5script.ConfigDefaults()
	return mt5script.Config{
		PythonPath:    env.Get("MT5_PYTHON_PATH", defaults.PythonPath),
		ScriptDir:     env.Get("MT5_SCRIPT_DIR", defaults.ScriptDir),
		Script:        env.Get("MT5_SCRIPT", defaults.Script),
		Timeout:       env.GetDuration("MT5_TIMEOUT", defaults.Timeout),
		MaxConcurrent: int64(env.GetInt("MT5_MAX_CONCURRENT", int(defaults.MaxConcurrent))),
		WaitDelay:     defaults.WaitDelay,
	}
}

func run(ctx context.Context, args []string) error {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	// Telemetry
	tracerConfig := telemetry.TracerConfigDefaults()
	tracerConfig.ServiceVersion = version
	tracerConfig.Environment = cfg.environment
	tracerConfig.OTLPEndpoint = env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdownTracer, err := telemetry.InitTracer(ctx, tracerConfig)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}

	prometheusEnabled := env.GetBool("METRICS_PROMETHEUS", false)
	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    tracerConfig.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.environment,
		OTLPEndpoint:   tracerConfig.OTLPEndpoint,
		Prometheus:     prometheusEnabled,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer flushTelemetry(logger, shutdownTracer, shutdownMetrics)

	metrics, err := telemetry.NewMetrics("github.com/fxdesk/mt5-gateway")
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	// Connector
	connConfig := connectorConfig()
	connector, err := mt5script.NewConnector(connConfig, metrics, logger)
	if err != nil {
		return fmt.Errorf("creating connector: %w", err)
	}
	if err := connector.Check(); err != nil {
		logger.Warn("connector not runnable yet, readiness will report not_ready", "error", err)
	}

	deps := gateway.Dependencies{Connector: connector}

	// Persistence
	if cfg.dbURL != "" {
		poolConfig := postgres.PoolConfigDefaults(cfg.dbURL, connConfig.MaxConcurrent)
		pool, err := postgres.OpenPool(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		logger.Info("PostgreSQL connected", "max_conns", poolConfig.MaxConns())

		pending, err := migrator.New(pool, db.Migrations(), logger).Pending(ctx)
		if err != nil {
			return fmt.Errorf("checking schema: %w", err)
		}
		if len(pending) > 0 {
			return fmt.Errorf("database schema is behind, run cmd/migrate first (pending: %s)", strings.Join(pending, ", "))
		}

		signals, err := postgres.NewSignalRepository(pool, logger)
		if err != nil {
			return fmt.Errorf("creating signal repository: %w", err)
		}
		trades, err := postgres.NewTradeRepository(pool, logger)
		if err != nil {
			return fmt.Errorf("creating trade repository: %w", err)
		}
		deps.Signals = signals
		deps.Trades = trades
	} else {
		logger.Info("DATABASE_URL not set, signals and trade audit kept in memory",
			"signal_limit", memorySignalLimit,
			"trade_limit", memoryTradeLimit,
		)
		deps.Signals = memory.NewSignalRepository(memorySignalLimit)
		deps.Trades = memory.NewTradeRepository(memoryTradeLimit)
	}

	// Account cache
	cache, err := newAccountCache(ctx, cfg.redisAddr, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		deps.Cache = cache
	}

	// Trade events
	events, err := newEventSink(ctx, logger)
	if err != nil {
		return err
	}
	defer events.Close()
	deps.Events = events

	svc, err := gateway.NewService(gateway.Config{
		Defaults: entity.Credentials{
			Account:  env.Get("MT5_LOGIN", ""),
			Password: env.Get("MT5_PASSWORD", ""),
			Server:   env.Get("MT5_SERVER", ""),
		},
		VerifyConnect: env.GetBool("MT5_VERIFY_CONNECT", false),
		Metrics:       metrics,
		Logger:        logger,
	}, deps)
	if err != nil {
		return fmt.Errorf("creating gateway service: %w", err)
	}

	if cfg.ping {
		if err := svc.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		logger.Info("connector ping succeeded", "script", connector.ScriptPath())
		return nil
	}

	verifier, err := newTokenVerifier(logger)
	if err != nil {
		return err
	}

	serverConfig := httpadapter.ServerConfigDefaults()
	serverConfig.Addr = cfg.addr
	serverConfig.Logger = logger
	serverConfig.CORSOrigin = env.Get("CORS_ORIGIN", serverConfig.CORSOrigin)
	if timeout := connectorConfig().Timeout + 5*time.Second; timeout > serverConfig.WriteTimeout {
		serverConfig.WriteTimeout = timeout
	}
	if prometheusEnabled {
		serverConfig.MetricsHandler = promhttp.Handler()
	}

	var shuttingDown atomic.Bool
	health := gateway.NewConnectorHealth(connector.Check, readinessInterval, logger)
	server := httpadapter.NewServer(serverConfig, svc, health, verifier, &shuttingDown)
	serverErr := server.Start()

	logger.Info("gateway started",
		"addr", cfg.addr,
		"script", connector.ScriptPath(),
		"auth", verifier != nil,
		"version", version)

	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("shutting down...")
	shuttingDown.Store(true)

	if err := server.Shutdown(shutdownTimeout); err != nil {
		logger.Error("error stopping http server", "error", err)
	}

	waitDone := make(chan struct{})
	go func() {
		defer close(waitDone)
		svc.Wait()
	}()
	select {
	case <-waitDone:
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out waiting for trade audits")
	}

	return nil
}

// newAccountCache picks Redis when an address is configured, the in-process
// cache when only a TTL is set, and nothing otherwise.
func newAccountCache(ctx context.Context, redisAddr string, logger *slog.Logger) (outbound.AccountCache, error) {
	ttl := env.GetDuration("ACCOUNT_CACHE_TTL", 0)
	if ttl <= 0 {
		return nil, nil
	}
	if redisAddr == "" {
		logger.Info("account cache in memory", "ttl", ttl)
		return memory.NewAccountCache(ttl), nil
	}

	redisConfig := redisadapter.ConfigDefaults()
	redisConfig.Addr = redisAddr
	redisConfig.Password = env.Get("REDIS_PASSWORD", "")
	redisConfig.DB = env.GetInt("REDIS_DB", 0)
	redisConfig.TTL = ttl

	cache, err := redisadapter.NewAccountCache(redisConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("creating redis cache: %w", err)
	}
	if err := cache.Ping(ctx); err != nil {
		cache.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("account cache in redis", "addr", redisAddr, "ttl", ttl)
	return cache, nil
}

func newEventSink(ctx context.Context, logger *slog.Logger) (outbound.EventSink, error) {
	topicARN := env.Get("AWS_SNS_TRADES_TOPIC_ARN", "")
	if topicARN == "" {
		logger.Info("AWS_SNS_TRADES_TOPIC_ARN not set, trade events kept in memory", "limit", memoryEventLimit)
		return memory.NewEventSink(memoryEventLimit), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(env.Get("AWS_REGION", "eu-west-1")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var snsOptFns []func(*sns.Options)
	if endpoint := env.Get("AWS_SNS_ENDPOINT", ""); endpoint != "" {
		snsOptFns = append(snsOptFns, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	sinkConfig := snsadapter.ConfigDefaults()
	sinkConfig.TopicARN = topicARN
	sinkConfig.Logger = logger
	sink, err := snsadapter.NewEventSink(sns.NewFromConfig(awsCfg, snsOptFns...), sinkConfig)
	if err != nil {
		return nil, fmt.Errorf("creating SNS event sink: %w", err)
	}
	logger.Info("trade events published to SNS", "topic", topicARN)
	return sink, nil
}

// newTokenVerifier returns nil when SUPABASE_URL is unset, leaving the API open.
func newTokenVerifier(logger *slog.Logger) (outbound.TokenVerifier, error) {
	url := env.Get("SUPABASE_URL", "")
	if url == "" {
		logger.Warn("SUPABASE_URL not set, API requests are not authenticated")
		return nil, nil
	}
	verifierConfig := supabase.ConfigDefaults()
	verifierConfig.URL = url
	verifierConfig.AnonKey = env.Get("SUPABASE_ANON_KEY", "")
	verifier, err := supabase.NewVerifier(verifierConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("creating token verifier: %w", err)
	}
	return verifier, nil
}

func flushTelemetry(logger *slog.Logger, shutdowns ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, shutdown := range shutdowns {
		if err := shutdown(ctx); err != nil {
			logger.Error("error flushing telemetry", "error", err)
		}
	}
}
