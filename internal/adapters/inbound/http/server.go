// Package http serves the gateway's REST API, health checks and metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/ports/inbound"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// notFoundPattern catches every request no API route matches.
const notFoundPattern = "/"

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":3001")
	Addr string

	Logger *slog.Logger

	ReadTimeout time.Duration

	// WriteTimeout must outlast the connector timeout or slow trades are cut off
	// before the connector error reaches the client.
	WriteTimeout time.Duration

	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty disables CORS headers.
	CORSOrigin string

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	// MetricsHandler is mounted on GET /metrics when set.
	MetricsHandler http.Handler
}

// ServerConfigDefaults returns a config with default values.
func ServerConfigDefaults() ServerConfig {
	return ServerConfig{
		Addr:         ":3001",
		Logger:       slog.Default(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		CORSOrigin:   "*",
		MaxBodyBytes: 1 << 20,
	}
}

// Server exposes the gateway over HTTP.
//
// Endpoints:
//   - /api/mt5/*     - MT5 connector operations and the manual trade audit
//   - /api/signals*  - trading signal feed
//   - /health/ready  - readiness check (connector runnable)
//   - /health/live   - liveness check
//   - /health        - combined status
//   - /metrics       - Prometheus scrape endpoint, when configured
//
// Once shuttingDown is set the health checks report 503 so load balancers
// drain the instance while in-flight requests finish.
type Server struct {
	server       *http.Server
	handler      http.Handler
	service      inbound.GatewayService
	checker      inbound.HealthChecker
	verifier     outbound.TokenVerifier
	shuttingDown *atomic.Bool
	config       ServerConfig
	logger       *slog.Logger
}

// NewServer creates the API server. verifier may be nil, in which case the
// API is unauthenticated.
func NewServer(config ServerConfig, service inbound.GatewayService, checker inbound.HealthChecker, verifier outbound.TokenVerifier, shuttingDown *atomic.Bool) *Server {
	defaults := ServerConfigDefaults()
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if shuttingDown == nil {
		shuttingDown = &atomic.Bool{}
	}

	s := &Server{
		service:      service,
		checker:      checker,
		verifier:     verifier,
		shuttingDown: shuttingDown,
		config:       config,
		logger:       config.Logger.With("component", "http-server"),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.handler = s.recoverPanics(s.accessLog(s.trace(s.cors(s.authenticate(mux)))))
	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
	}

	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/mt5/connect", s.handleConnect)
	mux.HandleFunc("GET /api/mt5/price/{symbol}", s.handlePrice)
	mux.HandleFunc("GET /api/mt5/open-trades/{symbol}", s.handleOpenTrades)
	mux.HandleFunc("GET /api/mt5/trade-history/{symbol}", s.handleTradeHistory)
	mux.HandleFunc("POST /api/mt5/account", s.handleAccount)
	mux.HandleFunc("GET /api/mt5/candles/{symbol}", s.handleCandles)
	mux.HandleFunc("GET /api/mt5/tick/{symbol}", s.handleTick)
	mux.HandleFunc("POST /api/mt5/manual-trade", s.handleManualTrade)
	mux.HandleFunc("GET /api/mt5/trades", s.handleRecentTrades)
	mux.HandleFunc("GET /api/signals", s.handleListSignals)
	mux.HandleFunc("POST /api/signals/generate", s.handleGenerateSignal)

	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.HandleFunc("GET /health/live", s.handleLive)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.config.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.config.MetricsHandler)
	}

	mux.HandleFunc(notFoundPattern, s.handleNotFound)
}

// Start begins listening in a goroutine. Listener errors are sent on the
// returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server, waiting up to timeout for in-flight
// requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, s.logger, http.StatusNotFound, msgNotFound)
}
