// Package supabase verifies access tokens against the Supabase auth API.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fxdesk/mt5-gateway/internal/pkg/httpclient"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

var _ outbound.TokenVerifier = (*Verifier)(nil)

// Config holds the Supabase project settings.
type Config struct {
	// URL is the project URL, e.g. "https://abc.supabase.co".
	URL string

	// AnonKey is sent as the apikey header.
	AnonKey string

	HTTP httpclient.Config
}

// ConfigDefaults returns the default configuration.
func ConfigDefaults() Config {
	return Config{HTTP: httpclient.DefaultConfig()}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves bearer tokens to users via GET /auth/v1/user.
type Verifier struct {
	client  *httpclient.Client
	userURL string
	anonKey string
	logger  *slog.Logger
}

// NewVerifier creates a verifier for the project at cfg.URL.
func NewVerifier(cfg Config, logger *slog.Logger) (*Verifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase URL is required")
	}
	if cfg.HTTP == (httpclient.Config{}) {
		cfg.HTTP = ConfigDefaults().HTTP
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "supabase-verifier")

	return &Verifier{
		client:  httpclient.NewClient(cfg.HTTP, logger),
		userURL: strings.TrimRight(cfg.URL, "/") + "/auth/v1/user",
		anonKey: cfg.AnonKey,
		logger:  logger,
	}, nil
}

// Verify returns the user owning token, or outbound.ErrInvalidToken when the
// auth API rejects it.
func (v *Verifier) Verify(ctx context.Context, token string) (*outbound.Principal, error) {
	if token == "" {
		return nil, outbound.ErrInvalidToken
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if v.anonKey != "" {
		headers["apikey"] = v.anonKey
	}

	var user userResponse
	if err := v.client.GetJSON(ctx, v.userURL, headers, &user); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			return nil, outbound.ErrInvalidToken
		}
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	if user.ID == "" {
		return nil, outbound.ErrInvalidToken
	}
	return &outbound.Principal{UserID: user.ID, Email: user.Email}, nil
}
