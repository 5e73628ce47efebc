package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// Client-facing error texts.
const (
	msgNotFound           = "API endpoint not found"
	msgMissingParams      = "Missing required params"
	msgMissingCredentials = "Missing MT5 credentials"
	msgTimeout            = "MT5 connector timed out"
	msgBusy               = "MT5 connector is busy"
	msgUnavailable        = "MT5 connector unavailable"
	msgUnauthorized       = "Unauthorized"
	msgAuthUnavailable    = "Authentication service unavailable"
	msgInvalidBody        = "Invalid JSON body"
	msgInternal           = "Internal server error"
)

// errorBody is the failure envelope. Details is set for unparseable
// connector output and is sent even when that output was empty.
type errorBody struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Details *string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondRaw writes a connector document without re-encoding it.
func respondRaw(w http.ResponseWriter, logger *slog.Logger, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, errorBody{Error: message})
}

// respondError maps a service error to its status code and envelope.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err)
	}
	respondJSON(w, logger, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		validationErr *entity.ValidationError
		connectorErr  *entity.ConnectorError
		decodeErr     *entity.DecodeError
		rejectedErr   *entity.RejectedError
		startErr      *entity.StartError
	)

	switch {
	case errors.Is(err, entity.ErrMissingTradeParams):
		return http.StatusBadRequest, errorBody{Error: msgMissingParams}
	case errors.Is(err, entity.ErrMissingCredentials):
		return http.StatusBadRequest, errorBody{Error: msgMissingCredentials}
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, errorBody{Error: msgInvalidBody}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorBody{Error: validationErr.Error()}
	case errors.As(err, &connectorErr):
		return http.StatusInternalServerError, errorBody{Error: connectorErr.Stderr}
	case errors.As(err, &decodeErr):
		raw := decodeErr.Raw
		return http.StatusInternalServerError, errorBody{Error: decodeErr.Message(), Details: &raw}
	case errors.Is(err, entity.ErrConnectorTimeout):
		return http.StatusGatewayTimeout, errorBody{Error: msgTimeout}
	case errors.Is(err, entity.ErrConnectorBusy):
		return http.StatusServiceUnavailable, errorBody{Error: msgBusy}
	case errors.As(err, &rejectedErr):
		return http.StatusBadGateway, errorBody{Error: rejectedErr.Error()}
	case errors.As(err, &startErr):
		return http.StatusInternalServerError, errorBody{Error: msgUnavailable}
	case errors.Is(err, outbound.ErrInvalidToken):
		return http.StatusUnauthorized, errorBody{Error: msgUnauthorized}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorBody{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, errorBody{Error: msgInternal}
	}
}
