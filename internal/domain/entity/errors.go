package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTradeParams is returned when a trade lacks symbol, direction or volume.
	ErrMissingTradeParams = errors.New("missing required trade params")

	// ErrMissingCredentials is returned when account, password or server is unknown
	// after falling back to the configured defaults.
	ErrMissingCredentials = errors.New("missing MT5 credentials")

	// ErrConnectorTimeout is returned when the connector process outlives its deadline.
	ErrConnectorTimeout = errors.New("mt5 connector timed out")

	// ErrConnectorBusy is returned when no process slot frees up before the request ends.
	ErrConnectorBusy = errors.New("mt5 connector is busy")

	// ErrDuplicateSignal is returned by signal stores when the id is taken.
	ErrDuplicateSignal = errors.New("signal id already exists")
)

// ValidationError describes a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConnectorError carries text the connector wrote to its error stream.
type ConnectorError struct {
	Operation Operation
	Stderr    string
	ExitCode  int
}

func (e *ConnectorError) Error() string { return e.Stderr }

// DecodeError means the connector's output was not the JSON the operation expects.
type DecodeError struct {
	Operation Operation
	Raw       string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s output: %v", e.Operation, e.Err)
}

// Message is the client-facing summary of the failure.
func (e *DecodeError) Message() string {
	return "Failed to parse MT5 " + e.Operation.Label()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StartError means the connector process could not be launched at all.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start MT5 connector %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// RejectedError means the connector ran but the terminal refused the request,
// e.g. a login with wrong credentials.
type RejectedError struct {
	Operation Operation
	Reason    string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("mt5 rejected %s", e.Operation)
	}
	return e.Reason
}
