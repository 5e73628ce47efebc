// Package sns implements the EventSink interface using AWS SNS.
//
// Every manual trade attempt is published as a JSON message to one topic.
// Message attributes allow subscribers to filter:
//   - eventType: always "trade"
//   - symbol: the traded instrument
//   - status: "succeeded" or "failed"
//
// For tests and local runs without AWS, use the memory.EventSink adapter instead.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/fxdesk/mt5-gateway/internal/pkg/retry"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.EventSink
var _ outbound.EventSink = (*EventSink)(nil)

// SNSPublisher defines the subset of SNS client methods used by EventSink.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Config holds configuration for the SNS event sink.
type Config struct {
	// TopicARN is the topic trade events are published to.
	TopicARN string

	// Retry controls backoff for throttling and transient AWS failures.
	Retry retry.Config

	// Logger is the structured logger for the sink.
	Logger *slog.Logger
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		Retry:  retry.DefaultConfig(),
		Logger: slog.Default(),
	}
}

// EventSink publishes trade events to AWS SNS.
type EventSink struct {
	client SNSPublisher
	config Config
	logger *slog.Logger
	closed bool
	mu     sync.RWMutex
}

// NewEventSink creates a new SNS event sink.
func NewEventSink(client SNSPublisher, config Config) (*EventSink, error) {
	if client == nil {
		return nil, errors.New("sns client is required")
	}
	if config.TopicARN == "" {
		return nil, errors.New("topic ARN is required")
	}

	defaults := ConfigDefaults()
	if config.Retry == (retry.Config{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &EventSink{
		client: client,
		config: config,
		logger: config.Logger.With("component", "sns-eventsink"),
	}, nil
}

// Publish publishes a trade event to SNS.
func (s *EventSink) Publish(ctx context.Context, event outbound.TradeEvent) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return errors.New("event sink is closed")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.config.TopicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": stringAttribute("trade"),
			"symbol":    stringAttribute(event.Symbol),
			"status":    stringAttribute(event.Status),
		},
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		s.logger.Warn("publish failed, retrying",
			"attempt", attempt,
			"maxRetries", s.config.Retry.MaxRetries,
			"backoff", backoff,
			"error", err,
			"tradeId", event.TradeID)
	}

	err = retry.DoVoid(ctx, s.config.Retry, onRetry, func(ctx context.Context) error {
		_, err := s.client.Publish(ctx, input)
		if err != nil && !isRetryableError(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish trade event %s to SNS: %w", event.TradeID, err)
	}
	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}

// isRetryableError reports whether a publish failure may succeed on retry.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var (
		invalidParam *types.InvalidParameterException
		notFound     *types.NotFoundException
		authz        *types.AuthorizationErrorException
	)
	switch {
	case errors.As(err, &invalidParam), errors.As(err, &notFound), errors.As(err, &authz):
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttled", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return true
		}
		// Other client faults (credentials, KMS, disabled endpoints) fail the
		// same way on every attempt.
		return apiErr.ErrorFault() != smithy.FaultClient
	}

	// Server faults and network failures are retried.
	return true
}

// Close marks the sink as closed and prevents further publishing.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.logger.Info("SNS event sink closed")
	}
	return nil
}
