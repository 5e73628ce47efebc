package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/fxdesk/mt5-gateway/internal/pkg/retry"
	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// mockSNSClient implements SNSPublisher for testing.
type mockSNSClient struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{
		MessageId: aws.String("test-message-id"),
	}, nil
}

const testTopicARN = "arn:aws:sns:us-east-1:123456789:mt5-trades"

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func testEvent() outbound.TradeEvent {
	return outbound.TradeEvent{
		TradeID:    "7b0c6c55-2f43-4a43-8f1e-3c1c2b9f1a10",
		Account:    "1001",
		Server:     "Demo",
		Symbol:     "XAUUSD",
		Direction:  "BUY",
		Volume:     "0.1",
		Status:     "succeeded",
		OccurredAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewEventSink_RequiresClient(t *testing.T) {
	_, err := NewEventSink(nil, Config{TopicARN: testTopicARN})
	if err == nil || err.Error() != "sns client is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewEventSink_RequiresTopicARN(t *testing.T) {
	_, err := NewEventSink(&mockSNSClient{}, Config{})
	if err == nil || err.Error() != "topic ARN is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewEventSink_AppliesDefaults(t *testing.T) {
	sink, err := NewEventSink(&mockSNSClient{}, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.config.Retry != retry.DefaultConfig() {
		t.Errorf("retry config = %+v, want defaults", sink.config.Retry)
	}
	if sink.logger == nil {
		t.Error("expected logger to be set")
	}
}

func TestPublish_SendsMessageAndAttributes(t *testing.T) {
	client := &mockSNSClient{}
	sink, err := NewEventSink(client, Config{TopicARN: testTopicARN, Retry: fastRetry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(client.calls))
	}

	input := client.calls[0]
	if aws.ToString(input.TopicArn) != testTopicARN {
		t.Errorf("topic = %s", aws.ToString(input.TopicArn))
	}

	var decoded outbound.TradeEvent
	if err := json.Unmarshal([]byte(aws.ToString(input.Message)), &decoded); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	want := testEvent()
	if decoded.TradeID != want.TradeID || decoded.Volume != want.Volume || !decoded.OccurredAt.Equal(want.OccurredAt) {
		t.Errorf("decoded = %+v", decoded)
	}

	attrs := map[string]string{"eventType": "trade", "symbol": "XAUUSD", "status": "succeeded"}
	for name, value := range attrs {
		attr, ok := input.MessageAttributes[name]
		if !ok {
			t.Errorf("missing attribute %s", name)
			continue
		}
		if aws.ToString(attr.StringValue) != value {
			t.Errorf("attribute %s = %s, want %s", name, aws.ToString(attr.StringValue), value)
		}
	}
}

func TestPublish_RetriesThrottling(t *testing.T) {
	attempts := 0
	client := &mockSNSClient{
		publishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			attempts++
			if attempts < 3 {
				return nil, &types.ThrottledException{Message: aws.String("slow down")}
			}
			return &sns.PublishOutput{MessageId: aws.String("ok")}, nil
		},
	}
	sink, _ := NewEventSink(client, Config{TopicARN: testTopicARN, Retry: fastRetry()})

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestPublish_DoesNotRetryInvalidParameter(t *testing.T) {
	client := &mockSNSClient{
		publishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, &types.InvalidParameterException{Message: aws.String("bad topic")}
		},
	}
	sink, _ := NewEventSink(client, Config{TopicARN: testTopicARN, Retry: fastRetry()})

	err := sink.Publish(context.Background(), testEvent())
	var invalid *types.InvalidParameterException
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidParameterException", err)
	}
	if len(client.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(client.calls))
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "throttled", err: &types.ThrottledException{}, want: true},
		{name: "internal", err: &types.InternalErrorException{}, want: true},
		{name: "invalid parameter", err: &types.InvalidParameterException{}, want: false},
		{name: "not found", err: &types.NotFoundException{}, want: false},
		{name: "generic throttling", err: &smithy.GenericAPIError{Code: "Throttling", Fault: smithy.FaultClient}, want: true},
		{name: "generic client fault", err: &smithy.GenericAPIError{Code: "InvalidClientTokenId", Fault: smithy.FaultClient}, want: false},
		{name: "generic server fault", err: &smithy.GenericAPIError{Code: "ServiceUnavailable", Fault: smithy.FaultServer}, want: true},
		{name: "unknown fault", err: &smithy.GenericAPIError{Code: "Weird"}, want: true},
		{name: "wrapped client fault", err: fmt.Errorf("publish: %w", &smithy.GenericAPIError{Code: "KMSDisabled", Fault: smithy.FaultClient}), want: false},
		{name: "network", err: errors.New("connection reset"), want: true},
		{name: "canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	client := &mockSNSClient{
		publishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("connection reset")
		},
	}
	sink, _ := NewEventSink(client, Config{TopicARN: testTopicARN, Retry: fastRetry()})

	if err := sink.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error")
	}
	if len(client.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(client.calls))
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client := &mockSNSClient{}
	sink, _ := NewEventSink(client, Config{TopicARN: testTopicARN})

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := sink.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error publishing to closed sink")
	}
	if len(client.calls) != 0 {
		t.Errorf("closed sink called SNS %d times", len(client.calls))
	}
}
