// eventsink.go provides an in-memory implementation of EventSink.
//
// Published events are kept for inspection. It is the default sink when no
// SNS topic is configured, and the sink used by service tests.
package memory

import (
	"context"
	"sync"

	"github.com/fxdesk/mt5-gateway/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.EventSink
var _ outbound.EventSink = (*EventSink)(nil)

// EventSink stores all published events for later inspection.
type EventSink struct {
	mu     sync.RWMutex
	events []outbound.TradeEvent
	closed bool
	max    int
}

// NewEventSink creates an in-memory sink that keeps at most max events,
// dropping the oldest. max <= 0 keeps everything.
func NewEventSink(max int) *EventSink {
	return &EventSink{max: max}
}

// Publish stores the event in memory.
func (s *EventSink) Publish(_ context.Context, event outbound.TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.events = append(s.events, event)
	if s.max > 0 && len(s.events) > s.max {
		s.events = s.events[len(s.events)-s.max:]
	}
	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Events returns a copy of all published events, oldest first.
func (s *EventSink) Events() []outbound.TradeEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.TradeEvent, len(s.events))
	copy(result, s.events)
	return result
}
