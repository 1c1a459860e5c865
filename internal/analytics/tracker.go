package analytics

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/metrics"
)

// Event is the message published for a tracked event.
type Event struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	TrackedAt string          `json:"trackedAt"`
}

// Tracker logs, counts and publishes dashboard events.
type Tracker struct {
	publisher adforge.Publisher
	topic     string
	clock     adforge.Clock
	logger    *zap.Logger
}

// NewTracker constructs a Tracker. publisher may be nil, in which case events
// are only logged and counted.
func NewTracker(publisher adforge.Publisher, topic string, clock adforge.Clock, logger *zap.Logger) *Tracker {
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{publisher: publisher, topic: topic, clock: clock, logger: logger.Named("analytics")}
}

// Track records an event. A publish failure is logged and does not fail the
// call.
func (t *Tracker) Track(ctx context.Context, event string, data json.RawMessage) {
	label := event
	if label == "" {
		label = "unknown"
	}
	metrics.ObserveAnalyticsEvent(label)
	t.logger.Info("analytics event", zap.String("event", event), zap.ByteString("data", data))

	if t.publisher == nil || t.topic == "" {
		return
	}
	msg := Event{Event: event, Data: data, TrackedAt: system.Timestamp(t.clock.Now())}
	if _, err := t.publisher.Publish(ctx, t.topic, msg); err != nil {
		t.logger.Warn("publish analytics event", zap.String("event", event), zap.Error(err))
	}
}
