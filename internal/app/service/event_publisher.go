package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/QuotaLink/internal/app/model"
)

// EventPublisher delivers link lifecycle events. Failures are logged by
// callers and never change the outcome of the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event model.LinkEvent) error
}

// NATSPublisher publishes link events to NATS JetStream
type NATSPublisher struct {
	js nats.JetStreamContext
}

// NewNATSPublisher creates a new link event publisher
func NewNATSPublisher(js nats.JetStreamContext) *NATSPublisher {
	return &NATSPublisher{js: js}
}

// Publish stamps the event and publishes it on its type subject
func (p *NATSPublisher) Publish(ctx context.Context, event model.LinkEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(event.Subject(), data, nats.Context(ctx))
	return err
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.LinkEvent) error { return nil }

// MetricsRecorder counts link activity.
type MetricsRecorder interface {
	LinkCreated()
	OpenResolved(outcome string)
	LinksPurged(n int64)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) LinkCreated()        {}
func (NopMetrics) OpenResolved(string) {}
func (NopMetrics) LinksPurged(int64)   {}
