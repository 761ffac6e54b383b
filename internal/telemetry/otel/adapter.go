package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"user-enrollment/backend/internal/telemetry"
)

const scope = "user-enrollment/telemetry"

// recordEmitter is the subset of otellog.Logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter writing events as OTel log records through lp and
// counting them on mp as user.events{event_type}. Either provider may be nil.
func NewEventEmitter(lp *sdklog.LoggerProvider, mp otelmetric.MeterProvider) (telemetry.EventEmitter, error) {
	var logger recordEmitter
	if lp != nil {
		logger = lp.Logger(scope)
	}
	return newEmitter(logger, mp)
}

// NewEventEmitterWithLogger is NewEventEmitter with an explicit record sink, for tests.
func NewEventEmitterWithLogger(logger recordEmitter, mp otelmetric.MeterProvider) (telemetry.EventEmitter, error) {
	return newEmitter(logger, mp)
}

func newEmitter(logger recordEmitter, mp otelmetric.MeterProvider) (telemetry.EventEmitter, error) {
	if logger == nil && mp == nil {
		return telemetry.Nop{}, nil
	}
	e := &otelEmitter{logger: logger}
	if mp != nil {
		c, err := mp.Meter(scope).Int64Counter("user.events",
			otelmetric.WithDescription("User lifecycle events by type"))
		if err != nil {
			return nil, err
		}
		e.counter = c
	}
	return e, nil
}

type otelEmitter struct {
	logger  recordEmitter
	counter otelmetric.Int64Counter
}

// Emit converts event to a log record, emits it and bumps the event counter.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	if e.counter != nil {
		e.counter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("event_type", event.Type)))
	}
	if e.logger == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(event.Type))
	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Login != "" {
		rec.AddAttributes(otellog.String("login", event.Login))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
