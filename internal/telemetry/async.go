package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// emitTimeout bounds a single async emit. ShutdownDrainDuration uses it too.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait before shutting down OTel providers so in-flight
// async emits can finish.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the caller is not blocked; errors are logged to log.
// A nil emitter or event returns immediately. Cancellation of ctx does not abort the emit.
func EmitAsync(emitter EventEmitter, log logrus.FieldLogger, ctx context.Context, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil && log != nil {
			log.WithError(err).WithField("event_type", event.Type).Warn("telemetry: async emit failed")
		}
	}()
}
