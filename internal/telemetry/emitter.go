// Package telemetry records user lifecycle events. Emission is best-effort.
package telemetry

import (
	"context"
	"time"
)

// Event types.
const (
	EventUserEnrolled    = "user.enrolled"
	EventUserImported    = "user.imported"
	EventPasswordChanged = "user.password_changed"
	EventPasswordReset   = "user.password_reset"
	EventAuthFailed      = "user.auth_failed"
)

// Event is a user lifecycle event. It must never carry secrets or access codes.
type Event struct {
	Type      string
	UserID    string
	Login     string
	Source    string
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, *Event) error { return nil }
