// Package notify delivers access codes to phones.
package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/logging"
)

// DefaultTimeout bounds a single asynchronous delivery.
const DefaultTimeout = 5 * time.Second

// Notifier delivers code to phone. Implementations must not log the code.
type Notifier interface {
	Notify(ctx context.Context, phone, code string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, phone, code string) error

func (f Func) Notify(ctx context.Context, phone, code string) error { return f(ctx, phone, code) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, string, string) error { return nil })

// Async hands deliveries to next in a goroutine and returns immediately. Failures are logged.
// The delivery context keeps the caller's values but not its cancellation.
type Async struct {
	next    Notifier
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewAsync wraps next. A non-positive timeout selects DefaultTimeout.
func NewAsync(next Notifier, timeout time.Duration, log logrus.FieldLogger) *Async {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Async{next: next, timeout: timeout, log: log}
}

// Notify never returns an error.
func (a *Async) Notify(ctx context.Context, phone, code string) error {
	if a.next == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Notify(sendCtx, phone, code); err != nil {
			a.log.WithError(err).WithField("phone", logging.MaskPhone(phone)).Warn("notify: async delivery failed")
		}
	}()
	return nil
}

// Multi delivers through every notifier in order and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, phone, code string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, phone, code); err != nil && first == nil {
			first = err
		}
	}
	return first
}
