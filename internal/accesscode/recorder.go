package accesscode

import (
	"context"
	"errors"
	"time"
)

// Recorder is a notify.Notifier that stores codes instead of sending them.
type Recorder struct {
	store Store
	ttl   time.Duration
}

// NewRecorder returns a Recorder keeping codes in store for ttl.
func NewRecorder(store Store, ttl time.Duration) *Recorder {
	return &Recorder{store: store, ttl: ttl}
}

func (r *Recorder) Notify(ctx context.Context, phone, code string) error {
	return r.store.Put(ctx, phone, code, time.Now().UTC().Add(r.ttl))
}

// ErrNotFound is returned by Await when no code arrives before ctx is done.
var ErrNotFound = errors.New("accesscode: no code recorded")

const awaitInterval = 20 * time.Millisecond

// Await polls store until a code for phone is present. Deliveries are asynchronous, so a code
// may land shortly after the enrollment that produced it.
func Await(ctx context.Context, store Store, phone string) (string, error) {
	ticker := time.NewTicker(awaitInterval)
	defer ticker.Stop()
	for {
		code, ok, err := store.Get(ctx, phone)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
		select {
		case <-ctx.Done():
			return "", ErrNotFound
		case <-ticker.C:
		}
	}
}
