// Package health checks that backing services are reachable before a process starts work.
package health

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

const checkTimeout = 3 * time.Second

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Checker pings a set of named dependencies.
type Checker struct {
	deps map[string]Pinger
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{deps: make(map[string]Pinger)}
}

// Add registers p under name. A nil p is ignored.
func (c *Checker) Add(name string, p Pinger) {
	if p == nil {
		return
	}
	c.deps[name] = p
}

// Check pings every dependency in name order, each bounded by its own timeout, and joins
// the failures. No dependencies means healthy.
func (c *Checker) Check(ctx context.Context) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(c.deps)) {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.deps[name].PingContext(pingCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
