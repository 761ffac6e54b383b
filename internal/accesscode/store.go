// Package accesscode keeps plain access codes by phone for dev-mode retrieval
// (OTP_RETURN_TO_CLIENT). Never enabled in production.
package accesscode

import (
	"context"
	"sync"
	"time"
)

// Store holds plain access codes keyed by phone.
type Store interface {
	// Put stores code for phone until expiresAt, replacing any previous code.
	Put(ctx context.Context, phone, code string, expiresAt time.Time) error
	// Get returns the code for phone. ok is false if missing or expired.
	Get(ctx context.Context, phone string) (code string, ok bool, err error)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{code: code, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, phone string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		if cur, ok := s.m[phone]; ok && cur == e {
			delete(s.m, phone)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.code, true, nil
}
