package health

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
	called  bool
}

func (m *mockPinger) PingContext(context.Context) error {
	m.called = true
	return m.pingErr
}

func TestCheck_NoDependencies(t *testing.T) {
	if err := NewChecker().Check(context.Background()); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestCheck_AllHealthy(t *testing.T) {
	c := NewChecker()
	db, cache := &mockPinger{}, &mockPinger{}
	c.Add("postgres", db)
	c.Add("redis", cache)
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !db.called || !cache.called {
		t.Error("every dependency should be pinged")
	}
}

func TestCheck_Failure(t *testing.T) {
	refused := errors.New("connection refused")
	c := NewChecker()
	c.Add("postgres", &mockPinger{pingErr: refused})
	c.Add("redis", PingFunc(func(context.Context) error { return nil }))
	c.Add("rabbitmq", nil)

	err := c.Check(context.Background())
	if !errors.Is(err, refused) {
		t.Fatalf("err = %v, want connection refused", err)
	}
	if !strings.HasPrefix(err.Error(), "postgres: ") {
		t.Errorf("err = %q, want dependency name prefix", err)
	}
}
