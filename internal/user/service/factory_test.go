package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"user-enrollment/backend/internal/security"
	"user-enrollment/backend/internal/user/domain"
)

type sent struct{ phone, code string }

// recordingNotifier collects deliveries and signals each one on ch.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []sent
	err   error
	ch    chan sent
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{err: err, ch: make(chan sent, 16)}
}

func (r *recordingNotifier) Notify(_ context.Context, phone, code string) error {
	r.mu.Lock()
	r.calls = append(r.calls, sent{phone, code})
	r.mu.Unlock()
	r.ch <- sent{phone, code}
	return r.err
}

func (r *recordingNotifier) next(t *testing.T) sent {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return sent{}
	}
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func newTestFactory(n *recordingNotifier) *Factory {
	log, _ := newTestLogger()
	if n == nil {
		return NewFactory(security.NewEngine(security.MD5Digest{}), nil, log)
	}
	return NewFactory(security.NewEngine(security.MD5Digest{}), n, log)
}

func TestMakeUser_Phone(t *testing.T) {
	n := newRecordingNotifier(nil)
	f := newTestFactory(n)

	u, err := f.MakeUser("John Doe", "", "", "+7 (912) 123-45-67")
	if err != nil {
		t.Fatalf("MakeUser: %v", err)
	}
	if u.Phone() != "+79121234567" || len(u.Phone()) != 12 {
		t.Errorf("Phone = %q", u.Phone())
	}
	if u.Login() != "+79121234567" {
		t.Errorf("Login = %q", u.Login())
	}
	if m := u.Meta(); len(m) != 1 || m[domain.MetaAuth] != domain.AuthSMS {
		t.Errorf("Meta = %v", m)
	}
	if u.FirstName() != "John" || u.LastName() != "Doe" {
		t.Errorf("name = %q %q", u.FirstName(), u.LastName())
	}

	got := n.next(t)
	if got.phone != "+79121234567" || got.code != u.AccessCode() {
		t.Errorf("notified %+v, want phone %q code %q", got, u.Phone(), u.AccessCode())
	}
	if !u.CheckPassword(got.code) {
		t.Error("delivered code should verify as the password")
	}
}

func TestMakeUser_NotifierFailureDoesNotFailEnrollment(t *testing.T) {
	n := newRecordingNotifier(errors.New("gateway down"))
	log, hook := newTestLogger()
	f := NewFactory(security.NewEngine(nil), n, log)

	u, err := f.MakeUser("John", "", "", "+79121234567")
	if err != nil || u == nil {
		t.Fatalf("MakeUser = (%v, %v)", u, err)
	}
	n.next(t)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel {
				if e.Data["phone"] != "****4567" {
					t.Errorf("phone field = %v, want masked", e.Data["phone"])
				}
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected a warning for the failed delivery")
}

func TestMakeUser_Password(t *testing.T) {
	n := newRecordingNotifier(nil)
	f := newTestFactory(n)

	u, err := f.MakeUser("ann", "Ann@Example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("MakeUser: %v", err)
	}
	if u.Login() != "ann@example.com" {
		t.Errorf("Login = %q", u.Login())
	}
	if u.Meta()[domain.MetaAuth] != domain.AuthPassword {
		t.Errorf("Meta = %v", u.Meta())
	}
	if !u.CheckPassword("s3cret") {
		t.Error("password should verify")
	}
	if u.FullName() != "Ann" || u.Initials() != "A" {
		t.Errorf("FullName %q Initials %q", u.FullName(), u.Initials())
	}
	time.Sleep(20 * time.Millisecond)
	if n.count() != 0 {
		t.Errorf("password enrollment sent %d notifications", n.count())
	}
}

func TestMakeUser_Invalid(t *testing.T) {
	tests := []struct {
		name                             string
		fullName, email, password, phone string
	}{
		{"no identifiers", "John Doe", "", "", ""},
		{"email without password", "Ann", "a@b.com", "", ""},
		{"blank password", "Ann", "a@b.com", "   ", ""},
		{"email and phone", "Ann", "a@b.com", "pw", "+79121234567"},
		{"three name parts", "John Ronald Tolkien", "a@b.com", "pw", ""},
		{"blank name", "  ", "a@b.com", "pw", ""},
		{"phone without digits", "John", "", "", "call me"},
	}
	f := newTestFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.MakeUser(tt.fullName, tt.email, tt.password, tt.phone)
			if u != nil {
				t.Errorf("user = %v, want nil", u)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestMakeImportUser(t *testing.T) {
	f := newTestFactory(nil)

	u, err := f.MakeImportUser("Jane Smith", "", "abcdsalt:0123456789abcdef0123456789abcdef", "")
	if err != nil {
		t.Fatalf("MakeImportUser: %v", err)
	}
	if u.Salt() != "abcdsalt" {
		t.Errorf("Salt = %q", u.Salt())
	}
	if u.PasswordHash() != "0123456789abcdef0123456789abcdef" {
		t.Errorf("PasswordHash = %q", u.PasswordHash())
	}
	if m := u.Meta(); len(m) != 1 || m[domain.MetaSource] != domain.SourceCSV {
		t.Errorf("Meta = %v", m)
	}
	if u.Login() != "" {
		t.Errorf("Login = %q, want empty", u.Login())
	}

	u, err = f.MakeImportUser("Jane Smith", "Jane@X.io", "s:h", "+7 912 123 45 67")
	if err != nil {
		t.Fatalf("MakeImportUser: %v", err)
	}
	if u.Login() != "jane@x.io" || u.Phone() != "+79121234567" {
		t.Errorf("login %q phone %q", u.Login(), u.Phone())
	}

	// Imported hashes verify with the configured digest.
	engine := security.NewEngine(security.MD5Digest{})
	hash := engine.Derive("pepper", "hunter2")
	u, err = f.MakeImportUser("Bob", "bob@x.io", "pepper:"+hash, "")
	if err != nil {
		t.Fatal(err)
	}
	if !u.CheckPassword("hunter2") {
		t.Error("imported credentials should verify")
	}
}

func TestMakeImportUser_Skip(t *testing.T) {
	f := newTestFactory(nil)
	for _, tt := range []struct{ fullName, access string }{
		{"", "a:b"},
		{"  ", "a:b"},
		{"Jane", ""},
	} {
		u, err := f.MakeImportUser(tt.fullName, "j@x.io", tt.access, "")
		if u != nil || err != nil {
			t.Errorf("MakeImportUser(%q, %q) = (%v, %v), want (nil, nil)", tt.fullName, tt.access, u, err)
		}
	}
}

func TestMakeImportUser_BadAccess(t *testing.T) {
	f := newTestFactory(nil)
	for _, access := range []string{"nocolon", "a:b:c", "salt:"} {
		_, err := f.MakeImportUser("Jane", "j@x.io", access, "")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("access %q: err = %v, want ValidationError", access, err)
			continue
		}
		if verr.Field != "access" {
			t.Errorf("access %q: Field = %q", access, verr.Field)
		}
	}
}
