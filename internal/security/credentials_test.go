package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEngine_GenerateAccessCode(t *testing.T) {
	e := NewEngine(nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := e.GenerateAccessCode()
		if err != nil {
			t.Fatalf("GenerateAccessCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code length = %d, want 6", len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(accessCodeAlphabet, c) {
				t.Errorf("code %q contains %q outside alphabet", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 95 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestEngine_GenerateSalt(t *testing.T) {
	e := NewEngine(nil)
	s1, err := e.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	s2, _ := e.GenerateSalt()
	if len(s1) != 32 {
		t.Errorf("salt length = %d, want 32", len(s1))
	}
	if s1 == s2 {
		t.Error("two salts are equal")
	}
}

func TestEngine_RandomSourceFailure(t *testing.T) {
	e := NewEngineWithRand(nil, bytes.NewReader(nil))
	if _, err := e.GenerateSalt(); err == nil {
		t.Error("GenerateSalt should fail on exhausted reader")
	}
	if _, err := e.GenerateAccessCode(); err == nil {
		t.Error("GenerateAccessCode should fail on exhausted reader")
	}
	if _, _, err := e.Reset("salt"); err == nil {
		t.Error("Reset should fail on exhausted reader")
	}
}

func TestEngine_VerifyRoundTrip(t *testing.T) {
	for _, d := range []Digest{MD5Digest{}, Argon2Digest{Time: 1, Memory: 8 * 1024, Threads: 1}} {
		t.Run(d.Name(), func(t *testing.T) {
			e := NewEngine(d)
			salt, _ := e.GenerateSalt()
			hash := e.Derive(salt, "secret123")
			if !e.Verify(salt, hash, "secret123") {
				t.Error("Verify should accept the derived secret")
			}
			if e.Verify(salt, hash, "wrong") {
				t.Error("Verify should reject a different secret")
			}
		})
	}
}

func TestEngine_Rotate(t *testing.T) {
	e := NewEngine(nil)
	hash := e.Derive("s", "old")

	got, err := e.Rotate("old", "new", "s", hash)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !e.Verify("s", got, "new") {
		t.Error("new secret should verify after Rotate")
	}

	if _, err := e.Rotate("wrong", "new", "s", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Rotate with wrong old secret err = %v, want ErrPasswordMismatch", err)
	}
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine(nil)
	code, hash, err := e.Reset("s")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	if !e.Verify("s", hash, code) {
		t.Error("reset code should verify")
	}
}
