package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSMSLocalClient_Defaults(t *testing.T) {
	client := NewSMSLocalClient("api-key", "", "")
	if client.APIKey != "api-key" {
		t.Errorf("APIKey = %q, want %q", client.APIKey, "api-key")
	}
	if client.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want default", client.BaseURL)
	}
	if client.HTTPClient == nil {
		t.Fatal("HTTPClient should be set")
	}
	if client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("HTTPClient.Timeout = %v, want %v", client.HTTPClient.Timeout, defaultTimeout)
	}
}

func TestNewSMSLocalClient_Custom(t *testing.T) {
	client := NewSMSLocalClient("api-key", "https://custom.sms.local/api", "ACME")
	if client.BaseURL != "https://custom.sms.local/api" {
		t.Errorf("BaseURL = %q", client.BaseURL)
	}
	if client.Sender != "ACME" {
		t.Errorf("Sender = %q", client.Sender)
	}
}

func TestNotify_Success(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewSMSLocalClient("test-api-key", server.URL, "ACME")
	if err := client.Notify(context.Background(), "+79121234567", "aB3xY9"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if body["route"] != "otp" {
		t.Errorf("route = %v, want otp", body["route"])
	}
	if body["numbers"] != "79121234567" {
		t.Errorf("numbers = %v, want 79121234567", body["numbers"])
	}
	if body["variables"] != "aB3xY9" {
		t.Errorf("variables = %v, want aB3xY9", body["variables"])
	}
	if body["sender_id"] != "ACME" {
		t.Errorf("sender_id = %v, want ACME", body["sender_id"])
	}
}

func TestNotify_MissingAPIKey(t *testing.T) {
	client := NewSMSLocalClient("", "", "")
	err := client.Notify(context.Background(), "+79121234567", "aB3xY9")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestNotify_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	client := NewSMSLocalClient("api-key", server.URL, "")
	client.HTTPClient = &http.Client{Timeout: time.Second}
	if err := client.Notify(context.Background(), "+79121234567", "aB3xY9"); err == nil {
		t.Fatal("expected error for HTTP failure")
	}
}

func TestNotify_Non200Status(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "status=400"},
		{http.StatusInternalServerError, "status=500"},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":"invalid request"}`))
		}))
		client := NewSMSLocalClient("api-key", server.URL, "")
		err := client.Notify(context.Background(), "+79121234567", "aB3xY9")
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if !strings.Contains(err.Error(), tt.want) || !strings.Contains(err.Error(), "invalid request") {
			t.Errorf("error = %q, want %q and body", err.Error(), tt.want)
		}
		if strings.Contains(err.Error(), "aB3xY9") {
			t.Error("error leaks the access code")
		}
	}
}

func TestNotify_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewSMSLocalClient("api-key", server.URL, "")
	if err := client.Notify(ctx, "+79121234567", "aB3xY9"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
