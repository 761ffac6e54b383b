package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "enroll", "production", "")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
	logger.WithField("login", "a@b.c").Info("user created")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "user created" || entry["login"] != "a@b.c" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "enroll", "development", "")
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("formatter = %T, want TextFormatter", logger.Formatter)
	}
	if !strings.Contains(buf.String(), "logger initialized") {
		t.Errorf("missing init line: %q", buf.String())
	}
}

func TestNew_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	if got := NewWithOutput(&buf, "enroll", "production", "warn").GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
	if got := NewWithOutput(&buf, "enroll", "production", "loud").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("invalid level should keep info, got %v", got)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+79121234567"); got != "****4567" {
		t.Errorf("MaskPhone = %q", got)
	}
	if got := MaskPhone("123"); got != "****" {
		t.Errorf("MaskPhone short = %q", got)
	}
}
