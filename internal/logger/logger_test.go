package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_ValidInputs(t *testing.T) {
	cases := []struct {
		level  string
		format string
	}{
		{"info", "json"},
		{"debug", "text"},
		{"warn", "json"},
		{"error", "text"},
		{"INFO", "JSON"},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		l, err := New(c.level, c.format, &buf)
		if err != nil {
			t.Errorf("expected no error for level=%q format=%q, got %v", c.level, c.format, err)
		}
		if l == nil {
			t.Errorf("expected logger for level=%q format=%q, got nil", c.level, c.format)
		}
	}
}

func TestNewLogger_EmptyStrings(t *testing.T) {
	_, err := New("", "json", nil)
	if err == nil {
		t.Error("expected error for empty logLevel, got nil")
	}
	_, err = New("info", "", nil)
	if err == nil {
		t.Error("expected error for empty logFormat, got nil")
	}
	_, err = New("", "", nil)
	if err == nil {
		t.Error("expected error for both logLevel and logFormat empty, got nil")
	}
}

func TestNewLogger_InvalidValues(t *testing.T) {
	_, err := New("foo", "json", nil)
	if err == nil {
		t.Error("expected error for invalid logLevel, got nil")
	}
	_, err = New("info", "bar", nil)
	if err == nil {
		t.Error("expected error for invalid logFormat, got nil")
	}
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("hidden")
	l.Warn("catalog refresh failed", "resource", "ios_main")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at warn level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
	if entry["resource"] != "ios_main" {
		t.Errorf("expected resource attribute, got %v", entry["resource"])
	}
}
