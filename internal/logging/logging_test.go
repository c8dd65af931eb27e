package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Info().Str("owner", "alice").Msg("imported")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var event map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if event["owner"] != "alice" || event["message"] != "imported" || event["level"] != "info" {
		t.Errorf("event = %v", event)
	}
}

func TestNew_Human(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug().Msg("details")
	if !strings.Contains(buf.String(), "details") || strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestNew_DefaultAndInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Errorf("default level logged info: %q", buf.String())
	}

	if _, err := New(&buf, "loud", false); err == nil {
		t.Error("New() expected error for unknown level")
	}
}
