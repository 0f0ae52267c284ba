package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "info", "json")
	log.With("news_id", "k10012345").Info("article inserted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if entry["msg"] != "article inserted" || entry["news_id"] != "k10012345" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warn level: %q", out)
	}

	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}

	log.SetLevel("debug")
	log.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the threshold")
	}
}

func TestNew_TintFormat(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, "info", "tint").Info("authenticated")

	if !strings.Contains(buf.String(), "authenticated") {
		t.Errorf("tint handler produced %q", buf.String())
	}
}
