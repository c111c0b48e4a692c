package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatalf("zero Logger should report IsZero")
	}
	l.Info("ignored", String("k", "v"))
}

func TestJSONFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, "info").With(String("room", "RoomA"))

	l.Debug("hidden")
	l.Warn("visible", Int("n", 2), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["room"] != "RoomA" || m["message"] != "visible" || m["n"] != float64(2) {
		t.Fatalf("unexpected fields: %v", m)
	}
	if _, ok := m["caller"]; !ok {
		t.Fatalf("caller missing: %v", m)
	}
}

func TestServiceApplyFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rc.log")
	svc, log := New(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	log.Debug("first")
	svc.Apply(Config{Level: "error", File: FileConfig{Enabled: true, Path: path}})
	log.Info("dropped")
	log.Error("second")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "first") || !strings.Contains(s, "second") || strings.Contains(s, "dropped") {
		t.Fatalf("unexpected log file content: %s", s)
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", " warn "} {
		if !ValidLevel(s) {
			t.Fatalf("ValidLevel(%q) = false", s)
		}
	}
	if ValidLevel("loud") {
		t.Fatalf("ValidLevel(loud) = true")
	}
}
