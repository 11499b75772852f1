package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"":        LevelInfo,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewJSONRespectsLevelAndService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, JSON: true, Service: "indexer"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "file", "pkg/a.py")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["service"] != "indexer" || record["file"] != "pkg/a.py" {
		t.Fatalf("unexpected record: %#v", record)
	}
}

func TestQuietDiscards(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Quiet: true}, &buf).Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected quiet logger to write nothing, got %q", buf.String())
	}
}
