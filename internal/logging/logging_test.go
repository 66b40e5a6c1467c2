package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"critical", slog.LevelError},
		{"CRITICAL", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	L("testcomp").Info("hello", "k", "v")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Fatalf("msg = %v, want hello", entry["msg"])
	}
	if entry[KeyComponent] != "testcomp" {
		t.Fatalf("component = %v, want testcomp", entry[KeyComponent])
	}
}

func TestInitLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "error", &buf)
	defer Init("text", "info", nil)

	log := L("quiet")
	log.Debug("dropped")
	log.Info("dropped too")
	log.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("sub-error output should have been filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("error output missing: %q", out)
	}
}

func TestWithHostTagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	log := WithHost(L("sched"), "web01.example.net")
	log.Info("cycle")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry[KeyHost] != "web01.example.net" {
		t.Fatalf("host = %v, want web01.example.net", entry[KeyHost])
	}
	if entry[KeyComponent] != "sched" {
		t.Fatalf("component = %v, want sched", entry[KeyComponent])
	}
}

func TestPackageLoggerPicksUpInit(t *testing.T) {
	// Loggers created before Init must route through the handler
	// configured afterwards.
	early := L("early")

	var buf bytes.Buffer
	Init("text", "info", &buf)
	defer Init("text", "info", nil)

	early.Info("after init")
	if !strings.Contains(buf.String(), "after init") {
		t.Fatalf("pre-Init logger did not switch handler: %q", buf.String())
	}
}
