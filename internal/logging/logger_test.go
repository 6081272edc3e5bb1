package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veld/internal/config"
	"veld/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "yaml"})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleFormatWritesSingleLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("worker started", logging.String(logging.FieldComponent, "maintenance"), logging.Int("sources", 4))
	logger.Debug("suppressed at info level")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), content)
	}
	line := lines[0]
	if !strings.Contains(line, "INF worker started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "component=maintenance") || !strings.Contains(line, "sources=4") {
		t.Fatalf("attributes missing from line: %q", line)
	}
}

func TestJSONFormatUsesCompactKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "veld.json")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("sensor tripped", logging.String(logging.FieldSensor, "heap-usage"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, content)
	}
	if entry["msg"] != "sensor tripped" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("missing ts key")
	}
	if entry[logging.FieldSensor] != "heap-usage" {
		t.Fatalf("sensor = %v", entry[logging.FieldSensor])
	}
}

func TestNewFromConfigMirrorsToLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from the daemon")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "veld.log"))
	if err != nil {
		t.Fatalf("read mirrored log: %v", err)
	}
	if !strings.Contains(string(content), "hello from the daemon") {
		t.Fatalf("mirrored log missing message: %q", content)
	}
}

func TestComponentLoggerCarriesComponentField(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")
	base, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(base, "gc-notifier").Info("drained")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry[logging.FieldComponent] != "gc-notifier" {
		t.Fatalf("component = %v", entry[logging.FieldComponent])
	}
}

func TestNewNopDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("this must go nowhere", logging.Error(nil))

	child := logging.NewComponentLogger(nil, "orphan")
	child.Info("also nowhere")
}
