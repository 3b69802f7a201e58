package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "app.log")

		logger, err := NewLogger(true, logPath)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.Info("startup", zap.String("component", "test"))
		if err := logger.Sync(); err != nil {
			t.Logf("sync: %v", err)
		}

		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if !strings.Contains(string(data), "startup") {
			t.Errorf("log file missing entry, got: %s", data)
		}
	})

	t.Run("file output is JSON", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "app.log")

		logger, err := NewLogger(false, logPath)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		logger.Info("json entry")
		logger.Sync()

		data, _ := os.ReadFile(logPath)
		if !strings.Contains(string(data), `"message":"json entry"`) {
			t.Errorf("expected JSON-encoded entry, got: %s", data)
		}
	})

	t.Run("sync on nil logger is safe", func(t *testing.T) {
		var logger *Logger
		if err := logger.Sync(); err != nil {
			t.Errorf("nil Sync returned error: %v", err)
		}
	})
}

func TestLoggerRedaction(t *testing.T) {
	t.Run("sensitive field name", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "app.log")
		logger, err := NewLogger(false, logPath)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.Info("config loaded", zap.String("OPENROUTER_API_KEY", "sk-or-v1-abcdef0123456789abcdef"))
		logger.Sync()

		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "abcdef0123456789") {
			t.Error("API key leaked into log file")
		}
		if !strings.Contains(string(data), RedactedPlaceholder) {
			t.Error("expected redaction placeholder in log output")
		}
	})

	t.Run("key pattern inside value", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "app.log")
		logger, err := NewLogger(false, logPath)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.Error("request failed", zap.String("detail", "auth header was sk-proj-0123456789abcdefghijklmn"))
		logger.Sync()

		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "sk-proj-0123456789") {
			t.Error("embedded key leaked into log file")
		}
	})
}

func TestNamedAndWith(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(false, logPath)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.Named("pipeline").With(zap.String("batch_id", "b-123"))
	child.Info("worker started")
	logger.Sync()

	data, _ := os.ReadFile(logPath)
	out := string(data)
	if !strings.Contains(out, "pipeline") {
		t.Error("named logger missing component name")
	}
	if !strings.Contains(out, "b-123") {
		t.Error("child logger missing bound field")
	}
}
