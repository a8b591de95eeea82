package utils_test

import (
	"bytes"
	"strings"
	"testing"

	"todolist/utils"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := utils.NewLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "task_id", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"task_id":"abc"`) {
		t.Errorf("missing structured field: %s", out)
	}
}

func TestNewLoggerRejectsBadInput(t *testing.T) {
	if _, err := utils.NewLogger(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("NewLogger() accepted an unknown level")
	}
	if _, err := utils.NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("NewLogger() accepted an unknown format")
	}
}
