package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewConsoleRendersSingleLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logger.Warn("worker skipped",
		String(FieldWorker, "pngout"),
		String("reason", "binary not found"))

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	for _, want := range []string{"WARN", "worker skipped", "worker=pngout", `reason="binary not found"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info must be suppressed at warn level: %q", buf.String())
	}
	logger.Error("loud", Error(nil))
	if !strings.Contains(buf.String(), "ERROR") {
		t.Fatalf("error line missing: %q", buf.String())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hello", Int("n", 3))
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("json output missing message: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("into the void")
}
