package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithConsoleAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	WithConsole(ctx, "con-1").Info("hello")

	entry := capture.firstEntry(t)
	if entry["console"] != "con-1" {
		t.Fatalf("expected console field, got %+v", entry)
	}
}

func TestWithConsoleSkipsDuplicateField(t *testing.T) {
	capture := &logCapture{}
	ctx := context.Background()
	log := WithConsole(pslog.ContextWithLogger(ctx, newCaptureLogger(capture)), "con-1")
	ctx = ContextWithConsoleLogger(ctx, log, "con-1")

	WithConsole(ctx, "con-1").Info("hello")
	line := capture.buf.String()
	if n := bytes.Count([]byte(line), []byte(`"console"`)); n != 1 {
		t.Fatalf("expected one console field, got %d in %s", n, line)
	}
}

func TestWithSessionAndScript(t *testing.T) {
	capture := &logCapture{}
	log := WithScript(WithSession(newCaptureLogger(capture), "ses-1"), "forge")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["session"] != "ses-1" {
		t.Fatalf("expected session field, got %+v", entry)
	}
	if entry["script"] != "forge" {
		t.Fatalf("expected script field, got %+v", entry)
	}
}

func TestWithSessionSkipsEmpty(t *testing.T) {
	capture := &logCapture{}
	WithSession(newCaptureLogger(capture), "").Info("hello")
	entry := capture.firstEntry(t)
	if _, ok := entry["session"]; ok {
		t.Fatalf("did not expect session field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
