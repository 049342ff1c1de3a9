package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/yukora/internal/appconfig"
	"pkt.systems/yukora/internal/format"
	"pkt.systems/yukora/schema"
)

func fastConfig() appconfig.Config {
	return appconfig.Config{
		Console: appconfig.ConsoleConfig{TimeScale: 0.001, ResponseDelayMS: 100},
	}
}

func TestPlayOnceWritesScript(t *testing.T) {
	var out bytes.Buffer
	printer := newPlayPrinter(&out, format.NewPlainRenderer())
	if err := playOnce(context.Background(), fastConfig(), printer, []string{"forge"}, ""); err != nil {
		t.Fatalf("play: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "$ forge") || !strings.HasPrefix(lines[5], "// Implosion complete") {
		t.Fatalf("unexpected playback: %q", lines)
	}
}

func TestPlayOnceSubmitsInput(t *testing.T) {
	var out bytes.Buffer
	printer := newPlayPrinter(&out, &format.PlainRenderer{ShowStyle: true})
	if err := playOnce(context.Background(), fastConfig(), printer, nil, "status"); err != nil {
		t.Fatalf("play: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "[echo] > status\n") || !strings.Contains(got, "[success] >> Identity: 0x7A4F... [MATCH]") {
		t.Fatalf("unexpected console output:\n%s", got)
	}
}

func TestPlayOnceUnknownScript(t *testing.T) {
	printer := newPlayPrinter(&bytes.Buffer{}, format.NewPlainRenderer())
	err := playOnce(context.Background(), fastConfig(), printer, []string{"missing"}, "")
	if !errors.Is(err, schema.ErrUnknownScript) {
		t.Fatalf("expected unknown script, got %v", err)
	}
}

func TestPlayCommandArgs(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "none.yaml")
	if _, err := runRoot(t, "play", "-c", cfgPath); err == nil {
		t.Fatalf("expected error without script or input")
	}
	if _, err := runRoot(t, "play", "-c", cfgPath, "forge", "--input", "status"); err == nil {
		t.Fatalf("expected error with both script and input")
	}
	out, err := runRoot(t, "play", "-c", cfgPath, "--time-scale", "0.001", "--plain", "nemo-sync")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out, ">> SUCCESS: 100% RECOVERY COMPLETE.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
