package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "play": false, "console": false, "scripts": false, "config": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected root command to include %s", name)
		}
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := runRoot(t, "config", "init", "-c", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Fatalf("expected written path, got %q", out)
	}
	if _, err := runRoot(t, "config", "init", "-c", path); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
	out, err = runRoot(t, "config", "show", "-c", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "config_version: 1") || !strings.Contains(out, "time_scale: 1") {
		t.Fatalf("unexpected config output:\n%s", out)
	}
}

func TestScriptsListsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	out, err := runRoot(t, "scripts", "-c", path)
	if err != nil {
		t.Fatalf("scripts: %v", err)
	}
	for _, want := range []string{"scripts:", "forge", "vault-lock", "console routes:", "status"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in listing:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if fields := strings.Fields(out); len(fields) != 2 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected version output %q", out)
	}
}
