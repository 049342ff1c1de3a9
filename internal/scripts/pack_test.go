package scripts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/schema"
)

func TestBuildDefaultsIncludeBuiltins(t *testing.T) {
	catalog, registry, err := Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	forge, ok := catalog.Script("forge")
	if !ok {
		t.Fatalf("expected forge script")
	}
	if got := forge.Entries[0].Text; got != "$ forge recursive run --seed etl_logic.zip" {
		t.Fatalf("unexpected forge first line %q", got)
	}
	if _, ok := catalog.Script("nemo-sync"); !ok {
		t.Fatalf("expected nemo-sync script")
	}
	script, route := registry.Resolve("ethereal infer --model resnet50")
	if route != "infer" || script.Name != "infer-response" {
		t.Fatalf("expected infer route, got %s/%s", route, script.Name)
	}
	script, route = registry.Resolve("rm -rf /")
	if route != core.DefaultRouteName || script.Name != DefaultScriptName {
		t.Fatalf("expected default route, got %s/%s", route, script.Name)
	}
}

func TestBuiltinsAreValid(t *testing.T) {
	seen := map[schema.ScriptName]bool{}
	for _, script := range append(Builtins(), ConsoleScripts()...) {
		if err := schema.ValidateScript(script); err != nil {
			t.Fatalf("invalid builtin: %v", err)
		}
		if _, err := schema.NormalizeScriptName(string(script.Name)); err != nil {
			t.Fatalf("builtin %q has invalid name: %v", script.Name, err)
		}
		if seen[script.Name] {
			t.Fatalf("duplicate builtin %q", script.Name)
		}
		seen[script.Name] = true
	}
	for _, rt := range ConsoleRoutes() {
		if !seen[rt.Script] {
			t.Fatalf("route %s references missing script %s", rt.Name, rt.Script)
		}
	}
}

const samplePack = `
scripts:
  - name: Forge
    title: Custom forge
    lines:
      - text: "$ forge --dry-run"
      - text: "[SUCCESS] nothing to shred"
        delay_ms: 250
  - name: quantum
    lines:
      - text: "[-] Entangling qubits..."
        delay_ms: 100
routes:
  - name: quantum
    match: words
    words: [quantum, run]
    script: quantum
  - name: fallback
    match: any
    script: forge
`

func TestParsePackOverridesAndAppends(t *testing.T) {
	pack, err := ParsePack([]byte(samplePack))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	catalog, registry, err := Build(pack)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	forge, _ := catalog.Script("forge")
	want := schema.Script{
		Name:  "forge",
		Title: "Custom forge",
		Entries: []schema.ScriptEntry{
			{Text: "$ forge --dry-run"},
			{Text: "[SUCCESS] nothing to shred", Delay: 250 * time.Millisecond},
		},
	}
	if diff := cmp.Diff(want, forge); diff != "" {
		t.Fatalf("unexpected override (-want +got):\n%s", diff)
	}
	if catalog.Scripts()[0].Name != "forge" {
		t.Fatalf("expected override to keep catalog position")
	}

	if _, route := registry.Resolve("please RUN quantum"); route != "quantum" {
		t.Fatalf("expected quantum route, got %s", route)
	}
	if _, route := registry.Resolve("infer quantum run"); route != "infer" {
		t.Fatalf("expected built-in route to take priority, got %s", route)
	}
	if _, route := registry.Resolve("anything else"); route != "fallback" {
		t.Fatalf("expected fallback route, got %s", route)
	}
}

func TestBuildReplaceBuiltinRequiresDefault(t *testing.T) {
	pack, err := ParsePack([]byte(`
replace_builtin: true
scripts:
  - name: only
    lines: [{text: "hi"}]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := Build(pack); !errors.Is(err, schema.ErrUnknownScript) {
		t.Fatalf("expected ErrUnknownScript for missing default, got %v", err)
	}
	pack.Default = "only"
	catalog, registry, err := Build(pack)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected only pack scripts, got %d", catalog.Len())
	}
	if len(registry.Routes()) != 1 {
		t.Fatalf("expected only the default route, got %+v", registry.Routes())
	}
}

func TestPackErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "scripts:\n  - name: x\n    linez: []\n",
		"negative delay": "scripts:\n  - name: x\n    lines: [{text: a, delay_ms: -5}]\n",
		"empty script":   "scripts:\n  - name: x\n",
		"bad name":       "scripts:\n  - name: \"bad name\"\n    lines: [{text: a}]\n",
		"bad match":      "routes:\n  - name: r\n    match: regex\n    pattern: x\n    script: forge\n",
		"missing words":  "routes:\n  - name: r\n    match: words\n    script: forge\n",
		"unknown script": "routes:\n  - name: r\n    match: any\n    script: nope\n",
	}
	for name, doc := range cases {
		pack, err := ParsePack([]byte(doc))
		if err == nil {
			_, _, err = Build(pack)
		}
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestOpenLoadsPackFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts.yaml")
	if err := os.WriteFile(path, []byte(samplePack), 0o600); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	catalog, _, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := catalog.Script("quantum"); !ok {
		t.Fatalf("expected pack script loaded")
	}
	if _, _, err := Open(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing pack")
	}
	empty, _, err := Open("")
	if err != nil || empty.Len() != len(Builtins())+len(ConsoleScripts()) {
		t.Fatalf("expected builtins for empty path, got len=%d err=%v", empty.Len(), err)
	}
}
