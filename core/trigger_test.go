package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/yukora/schema"
)

func TestTriggerTwiceProducesOneSession(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	trig, err := NewTrigger(e, schema.Script{Name: "abc", Entries: entries("A", 0, "B", 500, "C", 500)})
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}
	ctx := context.Background()
	if !trig.Enabled() || trig.Label() != "run abc" {
		t.Fatalf("expected enabled idle trigger, got enabled=%v label=%q", trig.Enabled(), trig.Label())
	}
	if !trig.Trigger(ctx) {
		t.Fatalf("expected first trigger to be accepted")
	}
	clk.Advance(100 * time.Millisecond)
	if trig.Trigger(ctx) {
		t.Fatalf("expected second trigger to be rejected while running")
	}
	if trig.Enabled() || trig.Label() != "running..." {
		t.Fatalf("expected disabled running trigger, got enabled=%v label=%q", trig.Enabled(), trig.Label())
	}
	clk.Advance(5 * time.Second)
	if diff := cmp.Diff([]string{"A", "B", "C"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
	if !trig.Enabled() {
		t.Fatalf("expected trigger enabled after playback")
	}
}

func TestTriggerRejectsInvalidScript(t *testing.T) {
	e := NewEmitter(EmitterOptions{Clock: newTestClock()})
	if _, err := NewTrigger(e, schema.Script{Name: "empty"}); !errors.Is(err, schema.ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript, got %v", err)
	}
	if _, err := NewTrigger(nil, schema.Script{Name: "x", Entries: entries("x", 0)}); err == nil {
		t.Fatalf("expected error without emitter")
	}
}

func TestTriggerHoldsCopyOfScript(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	script := schema.Script{Name: "copy", Entries: entries("original", 0)}
	trig, err := NewTrigger(e, script)
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}
	script.Entries[0].Text = "mutated"
	held := trig.Script()
	held.Entries[0].Text = "changed"
	if got := trig.Script().Entries[0].Text; got != "original" {
		t.Fatalf("expected held script to stay original, got %q", got)
	}
	trig.Trigger(context.Background())
	clk.Advance(0)
	if diff := cmp.Diff([]string{"original"}, e.Lines()); diff != "" {
		t.Fatalf("trigger must not observe caller mutations (-want +got):\n%s", diff)
	}
}
