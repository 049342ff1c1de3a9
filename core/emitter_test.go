package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/schema"
)

func TestEmitterRevealsAtCumulativeOffsets(t *testing.T) {
	clk := newTestClock()
	sink := &recordingSink{}
	e := NewEmitter(EmitterOptions{ConsoleID: "con-1", Clock: clk, Sink: sink})

	if _, err := e.Play(context.Background(), entries("A", 0, "B", 500, "C", 500)); err != nil {
		t.Fatalf("play: %v", err)
	}
	if e.Status() != schema.StatusRunning {
		t.Fatalf("expected running after play, got %s", e.Status())
	}
	if len(e.Lines()) != 0 {
		t.Fatalf("expected empty log before any time passes, got %v", e.Lines())
	}

	steps := []struct {
		advance time.Duration
		want    []string
		status  schema.Status
	}{
		{0, []string{"A"}, schema.StatusRunning},
		{499 * time.Millisecond, []string{"A"}, schema.StatusRunning},
		{time.Millisecond, []string{"A", "B"}, schema.StatusRunning},
		{499 * time.Millisecond, []string{"A", "B"}, schema.StatusRunning},
		{time.Millisecond, []string{"A", "B", "C"}, schema.StatusIdle},
	}
	for i, step := range steps {
		clk.Advance(step.advance)
		if diff := cmp.Diff(step.want, e.Lines()); diff != "" {
			t.Fatalf("step %d: unexpected log (-want +got):\n%s", i, diff)
		}
		if got := e.Status(); got != step.status {
			t.Fatalf("step %d: expected %s, got %s", i, step.status, got)
		}
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected timers released, %d pending", clk.Pending())
	}
	if diff := cmp.Diff([]schema.Status{schema.StatusRunning, schema.StatusIdle}, sink.statusList()); diff != "" {
		t.Fatalf("unexpected status events (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, sink.outputLines()); diff != "" {
		t.Fatalf("unexpected output events (-want +got):\n%s", diff)
	}
}

func TestEmitterRejectsPlayWhileRunning(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	script := entries("A", 0, "B", 500, "C", 500)

	first, err := e.Play(context.Background(), script)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	clk.Advance(250 * time.Millisecond)
	if _, err := e.Play(context.Background(), script); !errors.Is(err, schema.ErrSessionRunning) {
		t.Fatalf("expected ErrSessionRunning, got %v", err)
	}
	if diff := cmp.Diff([]string{"A"}, e.Lines()); diff != "" {
		t.Fatalf("rejected play must not reset the log (-want +got):\n%s", diff)
	}
	clk.Advance(2 * time.Second)
	if diff := cmp.Diff([]string{"A", "B", "C"}, e.Lines()); diff != "" {
		t.Fatalf("expected one session of output (-want +got):\n%s", diff)
	}
	if got := e.Snapshot(0).SessionID; got != first {
		t.Fatalf("expected session %s to remain current, got %s", first, got)
	}
}

func TestEmitterEqualOffsetsKeepScriptOrder(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	if _, err := e.Play(context.Background(), entries("one", 100, "two", 0, "three", 0, "four", 0)); err != nil {
		t.Fatalf("play: %v", err)
	}
	clk.Advance(100 * time.Millisecond)
	if diff := cmp.Diff([]string{"one", "two", "three", "four"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if e.Status() != schema.StatusIdle {
		t.Fatalf("expected idle, got %s", e.Status())
	}
}

func TestEmitterOutOfOrderCallbackRevealsPrefix(t *testing.T) {
	clk := newTestClock()
	sink := &recordingSink{}
	e := NewEmitter(EmitterOptions{Clock: clk, Sink: sink})
	if _, err := e.Play(context.Background(), entries("a", 0, "b", 0, "c", 0, "d", 10)); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()

	// The callback for index 2 runs before those for 0 and 1.
	e.reveal(sess, 2)
	e.reveal(sess, 0)
	e.reveal(sess, 1)
	if diff := cmp.Diff([]string{"a", "b", "c"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
	if len(sink.outputs) != 1 || sink.outputs[0].Index != 0 {
		t.Fatalf("expected a single output event at index 0, got %+v", sink.outputs)
	}
	clk.Advance(10 * time.Millisecond)
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
}

func TestEmitterStaleCallbackIsIgnored(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	if _, err := e.Play(context.Background(), entries("old-1", 0, "old-2", 10)); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	old := e.session
	e.mu.Unlock()
	clk.Advance(10 * time.Millisecond)

	if _, err := e.Play(context.Background(), entries("new-1", 0, "new-2", 10)); err != nil {
		t.Fatalf("second play: %v", err)
	}
	clk.Advance(0)
	// A callback of the superseded session arriving late must not write.
	e.reveal(old, 1)
	if diff := cmp.Diff([]string{"new-1"}, e.Lines()); diff != "" {
		t.Fatalf("stale callback wrote into the new session (-want +got):\n%s", diff)
	}
	clk.Advance(10 * time.Millisecond)
	if diff := cmp.Diff([]string{"new-1", "new-2"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
}

func TestEmitterCloseCancelsPendingReveals(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	if _, err := e.Play(context.Background(), entries("A", 0, "B", 500, "C", 500)); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()
	clk.Advance(600 * time.Millisecond)
	e.Close()

	if clk.Pending() != 0 {
		t.Fatalf("expected close to stop every timer, %d pending", clk.Pending())
	}
	e.reveal(sess, 2)
	clk.Advance(time.Second)
	if diff := cmp.Diff([]string{"A", "B"}, e.Lines()); diff != "" {
		t.Fatalf("expected no writes after close (-want +got):\n%s", diff)
	}
	if _, err := e.Play(context.Background(), entries("X", 0)); !errors.Is(err, schema.ErrConsoleClosed) {
		t.Fatalf("expected ErrConsoleClosed, got %v", err)
	}
	e.Close()
}

func TestEmitterRejectsInvalidEntries(t *testing.T) {
	e := NewEmitter(EmitterOptions{Clock: newTestClock()})
	if _, err := e.Play(context.Background(), nil); !errors.Is(err, schema.ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript, got %v", err)
	}
	if _, err := e.Play(context.Background(), entries("A", -1)); !errors.Is(err, schema.ErrInvalidScript) {
		t.Fatalf("expected ErrInvalidScript, got %v", err)
	}
	if e.Status() != schema.StatusIdle {
		t.Fatalf("expected idle after rejected plays, got %s", e.Status())
	}
}

func TestEmitterNewSessionClearsLog(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk})
	if _, err := e.Play(context.Background(), entries("first", 0)); err != nil {
		t.Fatalf("play: %v", err)
	}
	clk.Advance(0)
	if _, err := e.Play(context.Background(), entries("second", 5)); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(e.Lines()) != 0 {
		t.Fatalf("expected log cleared at session start, got %v", e.Lines())
	}
	clk.Advance(5 * time.Millisecond)
	if diff := cmp.Diff([]string{"second"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
}

func TestEmitterKeepsWholeScriptBeyondMaxLines(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{Clock: clk, MaxLines: 2})
	if _, err := e.Play(context.Background(), entries("A", 0, "B", 0, "C", 0)); err != nil {
		t.Fatalf("play: %v", err)
	}
	clk.Advance(0)
	if e.Status() != schema.StatusIdle {
		t.Fatalf("expected idle after playback, got %s", e.Status())
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, e.Lines()); diff != "" {
		t.Fatalf("completed session must show every entry (-want +got):\n%s", diff)
	}
	if snap := e.Snapshot(0); snap.TotalLines != 3 {
		t.Fatalf("expected 3 total lines, got %d", snap.TotalLines)
	}
}

func TestEmitterSnapshotAndScroll(t *testing.T) {
	clk := newTestClock()
	e := NewEmitter(EmitterOptions{ConsoleID: "con-2", Clock: clk})
	id, err := e.Play(context.Background(), entries("1", 0, "2", 0, "3", 0, "4", 0, "5", 0))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	clk.Advance(0)
	snap := e.Scroll(2, 2)
	want := schema.LogSnapshot{
		ConsoleID:    "con-2",
		SessionID:    id,
		Status:       schema.StatusIdle,
		Lines:        []string{"2", "3"},
		TotalLines:   5,
		ScrollOffset: 2,
		AtBottom:     false,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestEmitterWithRealClock(t *testing.T) {
	done := make(chan struct{})
	sink := &idleSignal{done: done}
	e := NewEmitter(EmitterOptions{Clock: clock.Real(), Sink: sink})
	defer e.Close()
	if _, err := e.Play(context.Background(), entries("x", 1, "y", 0, "z", 2)); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for playback to finish")
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, e.Lines()); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
}

type idleSignal struct {
	nopSink
	done chan struct{}
}

func (s *idleSignal) OnStatus(event schema.StatusEvent) {
	if event.Status == schema.StatusIdle {
		close(s.done)
	}
}
