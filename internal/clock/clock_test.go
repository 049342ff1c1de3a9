package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestManualFiresInDueOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(150 * time.Millisecond)
	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("after 150ms (-want +got):\n%s", diff)
	}
	m.Advance(time.Second)
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("after 1150ms (-want +got):\n%s", diff)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", m.Pending())
	}
}

func TestManualEqualDeadlinesKeepScheduleOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		m.AfterFunc(time.Second, func() { got = append(got, i) })
	}
	m.Advance(time.Second)
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestManualAdvanceZeroFiresImmediateTimers(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	m.AfterFunc(0, func() { fired = true })
	if fired {
		t.Fatalf("expected callback to wait for Advance")
	}
	m.Advance(0)
	if !fired {
		t.Fatalf("expected callback to fire on Advance(0)")
	}
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected Stop to report a pending timer")
	}
	if timer.Stop() {
		t.Fatalf("expected second Stop to report false")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Fatalf("expected stopped timer not to fire")
	}
}

func TestManualNowTracksFiringTime(t *testing.T) {
	start := time.Unix(100, 0)
	m := NewManual(start)
	var seen time.Time
	m.AfterFunc(250*time.Millisecond, func() { seen = m.Now() })
	m.Advance(time.Second)
	if want := start.Add(250 * time.Millisecond); !seen.Equal(want) {
		t.Fatalf("expected callback to observe %v, got %v", want, seen)
	}
	if want := start.Add(time.Second); !m.Now().Equal(want) {
		t.Fatalf("expected clock at %v, got %v", want, m.Now())
	}
}

func TestScaledMultipliesDelay(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	scaled := Scaled(m, 0.5)
	fired := false
	scaled.AfterFunc(time.Second, func() { fired = true })
	m.Advance(499 * time.Millisecond)
	if fired {
		t.Fatalf("expected scaled timer to wait 500ms")
	}
	m.Advance(time.Millisecond)
	if !fired {
		t.Fatalf("expected scaled timer to fire at 500ms")
	}
	if Scaled(m, 1) != Clock(m) {
		t.Fatalf("expected factor 1 to return the base clock")
	}
}

func TestRealClockFires(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Real().AfterFunc(time.Millisecond, wg.Done)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for real timer")
	}
}
