package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// EmitterOptions configures an Emitter.
type EmitterOptions struct {
	ConsoleID schema.ConsoleID
	Clock     clock.Clock
	Sink      EventSink
	// MaxLines bounds the visible log; 0 keeps every revealed line.
	MaxLines int
	Logger   pslog.Logger
}

// Emitter plays timed entry lists into an append-only visible log.
// At most one playback session is active at a time; plays are rejected while
// one is running. All state changes happen under mu, so timer callbacks firing
// on their own goroutines observe a single serialised history.
type Emitter struct {
	id    schema.ConsoleID
	clock clock.Clock
	sink  EventSink
	log   pslog.Logger

	mu      sync.Mutex
	status  schema.Status
	session *playbackSession
	visible *visibleLog
	closed  bool
}

// playbackSession owns the timers of one play. Timers are released as a unit
// when the last entry is revealed or the emitter is closed.
type playbackSession struct {
	id       schema.SessionID
	script   schema.ScriptName
	entries  []schema.ScriptEntry
	timers   []clock.Timer
	revealed int
}

// NewEmitter constructs an idle emitter.
func NewEmitter(opts EmitterOptions) *Emitter {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if opts.ConsoleID != "" {
		logger = logger.With("console", opts.ConsoleID)
	}
	return &Emitter{
		id:      opts.ConsoleID,
		clock:   opts.Clock,
		sink:    opts.Sink,
		log:     logger,
		visible: newVisibleLog(opts.MaxLines),
	}
}

// Play starts a session for entries. Entry i becomes visible once the sum of the
// delays of entries 0..i has elapsed.
func (e *Emitter) Play(ctx context.Context, entries []schema.ScriptEntry) (schema.SessionID, error) {
	return e.play(ctx, "", entries)
}

func (e *Emitter) play(ctx context.Context, name schema.ScriptName, entries []schema.ScriptEntry) (schema.SessionID, error) {
	log := logx.WithConsole(ctx, e.id)
	if len(entries) == 0 {
		return "", schema.ErrEmptyScript
	}
	for i, entry := range entries {
		if entry.Delay < 0 {
			return "", fmt.Errorf("%w: entry %d has negative delay", schema.ErrInvalidScript, i)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", schema.ErrConsoleClosed
	}
	if e.status == schema.StatusRunning {
		log.Debug("play rejected", "reason", "running", "session", e.session.id)
		return "", schema.ErrSessionRunning
	}

	sess := &playbackSession{
		id:      schema.SessionID(newSessionID()),
		script:  name,
		entries: append([]schema.ScriptEntry(nil), entries...),
	}
	e.session = sess
	e.status = schema.StatusRunning
	e.visible.Reset(len(sess.entries))
	e.sink.OnStatus(schema.StatusEvent{ConsoleID: e.id, SessionID: sess.id, Status: schema.StatusRunning, Script: name})

	sess.timers = make([]clock.Timer, len(sess.entries))
	var offset time.Duration
	for i, entry := range sess.entries {
		offset += entry.Delay
		index := i
		sess.timers[i] = e.clock.AfterFunc(offset, func() {
			e.reveal(sess, index)
		})
	}
	logx.WithScript(logx.WithSession(log, sess.id), name).Debug("playback started", "entries", len(sess.entries), "duration", offset)
	return sess.id, nil
}

// reveal makes every pending entry up to index visible. Timers can run in any
// goroutine order, so an earlier entry whose callback has not run yet is
// revealed here as well.
func (e *Emitter) reveal(sess *playbackSession, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.session != sess {
		e.log.Trace("stale reveal ignored", "session", sess.id, "index", index)
		return
	}
	if index < sess.revealed {
		return
	}
	start := sess.revealed
	lines := make([]string, 0, index+1-start)
	for _, entry := range sess.entries[start : index+1] {
		lines = append(lines, entry.Text)
	}
	sess.revealed = index + 1
	e.visible.Append(lines...)
	e.log.Trace("lines revealed", "session", sess.id, "index", start, "count", len(lines))
	e.sink.OnOutput(schema.OutputEvent{ConsoleID: e.id, SessionID: sess.id, Index: start, Lines: lines})

	if sess.revealed < len(sess.entries) {
		return
	}
	sess.release()
	e.status = schema.StatusIdle
	e.log.Debug("playback finished", "session", sess.id, "script", sess.script)
	e.sink.OnStatus(schema.StatusEvent{ConsoleID: e.id, SessionID: sess.id, Status: schema.StatusIdle, Script: sess.script})
}

// release stops every timer still pending.
func (s *playbackSession) release() {
	for _, timer := range s.timers {
		if timer != nil {
			timer.Stop()
		}
	}
	s.timers = nil
}

// Close tears the emitter down. Pending reveals are cancelled and any callback
// already in flight becomes a no-op. Further plays return ErrConsoleClosed.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if sess := e.session; sess != nil {
		sess.release()
		if e.status == schema.StatusRunning {
			e.log.Debug("playback cancelled", "session", sess.id, "revealed", sess.revealed, "entries", len(sess.entries))
		}
	}
	e.session = nil
	e.status = schema.StatusIdle
}

// Closed reports whether Close has been called.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Status returns the current playback status.
func (e *Emitter) Status() schema.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Lines returns the full visible log.
func (e *Emitter) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible.Lines()
}

// Snapshot returns the visible log for a viewport of limit lines (0 for all).
func (e *Emitter) Snapshot(limit int) schema.LogSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(limit)
}

// Scroll moves the viewport by delta lines and returns the updated snapshot.
func (e *Emitter) Scroll(delta, limit int) schema.LogSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible.Scroll(delta, limit)
	return e.snapshotLocked(limit)
}

func (e *Emitter) snapshotLocked(limit int) schema.LogSnapshot {
	view := e.visible.Snapshot(limit)
	snap := schema.LogSnapshot{
		ConsoleID:    e.id,
		Status:       e.status,
		Lines:        view.Lines,
		TotalLines:   view.TotalLines,
		ScrollOffset: view.ScrollOffset,
		AtBottom:     view.AtBottom,
	}
	if e.session != nil {
		snap.SessionID = e.session.id
	}
	return snap
}
