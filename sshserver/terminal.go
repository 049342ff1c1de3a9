package sshserver

import (
	"context"
	"io"
	"strings"
	"time"

	gliderssh "github.com/gliderlabs/ssh"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/eventbus"
	"pkt.systems/yukora/schema"
)

// sessionIO is the part of an SSH session the terminal needs.
type sessionIO interface {
	io.ReadWriter
	Exit(code int) error
}

type terminalSession struct {
	sess       sessionIO
	service    core.Service
	handler    CommandHandler
	consoleID  schema.ConsoleID
	promptIdle string
	theme      tuiTheme
	screen     *screen
	ctx        context.Context
	events     <-chan eventbus.Event

	width  int
	height int

	snapshot     schema.LogSnapshot
	status       schema.Status
	script       schema.ScriptName
	inputEnabled bool

	editor     lineEditor
	notices    []string
	spinnerIdx int
	dirty      bool

	history      []string
	historyIndex int
	historyDraft string
}

const maxHistory = 100

var spinnerFrames = []rune{'|', '/', '-', '\\'}

var spinnerInterval = 150 * time.Millisecond

func newTerminalSession(sess sessionIO, service core.Service, handler CommandHandler, consoleID schema.ConsoleID, idlePrompt string, theme schema.ThemeName, events <-chan eventbus.Event) *terminalSession {
	return &terminalSession{
		sess:         sess,
		service:      service,
		handler:      handler,
		consoleID:    consoleID,
		promptIdle:   idlePrompt,
		theme:        themeForName(theme),
		screen:       newScreen(sess),
		events:       events,
		inputEnabled: true,
		historyIndex: -1,
	}
}

func (t *terminalSession) log() pslog.Logger {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.Ctx(ctx)
}

func (t *terminalSession) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	t.width = width
	t.height = height
}

func (t *terminalSession) Run(ctx context.Context, winCh <-chan gliderssh.Window) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.ctx = ctx
	t.screen.EnterAltScreen()
	defer t.screen.ExitAltScreen()

	t.refreshLog()
	t.render()
	t.log().Info("tui session start", "width", t.width, "height", t.height)

	keys := make(chan key, 16)
	go readKeys(t.sess, keys)

	spinnerTicker := time.NewTicker(spinnerInterval)
	defer spinnerTicker.Stop()

	events := t.events
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if t.handleKey(k) {
				return nil
			}
		case win, ok := <-winCh:
			if !ok {
				winCh = nil
				break
			}
			t.SetSize(win.Width, win.Height)
			t.refreshLog()
			t.screen.Invalidate()
			t.dirty = true
			t.log().Debug("tui resize", "width", t.width, "height", t.height)
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			if t.handleEvent(ev) {
				return nil
			}
		case <-spinnerTicker.C:
			t.tick()
		}

		if t.dirty {
			t.render()
			t.dirty = false
		}
	}
}

// tick advances the spinner and re-reads the console while it runs, so a
// status event dropped by the bus cannot leave the prompt disabled.
func (t *terminalSession) tick() {
	if t.status != schema.StatusRunning {
		return
	}
	t.spinnerIdx = (t.spinnerIdx + 1) % len(spinnerFrames)
	t.refreshLog()
	t.dirty = true
}

// handleEvent applies a console event and reports whether the session should end.
func (t *terminalSession) handleEvent(ev eventbus.Event) bool {
	switch ev.Type {
	case eventbus.EventOutput:
		t.refreshLog()
	case eventbus.EventStatus:
		t.status = ev.Status.Status
		t.script = ev.Status.Script
		t.refreshLog()
	case eventbus.EventConsole:
		if ev.Console.Type == schema.ConsoleEventClosed {
			t.log().Info("tui exit", "reason", "console closed")
			_ = t.sess.Exit(0)
			return true
		}
	}
	return false
}

func (t *terminalSession) handleKey(k key) bool {
	if !t.inputEnabled && k.editing() {
		t.log().Trace("tui input ignored", "reason", "running")
		return false
	}
	before := t.editor.String()
	switch k.kind {
	case keyCtrlD:
		if t.editor.Len() == 0 {
			t.log().Info("tui exit", "reason", "ctrl-d")
			_ = t.sess.Exit(0)
			return true
		}
		t.editor.Delete()
	case keyCtrlC:
		t.editor.Clear()
		t.notices = nil
	case keyCtrlL:
		t.screen.Invalidate()
	case keyEnter:
		if t.handleEnter() {
			return true
		}
	case keyRune:
		t.editor.InsertRune(k.r)
	case keyBackspace:
		t.editor.Backspace()
	case keyDelete:
		t.editor.Delete()
	case keyLeft:
		t.editor.MoveLeft()
	case keyRight:
		t.editor.MoveRight()
	case keyHome, keyCtrlA:
		t.editor.MoveStart()
	case keyEnd, keyCtrlE:
		t.editor.MoveEnd()
	case keyAltB:
		t.editor.MoveWordLeft()
	case keyAltF:
		t.editor.MoveWordRight()
	case keyCtrlW:
		t.editor.DeleteWordBackward()
	case keyCtrlU:
		t.editor.KillLineStart()
	case keyCtrlK:
		t.editor.KillLineEnd()
	case keyUp:
		t.historyUp()
	case keyDown:
		t.historyDown()
	case keyPageUp:
		t.scroll(max(t.viewHeight()-1, 1))
	case keyPageDown:
		t.scroll(-max(t.viewHeight()-1, 1))
	}
	if k.kind != keyEnter && t.editor.String() != before {
		t.syncDraft()
	}
	t.dirty = true
	return false
}

func (t *terminalSession) handleEnter() bool {
	line := strings.TrimSpace(t.editor.String())
	t.historyIndex = -1
	t.historyDraft = ""
	t.notices = nil
	if line == "" {
		t.clearDraft()
		return false
	}
	t.saveHistoryEntry(line)

	if t.handler != nil {
		res, handled, err := t.handler.Handle(t.ctx, t.consoleID, line)
		if handled {
			t.clearDraft()
			if err != nil {
				t.log().Warn("tui command failed", "err", err)
				t.appendError(err)
				return false
			}
			if res.Exit {
				t.log().Info("tui exit", "reason", "command", "input", line)
				_ = t.sess.Exit(0)
				return true
			}
			t.notices = res.Notices
			if res.Trigger != nil && res.Trigger.Accepted {
				t.status = schema.StatusRunning
			}
			t.refreshLog()
			return false
		}
	}

	resp, err := t.service.Submit(t.ctx, schema.SubmitRequest{ConsoleID: t.consoleID, Input: line})
	if err != nil {
		t.log().Warn("tui submit failed", "err", err)
		t.editor.Clear()
		t.appendError(err)
		return false
	}
	// The console clears its draft on every submission.
	t.refreshLog()
	t.editor.SetString(t.snapshot.Draft)
	if !resp.Accepted {
		t.log().Debug("tui submit rejected", "status", resp.Status)
		t.notices = []string{schema.NoticePrefix + "playback already running"}
		return false
	}
	t.log().Debug("tui submit", "route", resp.Route, "session", resp.SessionID)
	return false
}

func (t *terminalSession) syncDraft() {
	if t.service == nil {
		return
	}
	if err := t.service.SetDraft(t.ctx, schema.SetDraftRequest{ConsoleID: t.consoleID, Text: t.editor.String()}); err != nil {
		t.log().Debug("tui draft sync failed", "err", err)
	}
}

func (t *terminalSession) clearDraft() {
	t.editor.Clear()
	t.syncDraft()
}

func (t *terminalSession) refreshLog() {
	if t.service == nil {
		return
	}
	resp, err := t.service.GetLog(t.ctx, schema.GetLogRequest{ConsoleID: t.consoleID, Limit: t.viewHeight()})
	if err != nil {
		t.log().Warn("tui refresh failed", "err", err)
		return
	}
	t.snapshot = resp.Log
	t.status = resp.Log.Status
	t.inputEnabled = resp.Log.InputEnabled
	if t.status == schema.StatusIdle {
		t.script = ""
	}
	t.dirty = true
}

func (t *terminalSession) scroll(delta int) {
	resp, err := t.service.ScrollLog(t.ctx, schema.ScrollLogRequest{ConsoleID: t.consoleID, Delta: delta, Limit: t.viewHeight()})
	if err != nil {
		t.log().Warn("tui scroll failed", "err", err)
		return
	}
	t.snapshot = resp.Log
	t.inputEnabled = resp.Log.InputEnabled
}

func (t *terminalSession) appendError(err error) {
	t.notices = []string{"error: " + err.Error()}
}

func (t *terminalSession) saveHistoryEntry(entry string) {
	if n := len(t.history); n > 0 && t.history[n-1] == entry {
		return
	}
	t.history = append(t.history, entry)
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-maxHistory:]
	}
}

func (t *terminalSession) historyUp() {
	if len(t.history) == 0 {
		return
	}
	switch {
	case t.historyIndex < 0:
		t.historyDraft = t.editor.String()
		t.historyIndex = len(t.history) - 1
	case t.historyIndex > 0:
		t.historyIndex--
	default:
		return
	}
	t.editor.SetString(t.history[t.historyIndex])
}

func (t *terminalSession) historyDown() {
	if t.historyIndex < 0 {
		return
	}
	if t.historyIndex < len(t.history)-1 {
		t.historyIndex++
		t.editor.SetString(t.history[t.historyIndex])
		return
	}
	t.historyIndex = -1
	t.editor.SetString(t.historyDraft)
	t.historyDraft = ""
}

func (t *terminalSession) viewHeight() int {
	if t.height <= 1 {
		return 0
	}
	prefix, input := t.inputDisplay()
	inputLines, _, _ := renderInputLines(prefix, input, t.editor.cursor, t.width)
	return max(t.height-1-len(inputLines), 0)
}

func (t *terminalSession) inputDisplay() (string, string) {
	if !t.inputEnabled {
		return string(spinnerFrames[t.spinnerIdx]) + " ", ""
	}
	prefix := t.promptIdle
	if prefix == "" {
		prefix = defaultIdlePrompt
	}
	return prefix, t.editor.String()
}

func (t *terminalSession) render() {
	width := t.width
	height := t.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	lines := make([]string, 0, height)
	lines = append(lines, renderStatusBar(barState{
		consoleID: t.consoleID,
		status:    t.status,
		script:    t.script,
		scrolled:  t.snapshot.ScrollOffset,
	}, width, t.theme))

	prefix, input := t.inputDisplay()
	inputLines, cursorRow, cursorCol := renderInputLines(stylePromptPrefix(prefix, t.theme), input, t.editor.cursor, width)
	outputHeight := max(height-1-len(inputLines), 0)
	lines = append(lines, renderViewport(t.snapshot.Lines, t.notices, width, outputHeight, t.theme, t.snapshot.AtBottom)...)
	lines = append(lines, inputLines...)
	cursorRow = len(lines) - len(inputLines) + cursorRow
	if err := t.screen.Render(lines, cursorRow, cursorCol, t.inputEnabled); err != nil {
		t.log().Warn("tui render failed", "err", err)
	}
}
