package sshserver

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/internal/command"
	"pkt.systems/yukora/internal/eventbus"
	"pkt.systems/yukora/internal/scripts"
	"pkt.systems/yukora/schema"
)

type fakeSession struct {
	bytes.Buffer
	exitCode int
	exited   bool
}

func (f *fakeSession) Exit(code int) error {
	f.exitCode = code
	f.exited = true
	return nil
}

type stubService struct {
	core.Service
	submits  []schema.SubmitRequest
	submitFn func(schema.SubmitRequest) (schema.SubmitResponse, error)
	snapshot schema.LogSnapshot
	scrolls  []int
	drafts   []string
}

func (s *stubService) SetDraft(_ context.Context, req schema.SetDraftRequest) error {
	s.drafts = append(s.drafts, req.Text)
	return nil
}

func (s *stubService) Submit(_ context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error) {
	s.submits = append(s.submits, req)
	if s.submitFn != nil {
		return s.submitFn(req)
	}
	return schema.SubmitResponse{Accepted: true, Status: schema.StatusRunning}, nil
}

func (s *stubService) GetLog(_ context.Context, req schema.GetLogRequest) (schema.GetLogResponse, error) {
	snap := s.snapshot
	snap.ConsoleID = req.ConsoleID
	return schema.GetLogResponse{Log: snap}, nil
}

func (s *stubService) ScrollLog(_ context.Context, req schema.ScrollLogRequest) (schema.ScrollLogResponse, error) {
	s.scrolls = append(s.scrolls, req.Delta)
	snap := s.snapshot
	snap.ScrollOffset = req.Delta
	snap.AtBottom = req.Delta == 0
	return schema.ScrollLogResponse{Log: snap}, nil
}

type stubHandler struct {
	inputs []string
	result command.Result
	err    error
}

func (h *stubHandler) Handle(_ context.Context, _ schema.ConsoleID, input string) (command.Result, bool, error) {
	if len(input) == 0 || input[0] != '/' {
		return command.Result{}, false, nil
	}
	h.inputs = append(h.inputs, input)
	return h.result, true, h.err
}

func newTestTerminal(svc core.Service, handler CommandHandler) (*terminalSession, *fakeSession) {
	sess := &fakeSession{}
	term := newTerminalSession(sess, svc, handler, "con-test", "yukora> ", "", nil)
	term.ctx = context.Background()
	term.SetSize(80, 24)
	return term, sess
}

func typeText(term *terminalSession, text string) {
	for _, r := range text {
		term.handleKey(key{kind: keyRune, r: r})
	}
}

func TestTerminalEnterSubmitsToConsole(t *testing.T) {
	svc := &stubService{}
	term, _ := newTestTerminal(svc, &stubHandler{})
	typeText(term, "  deploy now ")
	if exit := term.handleKey(key{kind: keyEnter}); exit {
		t.Fatalf("expected session to continue")
	}
	want := []schema.SubmitRequest{{ConsoleID: "con-test", Input: "deploy now"}}
	if diff := cmp.Diff(want, svc.submits); diff != "" {
		t.Fatalf("unexpected submits (-want +got):\n%s", diff)
	}
	if term.editor.Len() != 0 {
		t.Fatalf("expected input cleared, got %q", term.editor.String())
	}
	if diff := cmp.Diff([]string{"deploy now"}, term.history); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestTerminalMirrorsEditsIntoConsoleDraft(t *testing.T) {
	svc := &stubService{}
	term, _ := newTestTerminal(svc, &stubHandler{})
	typeText(term, "ab")
	term.handleKey(key{kind: keyBackspace})
	term.handleKey(key{kind: keyLeft})
	if diff := cmp.Diff([]string{"a", "ab", "a"}, svc.drafts); diff != "" {
		t.Fatalf("unexpected drafts (-want +got):\n%s", diff)
	}
	typeText(term, "/x")
	term.handleKey(key{kind: keyEnter})
	if got := svc.drafts[len(svc.drafts)-1]; got != "" {
		t.Fatalf("expected slash command to clear the draft, got %q", got)
	}
}

func TestTerminalIgnoresTypingWhileRunning(t *testing.T) {
	svc := &stubService{}
	term, _ := newTestTerminal(svc, nil)
	term.status = schema.StatusRunning
	term.inputEnabled = false
	typeText(term, "status")
	term.handleKey(key{kind: keyEnter})
	if term.editor.Len() != 0 {
		t.Fatalf("expected typing ignored, got %q", term.editor.String())
	}
	if len(svc.submits) != 0 {
		t.Fatalf("expected no submit while running, got %d", len(svc.submits))
	}
}

func TestTerminalScrollAllowedWhileRunning(t *testing.T) {
	svc := &stubService{}
	term, _ := newTestTerminal(svc, nil)
	term.status = schema.StatusRunning
	term.inputEnabled = false
	term.handleKey(key{kind: keyPageUp})
	if len(svc.scrolls) != 1 || svc.scrolls[0] <= 0 {
		t.Fatalf("expected one upward scroll, got %v", svc.scrolls)
	}
	if term.snapshot.AtBottom {
		t.Fatalf("expected scrolled snapshot")
	}
}

func TestTerminalEmptyEnterIsNoop(t *testing.T) {
	svc := &stubService{}
	term, _ := newTestTerminal(svc, nil)
	typeText(term, "   ")
	term.handleKey(key{kind: keyEnter})
	if len(svc.submits) != 0 {
		t.Fatalf("expected empty input not submitted")
	}
	if term.editor.Len() != 0 {
		t.Fatalf("expected draft cleared")
	}
}

func TestTerminalSlashCommandUsesHandler(t *testing.T) {
	svc := &stubService{}
	handler := &stubHandler{result: command.Result{Notices: []string{"scripts:", "  forge"}}}
	term, _ := newTestTerminal(svc, handler)
	typeText(term, "/scripts")
	term.handleKey(key{kind: keyEnter})
	if diff := cmp.Diff([]string{"/scripts"}, handler.inputs); diff != "" {
		t.Fatalf("unexpected handler inputs (-want +got):\n%s", diff)
	}
	if len(svc.submits) != 0 {
		t.Fatalf("expected slash command not submitted to console")
	}
	if diff := cmp.Diff([]string{"scripts:", "  forge"}, term.notices); diff != "" {
		t.Fatalf("unexpected notices (-want +got):\n%s", diff)
	}
}

func TestTerminalSlashCommandErrorBecomesNotice(t *testing.T) {
	handler := &stubHandler{err: errors.New("unknown command: /nope")}
	term, _ := newTestTerminal(&stubService{}, handler)
	typeText(term, "/nope")
	term.handleKey(key{kind: keyEnter})
	if diff := cmp.Diff([]string{"error: unknown command: /nope"}, term.notices); diff != "" {
		t.Fatalf("unexpected notices (-want +got):\n%s", diff)
	}
}

func TestTerminalExitCommand(t *testing.T) {
	handler := &stubHandler{result: command.Result{Exit: true}}
	term, sess := newTestTerminal(&stubService{}, handler)
	typeText(term, "/exit")
	if !term.handleKey(key{kind: keyEnter}) {
		t.Fatalf("expected session to end")
	}
	if !sess.exited || sess.exitCode != 0 {
		t.Fatalf("expected exit 0, got exited=%v code=%d", sess.exited, sess.exitCode)
	}
}

func TestTerminalCtrlDExitsOnlyWhenEmpty(t *testing.T) {
	term, sess := newTestTerminal(&stubService{}, nil)
	typeText(term, "ab")
	term.handleKey(key{kind: keyLeft})
	if term.handleKey(key{kind: keyCtrlD}) {
		t.Fatalf("expected ctrl-d to delete with input present")
	}
	if got := term.editor.String(); got != "a" {
		t.Fatalf("expected forward delete, got %q", got)
	}
	term.editor.Clear()
	if !term.handleKey(key{kind: keyCtrlD}) || !sess.exited {
		t.Fatalf("expected ctrl-d to exit on empty input")
	}
}

func TestTerminalSubmitRejectedShowsNotice(t *testing.T) {
	svc := &stubService{submitFn: func(schema.SubmitRequest) (schema.SubmitResponse, error) {
		return schema.SubmitResponse{Accepted: false, Status: schema.StatusRunning}, nil
	}}
	term, _ := newTestTerminal(svc, nil)
	typeText(term, "train")
	term.handleKey(key{kind: keyEnter})
	if diff := cmp.Diff([]string{schema.NoticePrefix + "playback already running"}, term.notices); diff != "" {
		t.Fatalf("unexpected notices (-want +got):\n%s", diff)
	}
}

func TestTerminalConsoleClosedEventExits(t *testing.T) {
	term, sess := newTestTerminal(&stubService{}, nil)
	exit := term.handleEvent(eventbus.Event{Type: eventbus.EventConsole, Console: schema.ConsoleEvent{ConsoleID: "con-test", Type: schema.ConsoleEventClosed}})
	if !exit || !sess.exited {
		t.Fatalf("expected closed console to end the session")
	}
}

func TestTerminalHistoryNavigationPreservesDraft(t *testing.T) {
	term, _ := newTestTerminal(&stubService{}, nil)
	term.history = []string{"one", "two"}
	term.editor.SetString("draft")
	term.historyUp()
	if got := term.editor.String(); got != "two" {
		t.Fatalf("expected history to move to 'two', got %q", got)
	}
	term.historyUp()
	term.historyUp()
	if got := term.editor.String(); got != "one" {
		t.Fatalf("expected history to stop at 'one', got %q", got)
	}
	term.historyDown()
	term.historyDown()
	if got := term.editor.String(); got != "draft" {
		t.Fatalf("expected history down to restore draft, got %q", got)
	}
}

func TestTerminalHistoryDeduplicatesAndCaps(t *testing.T) {
	term, _ := newTestTerminal(&stubService{}, nil)
	term.saveHistoryEntry("status")
	term.saveHistoryEntry("status")
	if len(term.history) != 1 {
		t.Fatalf("expected consecutive duplicates collapsed, got %v", term.history)
	}
	for i := 0; i < maxHistory+10; i++ {
		term.saveHistoryEntry(string(rune('a' + i%26)))
	}
	if len(term.history) != maxHistory {
		t.Fatalf("expected history capped at %d, got %d", maxHistory, len(term.history))
	}
}

func TestTerminalRenderShowsPromptAndLog(t *testing.T) {
	svc := &stubService{snapshot: schema.LogSnapshot{Lines: []string{"> status", ">> Runtime: ONLINE"}, AtBottom: true, InputEnabled: true}}
	term, sess := newTestTerminal(svc, nil)
	term.refreshLog()
	term.render()
	out := sess.String()
	for _, want := range []string{"> status", ">> Runtime: ONLINE", "yukora>", "con-test"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Fatalf("expected frame to contain %q", want)
		}
	}
	size := sess.Len()
	term.render()
	if sess.Len() != size {
		t.Fatalf("expected identical frame to be skipped")
	}
}

func TestTerminalPlaysConsoleScriptEndToEnd(t *testing.T) {
	catalog, registry, err := scripts.Build(nil)
	if err != nil {
		t.Fatalf("build scripts: %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	bus := eventbus.New(nil)
	svc, err := core.NewService(schema.ServiceConfig{ResponseDelay: 400 * time.Millisecond}, core.ServiceDeps{
		Catalog:   catalog,
		Registry:  registry,
		Clock:     clk,
		EventSink: bus,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	ctx := context.Background()
	opened, err := svc.OpenConsole(ctx, schema.OpenConsoleRequest{Owner: "test"})
	if err != nil {
		t.Fatalf("open console: %v", err)
	}
	events, cancel := bus.Subscribe(opened.ConsoleID)
	defer cancel()

	sess := &fakeSession{}
	term := newTerminalSession(sess, svc, command.NewHandler(svc, command.HandlerConfig{}), opened.ConsoleID, "", "", events)
	term.ctx = ctx
	term.SetSize(80, 24)

	typeText(term, "status")
	term.handleKey(key{kind: keyEnter})
	if term.status != schema.StatusRunning {
		t.Fatalf("expected running after submit, got %v", term.status)
	}
	typeText(term, "ignored")
	if term.editor.Len() != 0 {
		t.Fatalf("expected typing ignored while running")
	}

	clk.Advance(2 * time.Second)
	drain := func() {
		for {
			select {
			case ev := <-events:
				term.handleEvent(ev)
			default:
				return
			}
		}
	}
	drain()

	want := []string{"> status", ">> Runtime: ONLINE", ">> Drift: 0B", ">> Identity: 0x7A4F... [MATCH]"}
	if diff := cmp.Diff(want, term.snapshot.Lines); diff != "" {
		t.Fatalf("unexpected log (-want +got):\n%s", diff)
	}
	if term.status != schema.StatusIdle {
		t.Fatalf("expected idle after playback, got %v", term.status)
	}

	typeText(term, "/play vault-lock")
	term.handleKey(key{kind: keyEnter})
	if term.status != schema.StatusRunning {
		t.Fatalf("expected /play to start playback, got %v", term.status)
	}
	if len(term.snapshot.Lines) != 0 {
		t.Fatalf("expected new session to clear the log, got %q", term.snapshot.Lines)
	}
	clk.Advance(time.Minute)
	drain()
	if term.status != schema.StatusIdle || len(term.snapshot.Lines) == 0 {
		t.Fatalf("expected vault-lock to complete, status=%v lines=%d", term.status, len(term.snapshot.Lines))
	}
}

func TestTerminalTickRecoversFromDroppedIdleEvent(t *testing.T) {
	catalog, registry, err := scripts.Build(nil)
	if err != nil {
		t.Fatalf("build scripts: %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{Catalog: catalog, Registry: registry, Clock: clk})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	ctx := context.Background()
	opened, err := svc.OpenConsole(ctx, schema.OpenConsoleRequest{Owner: "test"})
	if err != nil {
		t.Fatalf("open console: %v", err)
	}
	events := make(chan eventbus.Event)
	term := newTerminalSession(&fakeSession{}, svc, nil, opened.ConsoleID, "", "", events)
	term.ctx = ctx
	term.SetSize(80, 24)

	typeText(term, "status")
	term.handleKey(key{kind: keyEnter})
	if term.status != schema.StatusRunning || term.inputEnabled {
		t.Fatalf("expected running console with input disabled")
	}
	clk.Advance(time.Minute)
	term.tick()
	if term.status != schema.StatusIdle || !term.inputEnabled {
		t.Fatalf("expected tick to pick up idle state, status=%v input=%v", term.status, term.inputEnabled)
	}
	if len(term.snapshot.Lines) != 4 {
		t.Fatalf("expected full status log, got %q", term.snapshot.Lines)
	}
}
