package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// service implements Service with one emitter per console.
type service struct {
	cfg      schema.ServiceConfig
	catalog  Catalog
	registry *Registry
	clock    clock.Clock
	sink     EventSink
	logger   pslog.Logger

	mu       sync.Mutex
	consoles map[schema.ConsoleID]*consoleState
	closed   bool
}

type consoleState struct {
	id       schema.ConsoleID
	owner    string
	emitter  *Emitter
	console  *Console
	triggers map[schema.ScriptName]*Trigger
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Catalog == nil {
		return nil, errors.New("service requires a script catalog")
	}
	if deps.Registry == nil {
		return nil, errors.New("service requires a console registry")
	}
	if deps.EventSink == nil {
		deps.EventSink = nopSink{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:      normalized,
		catalog:  deps.Catalog,
		registry: deps.Registry,
		clock:    clock.Scaled(deps.Clock, normalized.TimeScale),
		sink:     deps.EventSink,
		logger:   logger,
		consoles: make(map[schema.ConsoleID]*consoleState),
	}, nil
}

func (s *service) OpenConsole(ctx context.Context, req schema.OpenConsoleRequest) (schema.OpenConsoleResponse, error) {
	id := schema.ConsoleID(newConsoleID())
	emitter := NewEmitter(EmitterOptions{
		ConsoleID: id,
		Clock:     s.clock,
		Sink:      s.sink,
		MaxLines:  s.cfg.LogMaxLines,
		Logger:    s.logger,
	})
	console, err := NewConsole(emitter, s.registry, s.cfg.ResponseDelay)
	if err != nil {
		return schema.OpenConsoleResponse{}, err
	}
	state := &consoleState{
		id:       id,
		owner:    req.Owner,
		emitter:  emitter,
		console:  console,
		triggers: make(map[schema.ScriptName]*Trigger),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.OpenConsoleResponse{}, schema.ErrConsoleClosed
	}
	if s.cfg.MaxConsoles > 0 && len(s.consoles) >= s.cfg.MaxConsoles {
		s.mu.Unlock()
		return schema.OpenConsoleResponse{}, fmt.Errorf("%w: limit %d", schema.ErrConsoleLimit, s.cfg.MaxConsoles)
	}
	s.consoles[id] = state
	count := len(s.consoles)
	s.mu.Unlock()

	logx.WithConsole(ctx, id).Info("console opened", "owner", req.Owner, "open", count)
	s.sink.OnConsoleEvent(schema.ConsoleEvent{ConsoleID: id, Type: schema.ConsoleEventOpened})
	return schema.OpenConsoleResponse{ConsoleID: id}, nil
}

func (s *service) CloseConsole(ctx context.Context, req schema.CloseConsoleRequest) error {
	s.mu.Lock()
	state, ok := s.consoles[req.ConsoleID]
	if ok {
		delete(s.consoles, req.ConsoleID)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrConsoleNotFound, req.ConsoleID)
	}
	state.emitter.Close()
	logx.WithConsole(ctx, state.id).Info("console closed", "owner", state.owner)
	s.sink.OnConsoleEvent(schema.ConsoleEvent{ConsoleID: state.id, Type: schema.ConsoleEventClosed})
	return nil
}

func (s *service) Trigger(ctx context.Context, req schema.TriggerRequest) (schema.TriggerResponse, error) {
	state, err := s.lookup(req.ConsoleID)
	if err != nil {
		return schema.TriggerResponse{}, err
	}
	name, err := schema.NormalizeScriptName(string(req.Script))
	if err != nil {
		return schema.TriggerResponse{}, err
	}
	trigger, err := s.triggerFor(state, name)
	if err != nil {
		return schema.TriggerResponse{}, err
	}
	ctx = logx.ContextWithConsoleLogger(ctx, logx.WithConsole(ctx, state.id), state.id)
	id, err := trigger.Start(ctx)
	switch {
	case err == nil:
		return schema.TriggerResponse{Accepted: true, SessionID: id, Status: state.emitter.Status()}, nil
	case errors.Is(err, schema.ErrSessionRunning):
		return schema.TriggerResponse{Status: state.emitter.Status()}, nil
	default:
		return schema.TriggerResponse{}, err
	}
}

func (s *service) triggerFor(state *consoleState, name schema.ScriptName) (*Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trigger := state.triggers[name]; trigger != nil {
		return trigger, nil
	}
	script, ok := s.catalog.Script(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownScript, name)
	}
	trigger, err := NewTrigger(state.emitter, script)
	if err != nil {
		return nil, err
	}
	state.triggers[name] = trigger
	return trigger, nil
}

func (s *service) Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error) {
	state, err := s.lookup(req.ConsoleID)
	if err != nil {
		return schema.SubmitResponse{}, err
	}
	ctx = logx.ContextWithConsoleLogger(ctx, logx.WithConsole(ctx, state.id), state.id)
	result, err := state.console.SubmitCommand(ctx, req.Input)
	switch {
	case err == nil:
		return schema.SubmitResponse{
			Accepted:  true,
			SessionID: result.SessionID,
			Route:     result.Route,
			Status:    state.emitter.Status(),
		}, nil
	case errors.Is(err, schema.ErrEmptyInput), errors.Is(err, schema.ErrSessionRunning):
		return schema.SubmitResponse{Status: state.emitter.Status()}, nil
	default:
		return schema.SubmitResponse{}, err
	}
}

func (s *service) GetLog(ctx context.Context, req schema.GetLogRequest) (schema.GetLogResponse, error) {
	state, err := s.lookup(req.ConsoleID)
	if err != nil {
		return schema.GetLogResponse{}, err
	}
	return schema.GetLogResponse{Log: s.describe(state, state.emitter.Snapshot(req.Limit))}, nil
}

func (s *service) ScrollLog(ctx context.Context, req schema.ScrollLogRequest) (schema.ScrollLogResponse, error) {
	state, err := s.lookup(req.ConsoleID)
	if err != nil {
		return schema.ScrollLogResponse{}, err
	}
	return schema.ScrollLogResponse{Log: s.describe(state, state.emitter.Scroll(req.Delta, req.Limit))}, nil
}

func (s *service) SetDraft(ctx context.Context, req schema.SetDraftRequest) error {
	state, err := s.lookup(req.ConsoleID)
	if err != nil {
		return err
	}
	state.console.SetDraft(req.Text)
	return nil
}

// describe adds the input gate, the draft and the trigger controls to snap.
func (s *service) describe(state *consoleState, snap schema.LogSnapshot) schema.LogSnapshot {
	snap.InputEnabled = state.console.InputEnabled()
	snap.Draft = state.console.Draft()
	scripts := s.catalog.Scripts()
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	snap.Controls = make([]schema.TriggerControl, 0, len(scripts))
	for _, script := range scripts {
		trigger, err := s.triggerFor(state, script.Name)
		if err != nil {
			continue
		}
		snap.Controls = append(snap.Controls, schema.TriggerControl{
			Script:  script.Name,
			Label:   trigger.Label(),
			Enabled: trigger.Enabled(),
		})
	}
	return snap
}

func (s *service) ListScripts(ctx context.Context) (schema.ListScriptsResponse, error) {
	scripts := s.catalog.Scripts()
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	resp := schema.ListScriptsResponse{
		Scripts: make([]schema.ScriptSummary, 0, len(scripts)),
		Routes:  s.registry.Routes(),
	}
	for _, script := range scripts {
		resp.Scripts = append(resp.Scripts, schema.SummarizeScript(script))
	}
	return resp, nil
}

func (s *service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	states := make([]*consoleState, 0, len(s.consoles))
	for _, state := range s.consoles {
		states = append(states, state)
	}
	s.consoles = make(map[schema.ConsoleID]*consoleState)
	s.mu.Unlock()
	for _, state := range states {
		state.emitter.Close()
		s.sink.OnConsoleEvent(schema.ConsoleEvent{ConsoleID: state.id, Type: schema.ConsoleEventClosed})
	}
	if len(states) > 0 {
		s.logger.Info("consoles closed", "count", len(states))
	}
}

func (s *service) lookup(id schema.ConsoleID) (*consoleState, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: console id required", schema.ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.consoles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrConsoleNotFound, id)
	}
	return state, nil
}
