package core

import (
	"context"
	"errors"

	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// Trigger starts one fixed script on an emitter. It accepts no further input
// until the script has finished.
type Trigger struct {
	emitter *Emitter
	script  schema.Script
}

// NewTrigger binds a validated copy of script to the emitter.
func NewTrigger(emitter *Emitter, script schema.Script) (*Trigger, error) {
	if emitter == nil {
		return nil, errors.New("trigger requires an emitter")
	}
	if err := schema.ValidateScript(script); err != nil {
		return nil, err
	}
	return &Trigger{emitter: emitter, script: script.Clone()}, nil
}

// Trigger starts the script and reports whether it was accepted. A trigger
// while the emitter is running is a no-op.
func (t *Trigger) Trigger(ctx context.Context) bool {
	_, err := t.Start(ctx)
	return err == nil
}

// Start is Trigger with the session id and the rejection reason.
func (t *Trigger) Start(ctx context.Context) (schema.SessionID, error) {
	id, err := t.emitter.play(ctx, t.script.Name, t.script.Entries)
	if err != nil {
		logx.WithConsole(ctx, t.emitter.id).Debug("trigger rejected", "script", t.script.Name, "err", err)
		return "", err
	}
	return id, nil
}

// Enabled reports whether a trigger would currently be accepted.
func (t *Trigger) Enabled() bool {
	return !t.emitter.Closed() && t.emitter.Status() == schema.StatusIdle
}

// Label is the text for the control that fires the trigger.
func (t *Trigger) Label() string {
	if t.emitter.Status() == schema.StatusRunning {
		return "running..."
	}
	return "run " + string(t.script.Name)
}

// Script returns a copy of the bound script.
func (t *Trigger) Script() schema.Script {
	return t.script.Clone()
}
