package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// Console maps free-text commands to canned scripts and plays them, prefixed
// by the echoed command, on its emitter.
type Console struct {
	emitter       *Emitter
	registry      *Registry
	responseDelay time.Duration

	mu    sync.Mutex
	draft string
}

// SubmitResult describes an accepted submission.
type SubmitResult struct {
	SessionID schema.SessionID
	Route     string
	Script    schema.ScriptName
}

// NewConsole binds a registry to an emitter. responseDelay is added before the
// first response line.
func NewConsole(emitter *Emitter, registry *Registry, responseDelay time.Duration) (*Console, error) {
	if emitter == nil {
		return nil, errors.New("console requires an emitter")
	}
	if registry == nil {
		return nil, errors.New("console requires a registry")
	}
	if responseDelay < 0 {
		responseDelay = 0
	}
	return &Console{emitter: emitter, registry: registry, responseDelay: responseDelay}, nil
}

// Submit plays the response for text and reports whether it was accepted.
// Blank input and input while a session is running are ignored.
func (c *Console) Submit(ctx context.Context, text string) bool {
	_, err := c.SubmitCommand(ctx, text)
	return err == nil
}

// SubmitCommand is Submit with the routing result and the rejection reason.
// The draft is cleared whether or not the command is accepted.
func (c *Console) SubmitCommand(ctx context.Context, text string) (SubmitResult, error) {
	c.SetDraft("")
	log := logx.WithConsole(ctx, c.emitter.id)
	command := strings.TrimSpace(text)
	if command == "" {
		log.Debug("console input ignored", "reason", "empty")
		return SubmitResult{}, schema.ErrEmptyInput
	}
	if c.emitter.Status() == schema.StatusRunning {
		log.Debug("console input ignored", "reason", "running")
		return SubmitResult{}, schema.ErrSessionRunning
	}
	script, routeName := c.registry.Resolve(command)
	log.Debug("console route resolved", "route", routeName, "script", script.Name)

	entries := make([]schema.ScriptEntry, 0, len(script.Entries)+1)
	entries = append(entries, schema.ScriptEntry{Text: schema.EchoPrefix + command})
	for i, entry := range script.Entries {
		if i == 0 {
			entry.Delay += c.responseDelay
		}
		entries = append(entries, entry)
	}
	id, err := c.emitter.play(ctx, script.Name, entries)
	if err != nil {
		log.Debug("console input ignored", "reason", err)
		return SubmitResult{}, err
	}
	return SubmitResult{SessionID: id, Route: routeName, Script: script.Name}, nil
}

// SetDraft replaces the pending input text.
func (c *Console) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the pending input text.
func (c *Console) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// InputEnabled reports whether a submission would currently be considered.
func (c *Console) InputEnabled() bool {
	return !c.emitter.Closed() && c.emitter.Status() == schema.StatusIdle
}
