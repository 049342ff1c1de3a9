package core

import "pkt.systems/yukora/schema"

// EventSink receives output, status, and console lifecycle events from the core.
// Implementations must not block: emitters call them while holding their lock.
type EventSink interface {
	OnOutput(event schema.OutputEvent)
	OnStatus(event schema.StatusEvent)
	OnConsoleEvent(event schema.ConsoleEvent)
}

type nopSink struct{}

func (nopSink) OnOutput(schema.OutputEvent) {}
func (nopSink) OnStatus(schema.StatusEvent) {}
func (nopSink) OnConsoleEvent(schema.ConsoleEvent) {}
