package yukora

import (
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnOutput(event schema.OutputEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnOutput(event)
	}
}

func (f eventFanout) OnStatus(event schema.StatusEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnStatus(event)
	}
}

func (f eventFanout) OnConsoleEvent(event schema.ConsoleEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnConsoleEvent(event)
	}
}
