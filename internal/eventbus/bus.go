package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/yukora/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventOutput carries revealed lines for a console.
	EventOutput EventType = "output"
	// EventStatus carries Idle/Running transitions.
	EventStatus EventType = "status"
	// EventConsole carries console lifecycle updates.
	EventConsole EventType = "console"
)

// Event represents a UI-facing event emitted by the core service.
type Event struct {
	Type    EventType
	Output  schema.OutputEvent
	Status  schema.StatusEvent
	Console schema.ConsoleEvent
}

// Bus fans events out to per-console subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.ConsoleID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.ConsoleID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the console and returns a channel + cancel.
func (b *Bus) Subscribe(consoleID schema.ConsoleID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	consoleSubs := b.subs[consoleID]
	if consoleSubs == nil {
		consoleSubs = make(map[chan Event]struct{})
		b.subs[consoleID] = consoleSubs
	}
	consoleSubs[ch] = struct{}{}
	count := len(consoleSubs)
	b.mu.Unlock()
	b.log.With("console", consoleID).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[consoleID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, consoleID)
				}
			}
			b.mu.Unlock()
			close(ch)
			b.log.With("console", consoleID).Debug("eventbus unsubscribe")
		})
	}
}

// OnOutput publishes an output event.
func (b *Bus) OnOutput(event schema.OutputEvent) {
	b.publish(event.ConsoleID, Event{Type: EventOutput, Output: event})
}

// OnStatus publishes a status event.
func (b *Bus) OnStatus(event schema.StatusEvent) {
	b.publish(event.ConsoleID, Event{Type: EventStatus, Status: event})
}

// OnConsoleEvent publishes a console lifecycle event.
func (b *Bus) OnConsoleEvent(event schema.ConsoleEvent) {
	b.publish(event.ConsoleID, Event{Type: EventConsole, Console: event})
}

func (b *Bus) publish(consoleID schema.ConsoleID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	consoleSubs := b.subs[consoleID]
	if len(consoleSubs) == 0 {
		return
	}
	dropped := 0
	for sub := range consoleSubs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.With("console", consoleID).Trace("eventbus dropped", "count", dropped)
	}
}
