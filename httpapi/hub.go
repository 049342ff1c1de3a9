package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/yukora/internal/format"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq          uint64                  `json:"seq"`
	Type         string                  `json:"type"`
	ConsoleID    schema.ConsoleID        `json:"console_id,omitempty"`
	SessionID    schema.SessionID        `json:"session_id,omitempty"`
	Index        int                     `json:"index,omitempty"`
	Lines        []string                `json:"lines,omitempty"`
	Styles       []schema.StyleTag       `json:"styles,omitempty"`
	Status       *schema.Status          `json:"status,omitempty"`
	Script       schema.ScriptName       `json:"script,omitempty"`
	ConsoleEvent schema.ConsoleEventType `json:"console_event,omitempty"`
	Snapshot     *SnapshotPayload        `json:"snapshot,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Log    schema.LogSnapshot `json:"log"`
	Styles []schema.StyleTag  `json:"styles"`
	Theme  schema.ThemeName   `json:"theme,omitempty"`
}

// Hub keeps a bounded, sequenced event history per console and broadcasts
// new events to stream subscribers.
type Hub struct {
	mu          sync.Mutex
	consoles    map[schema.ConsoleID]*consoleHub
	historySize int
}

type consoleHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 512
	}
	return &Hub{
		consoles:    make(map[schema.ConsoleID]*consoleHub),
		historySize: historySize,
	}
}

func styleTags(lines []string) []schema.StyleTag {
	styles := make([]schema.StyleTag, len(lines))
	for i, line := range lines {
		styles[i] = format.Classify(line)
	}
	return styles
}

// OnOutput implements core.EventSink.
func (h *Hub) OnOutput(event schema.OutputEvent) {
	logx.WithConsole(context.Background(), event.ConsoleID).Trace("hub output event", "lines", len(event.Lines))
	h.publish(event.ConsoleID, StreamEvent{
		Type:      "output",
		ConsoleID: event.ConsoleID,
		SessionID: event.SessionID,
		Index:     event.Index,
		Lines:     event.Lines,
		Styles:    styleTags(event.Lines),
		Timestamp: time.Now(),
	})
}

// OnStatus implements core.EventSink.
func (h *Hub) OnStatus(event schema.StatusEvent) {
	status := event.Status
	logx.WithConsole(context.Background(), event.ConsoleID).Trace("hub status event", "status", status)
	h.publish(event.ConsoleID, StreamEvent{
		Type:      "status",
		ConsoleID: event.ConsoleID,
		SessionID: event.SessionID,
		Status:    &status,
		Script:    event.Script,
		Timestamp: time.Now(),
	})
}

// OnConsoleEvent implements core.EventSink. History of a closed console is
// dropped after the close event reached current subscribers.
func (h *Hub) OnConsoleEvent(event schema.ConsoleEvent) {
	h.publish(event.ConsoleID, StreamEvent{
		Type:         "console",
		ConsoleID:    event.ConsoleID,
		ConsoleEvent: event.Type,
		Timestamp:    time.Now(),
	})
	if event.Type == schema.ConsoleEventClosed {
		h.mu.Lock()
		delete(h.consoles, event.ConsoleID)
		h.mu.Unlock()
	}
}

// Subscribe registers a subscriber for a console and returns the channel, an
// idempotent cancel func, and the last sequence number already published.
func (h *Hub) Subscribe(consoleID schema.ConsoleID) (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := h.getOrCreateLocked(consoleID)
	sub := make(chan StreamEvent, 256)
	ch.subs[sub] = struct{}{}
	seq := ch.seq
	log := logx.WithConsole(context.Background(), consoleID)
	log.Debug("hub subscribe", "subs", len(ch.subs), "seq", seq)
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(ch.subs, sub)
			close(sub)
			remaining := len(ch.subs)
			if remaining == 0 && ch.seq == 0 && h.consoles[consoleID] == ch {
				delete(h.consoles, consoleID)
			}
			h.mu.Unlock()
			log.Debug("hub unsubscribe", "subs", remaining)
		})
	}
	return sub, unsub, seq
}

// Replay returns retained events with seq greater than after and at most upTo.
func (h *Hub) Replay(consoleID schema.ConsoleID, after, upTo uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := h.consoles[consoleID]
	if ch == nil {
		return nil
	}
	events := make([]StreamEvent, 0, len(ch.history))
	for _, event := range ch.history {
		if event.Seq > after && event.Seq <= upTo {
			events = append(events, event)
		}
	}
	logx.WithConsole(context.Background(), consoleID).Debug("hub replay", "after", after, "count", len(events))
	return events
}

// publish stamps the event and delivers it without blocking. Delivery happens
// under the lock so an unsubscribe cannot close a channel mid-send.
func (h *Hub) publish(consoleID schema.ConsoleID, event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := h.getOrCreateLocked(consoleID)
	ch.seq++
	event.Seq = ch.seq
	ch.history = append(ch.history, event)
	if len(ch.history) > h.historySize {
		ch.history = append([]StreamEvent(nil), ch.history[len(ch.history)-h.historySize:]...)
	}
	dropped := 0
	for sub := range ch.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logx.WithConsole(context.Background(), consoleID).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateLocked(consoleID schema.ConsoleID) *consoleHub {
	ch := h.consoles[consoleID]
	if ch == nil {
		ch = &consoleHub{subs: make(map[chan StreamEvent]struct{})}
		h.consoles[consoleID] = ch
	}
	return ch
}
