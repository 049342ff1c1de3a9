package httpapi

import (
	"errors"
	"net/http"
	"time"

	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// handleStream sends a snapshot, replays events after Last-Event-ID, then
// forwards live events until the console closes or the client goes away.
// Output events may overlap the snapshot; clients apply lines by index.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	ch, unsubscribe, seq := s.hub.Subscribe(sess.consoleID)
	defer unsubscribe()

	logResp, err := s.service.GetLog(r.Context(), schema.GetLogRequest{ConsoleID: sess.consoleID})
	if err != nil {
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		ConsoleID: sess.consoleID,
		SessionID: logResp.Log.SessionID,
		Snapshot: &SnapshotPayload{
			Log:    logResp.Log,
			Styles: styleTags(logResp.Log.Lines),
			Theme:  s.cfg.Theme,
		},
		Timestamp: time.Now(),
	})

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	replayCount := 0
	if lastID > 0 && lastID < seq {
		replay := s.hub.Replay(sess.consoleID, lastID, seq)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
	}
	flusher.Flush()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	token := sessionToken(r)
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "lines", len(logResp.Log.Lines))
	for {
		select {
		case <-r.Context().Done():
			log.Info("http stream closed", "reason", "client")
			return
		case <-sess.ctx.Done():
			drainStream(w, ch)
			flusher.Flush()
			log.Info("http stream closed", "reason", "session")
			return
		case <-ping.C:
			if _, ok := s.sessions.get(token); !ok {
				log.Info("http stream closed", "reason", "expired")
				return
			}
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSEvent(w, event); err != nil {
				log.Debug("http stream write failed", "err", err)
				return
			}
			flusher.Flush()
			if event.Type == "console" && event.ConsoleEvent == schema.ConsoleEventClosed {
				log.Info("http stream closed", "reason", "console")
				return
			}
		}
	}
}

// drainStream writes events already queued for the subscriber.
func drainStream(w http.ResponseWriter, ch <-chan StreamEvent) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSEvent(w, event); err != nil {
				return
			}
		default:
			return
		}
	}
}
