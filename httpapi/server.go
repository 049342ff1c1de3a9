// Package httpapi serves the web console: a JSON API per browser page plus a
// server-sent event stream of console output.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/command"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// CommandHandler routes slash commands typed into a web console.
type CommandHandler interface {
	Handle(ctx context.Context, consoleID schema.ConsoleID, input string) (command.Result, bool, error)
}

const (
	tokenHeader         = "X-Console-Token"
	tokenQuery          = "token"
	defaultPingInterval = 15 * time.Second
)

// Server serves the HTTP API and web console.
type Server struct {
	cfg          Config
	service      core.Service
	cmdHandler   CommandHandler
	sessions     *sessionStore
	hub          *Hub
	basePath     string
	baseHref     string
	pingInterval time.Duration
	started      time.Time
}

// NewServer constructs an HTTP server. Every page session owns one console,
// closed when the session ends.
func NewServer(cfg Config, service core.Service, handler CommandHandler, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub(0)
	}
	s := &Server{
		cfg:          cfg,
		service:      service,
		cmdHandler:   handler,
		hub:          hub,
		basePath:     cfg.mountPath(),
		baseHref:     cfg.baseHref(),
		pingInterval: defaultPingInterval,
		started:      time.Now(),
	}
	s.sessions = newSessionStore(cfg.SessionTTL, nil, s.closeConsole)
	return s
}

// SetBaseContext sets the parent context for session lifetimes.
func (s *Server) SetBaseContext(ctx context.Context) {
	if s == nil || ctx == nil {
		return
	}
	s.sessions.setBaseContext(ctx)
}

// Sweep closes expired page sessions and their consoles.
func (s *Server) Sweep() int {
	return s.sessions.sweep()
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				pslog.Ctx(ctx).Info("http sessions swept", "count", n)
			}
		}
	}
}

// Close ends every page session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", assetHandler())

	mux.HandleFunc("/api/scripts", s.handleScripts)
	mux.HandleFunc("/api/console", s.handleOpen)
	mux.HandleFunc("/api/console/close", s.requireConsole(s.handleClose))
	mux.HandleFunc("/api/trigger", s.requireConsole(s.handleTrigger))
	mux.HandleFunc("/api/submit", s.requireConsole(s.handleSubmit))
	mux.HandleFunc("/api/draft", s.requireConsole(s.handleDraft))
	mux.HandleFunc("/api/log", s.requireConsole(s.handleLog))
	mux.HandleFunc("/api/scroll", s.requireConsole(s.handleScroll))
	mux.HandleFunc("/api/stream", s.requireConsole(s.handleStream))

	handler := withRequestLogging(mux, s.lookupSession)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := renderIndex(s.baseHref, s.cfg.Theme)
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", s.started, bytes.NewReader(data))
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.ListScripts(r.Context())
	if err != nil {
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type openResponse struct {
	Token     string           `json:"token"`
	ConsoleID schema.ConsoleID `json:"console_id"`
	ExpiresAt time.Time        `json:"expires_at"`
	Theme     schema.ThemeName `json:"theme,omitempty"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	resp, err := s.service.OpenConsole(r.Context(), schema.OpenConsoleRequest{Owner: "http:" + clientIP(r)})
	if err != nil {
		log.Warn("http console open failed", "err", err)
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	token, sess := s.sessions.create(resp.ConsoleID)
	log.Info("http console opened", "console", resp.ConsoleID, "http_session", sess.id)
	writeJSON(w, http.StatusOK, openResponse{
		Token:     token,
		ConsoleID: resp.ConsoleID,
		ExpiresAt: sess.expiresAt,
		Theme:     s.cfg.Theme,
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.sessions.delete(sessionToken(r))
	writeJSON(w, http.StatusOK, map[string]any{"closed": sess.consoleID})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		Script schema.ScriptName `json:"script"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http trigger decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.Trigger(r.Context(), schema.TriggerRequest{
		ConsoleID: sess.consoleID,
		Script:    payload.Script,
	})
	if err != nil {
		log.Warn("http trigger failed", "script", payload.Script, "err", err)
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	log.Debug("http trigger", "script", payload.Script, "accepted", resp.Accepted)
	writeJSON(w, http.StatusOK, resp)
}

type submitResponse struct {
	schema.SubmitResponse
	Handled bool     `json:"handled,omitempty"`
	Notices []string `json:"notices,omitempty"`
	Exit    bool     `json:"exit,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http submit decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input := strings.TrimSpace(payload.Input)
	if s.cmdHandler != nil {
		result, handled, err := s.cmdHandler.Handle(r.Context(), sess.consoleID, input)
		if handled {
			if err := s.service.SetDraft(r.Context(), schema.SetDraftRequest{ConsoleID: sess.consoleID}); err != nil {
				log.Debug("http draft clear failed", "err", err)
			}
			if err != nil {
				log.Warn("http command failed", "err", err)
				writeError(w, statusForError(err, http.StatusBadRequest), err)
				return
			}
			out := submitResponse{Handled: true, Notices: result.Notices, Exit: result.Exit}
			out.Route = "command"
			if result.Trigger != nil {
				out.Accepted = result.Trigger.Accepted
				out.SessionID = result.Trigger.SessionID
				out.Status = result.Trigger.Status
			}
			if result.Exit {
				s.sessions.delete(sessionToken(r))
			}
			writeJSON(w, http.StatusOK, out)
			return
		}
	}
	resp, err := s.service.Submit(r.Context(), schema.SubmitRequest{
		ConsoleID: sess.consoleID,
		Input:     input,
	})
	if err != nil {
		log.Warn("http submit failed", "err", err)
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	log.Debug("http submit", "accepted", resp.Accepted, "route", resp.Route)
	writeJSON(w, http.StatusOK, submitResponse{SubmitResponse: resp})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.service.SetDraft(r.Context(), schema.SetDraftRequest{ConsoleID: sess.consoleID, Text: payload.Text}); err != nil {
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.GetLog(r.Context(), schema.GetLogRequest{
		ConsoleID: sess.consoleID,
		Limit:     parseInt(r.URL.Query().Get("limit"), 0),
	})
	if err != nil {
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Log)
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request, sess session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Delta int `json:"delta"`
		Limit int `json:"limit"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ScrollLog(r.Context(), schema.ScrollLogRequest{
		ConsoleID: sess.consoleID,
		Delta:     payload.Delta,
		Limit:     payload.Limit,
	})
	if err != nil {
		writeError(w, statusForError(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Log)
}

func (s *Server) closeConsole(sess session) {
	if s.service == nil {
		return
	}
	err := s.service.CloseConsole(context.Background(), schema.CloseConsoleRequest{ConsoleID: sess.consoleID})
	if err != nil && !errors.Is(err, schema.ErrConsoleNotFound) {
		logx.WithConsole(context.Background(), sess.consoleID).Warn("http console close failed", "err", err)
	}
}

func (s *Server) requireConsole(next func(http.ResponseWriter, *http.Request, session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logx.Ctx(r.Context()).With("remote", clientIP(r))
		token := sessionToken(r)
		if token == "" {
			log.Warn("http console token missing")
			writeError(w, http.StatusUnauthorized, errors.New("missing console token"))
			return
		}
		entry, ok := s.sessions.get(token)
		if !ok {
			log.Warn("http console token invalid")
			writeError(w, http.StatusUnauthorized, errors.New("invalid console token"))
			return
		}
		log = log.With("console", entry.consoleID, "http_session", entry.id)
		ctx := logx.ContextWithConsoleLogger(r.Context(), log, entry.consoleID)
		next(w, r.WithContext(ctx), entry)
	}
}

func sessionToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(tokenHeader)); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get(tokenQuery))
}

func (s *Server) lookupSession(r *http.Request) (schema.ConsoleID, string) {
	if s == nil || r == nil {
		return "", ""
	}
	entry, ok := s.sessions.peek(sessionToken(r))
	if !ok {
		return "", ""
	}
	return entry.consoleID, entry.id
}

func statusForError(err error, fallback int) int {
	switch {
	case errors.Is(err, schema.ErrConsoleNotFound), errors.Is(err, schema.ErrUnknownScript):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidScriptName),
		errors.Is(err, schema.ErrInvalidScript),
		errors.Is(err, schema.ErrEmptyScript),
		errors.Is(err, schema.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrSessionRunning):
		return http.StatusConflict
	case errors.Is(err, schema.ErrConsoleClosed):
		return http.StatusGone
	case errors.Is(err, schema.ErrConsoleLimit):
		return http.StatusServiceUnavailable
	default:
		return fallback
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
