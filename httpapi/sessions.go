package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"pkt.systems/yukora/internal/clock"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

// session binds a page token to the console opened for that page.
type session struct {
	id        string
	consoleID schema.ConsoleID
	expiresAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// sessionStore tracks page sessions with a sliding TTL. Sessions that expire or
// are deleted are handed to onClose so their console can be torn down.
type sessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	baseCtx context.Context
	items   map[string]*session
	onClose func(session)
}

func newSessionStore(ttl time.Duration, clk clock.Clock, onClose func(session)) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if onClose == nil {
		onClose = func(session) {}
	}
	return &sessionStore{
		ttl:     ttl,
		clock:   clk,
		baseCtx: context.Background(),
		items:   make(map[string]*session),
		onClose: onClose,
	}
}

func (s *sessionStore) create(consoleID schema.ConsoleID) (string, session) {
	token := randomToken(32)
	s.mu.Lock()
	ctx, cancel := context.WithCancel(s.baseCtx)
	entry := &session{
		id:        randomToken(9),
		consoleID: consoleID,
		expiresAt: s.clock.Now().Add(s.ttl),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.items[token] = entry
	s.mu.Unlock()
	logx.WithConsole(context.Background(), consoleID).With("http_session", entry.id).Info("session created", "expires", entry.expiresAt.Format(time.RFC3339))
	return token, *entry
}

// get returns the session for token and extends its lifetime.
func (s *sessionStore) get(token string) (session, bool) {
	if token == "" {
		return session{}, false
	}
	now := s.clock.Now()
	s.mu.Lock()
	entry, ok := s.items[token]
	if !ok {
		s.mu.Unlock()
		return session{}, false
	}
	if now.After(entry.expiresAt) {
		delete(s.items, token)
		s.mu.Unlock()
		s.finish(*entry, "expired")
		return session{}, false
	}
	entry.expiresAt = now.Add(s.ttl)
	out := *entry
	s.mu.Unlock()
	return out, true
}

// peek returns the session without extending it.
func (s *sessionStore) peek(token string) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[token]
	if !ok {
		return session{}, false
	}
	return *entry, true
}

func (s *sessionStore) delete(token string) bool {
	s.mu.Lock()
	entry, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	s.mu.Unlock()
	if ok {
		s.finish(*entry, "deleted")
	}
	return ok
}

// deleteConsole drops the session bound to consoleID, if any.
func (s *sessionStore) deleteConsole(consoleID schema.ConsoleID) {
	s.mu.Lock()
	var token string
	for t, entry := range s.items {
		if entry.consoleID == consoleID {
			token = t
			break
		}
	}
	s.mu.Unlock()
	if token != "" {
		s.delete(token)
	}
}

// sweep removes every expired session and reports how many were removed.
func (s *sessionStore) sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	var expired []session
	for token, entry := range s.items {
		if now.After(entry.expiresAt) {
			delete(s.items, token)
			expired = append(expired, *entry)
		}
	}
	s.mu.Unlock()
	for _, entry := range expired {
		s.finish(entry, "expired")
	}
	return len(expired)
}

// closeAll removes every session.
func (s *sessionStore) closeAll() {
	s.mu.Lock()
	entries := make([]session, 0, len(s.items))
	for token, entry := range s.items {
		delete(s.items, token)
		entries = append(entries, *entry)
	}
	s.mu.Unlock()
	for _, entry := range entries {
		s.finish(entry, "shutdown")
	}
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// finish closes the console before cancelling the session so open streams
// still see the close event.
func (s *sessionStore) finish(entry session, reason string) {
	logx.WithConsole(context.Background(), entry.consoleID).With("http_session", entry.id).Info("session ended", "reason", reason)
	s.onClose(entry)
	if entry.cancel != nil {
		entry.cancel()
	}
}

func (s *sessionStore) setBaseContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
}

func randomToken(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
