// Package sshserver hosts one playback console per SSH session.
package sshserver

import (
	"context"
	"errors"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/command"
	"pkt.systems/yukora/internal/eventbus"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

const defaultIdlePrompt = "> "

// CommandHandler routes slash commands typed into a console.
type CommandHandler interface {
	Handle(ctx context.Context, consoleID schema.ConsoleID, input string) (command.Result, bool, error)
}

// Server exposes playback consoles over SSH. Authentication is not performed;
// every client gets its own console.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Service     core.Service
	Handler     CommandHandler
	EventBus    *eventbus.Bus
	IdlePrompt  string
	Theme       schema.ThemeName
	logger      pslog.Logger
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("ssh server requires a service")
	}
	if s.IdlePrompt == "" {
		s.IdlePrompt = defaultIdlePrompt
	}
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}

	signer, created, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}
	fingerprint := ssh.FingerprintSHA256(signer.PublicKey())
	if created {
		s.logger.Info("ssh host key generated", "path", s.HostKeyPath, "fingerprint", fingerprint)
	}

	server := &gliderssh.Server{
		Addr:    s.Addr,
		Handler: s.handleSession,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			s.logger.Info("ssh listening", "addr", s.Listener.Addr().String(), "fingerprint", fingerprint)
			errCh <- server.Serve(s.Listener)
			return
		}
		s.logger.Info("ssh listening", "addr", s.Addr, "fingerprint", fingerprint)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	remote := sess.RemoteAddr().String()
	log = log.With("user", sess.User(), "remote", remote)
	if id := sess.Context().SessionID(); id != "" {
		log = log.With("ssh_session", id)
	}

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}

	base := pslog.ContextWithLogger(sess.Context(), log)
	opened, err := s.Service.OpenConsole(base, schema.OpenConsoleRequest{Owner: "ssh:" + sess.User() + "@" + remote})
	if err != nil {
		log.Warn("ssh session rejected", "reason", "open console", "err", err)
		_, _ = io.WriteString(sess, "console unavailable: "+err.Error()+"\n")
		_ = sess.Exit(1)
		return
	}
	consoleID := opened.ConsoleID
	ctx := logx.ContextWithConsoleLogger(base, logx.WithConsole(base, consoleID), consoleID)
	defer func() {
		if err := s.Service.CloseConsole(context.WithoutCancel(ctx), schema.CloseConsoleRequest{ConsoleID: consoleID}); err != nil && !errors.Is(err, schema.ErrConsoleNotFound) {
			pslog.Ctx(ctx).Warn("ssh console close failed", "err", err)
		}
	}()

	log = pslog.Ctx(ctx)
	log.Info("ssh session opened", "term", pty.Term)
	events, unsubscribe := s.EventBus.Subscribe(consoleID)
	defer unsubscribe()

	ui := newTerminalSession(sess, s.Service, s.Handler, consoleID, s.IdlePrompt, s.Theme, events)
	ui.SetSize(pty.Window.Width, pty.Window.Height)
	_ = ui.Run(ctx, winCh)
	log.Info("ssh session closed", "term", pty.Term)
}
