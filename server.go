// Package yukora composes the playback service with its SSH and HTTP hosts.
package yukora

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/httpapi"
	"pkt.systems/yukora/internal/command"
	"pkt.systems/yukora/internal/eventbus"
	"pkt.systems/yukora/schema"
	"pkt.systems/yukora/sshserver"
)

// Server composes the HTTP and SSH consoles around one playback service.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service             schema.ServiceConfig
	HTTP                httpapi.Config
	SSH                 SSHConfig
	Theme               schema.ThemeName
	HubHistory          int
	JanitorInterval     time.Duration
	DisableAuditLogging bool
}

// SSHConfig configures the SSH console host.
type SSHConfig struct {
	Addr        string
	HostKeyPath string
	IdlePrompt  string
}

// ServerDeps captures dependencies required to build the server. Listeners
// override the configured addresses when set.
type ServerDeps struct {
	ServiceDeps  core.ServiceDeps
	HTTPListener net.Listener
	SSHListener  net.Listener
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableSSH  bool
}

// WithHTTP enables the HTTP API and web console.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH console.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// New constructs a composable yukora server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized
	if cfg.HTTP.Theme == "" {
		cfg.HTTP.Theme = cfg.Theme
	}

	serviceDeps := deps.ServiceDeps
	var hub *httpapi.Hub
	var bus *eventbus.Bus
	sinks := make([]core.EventSink, 0, 3)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HubHistory)
		sinks = append(sinks, hub)
	}
	if options.enableSSH {
		bus = eventbus.New(serviceDeps.Logger)
		sinks = append(sinks, bus)
	}
	if len(sinks) == 1 {
		serviceDeps.EventSink = sinks[0]
	} else {
		serviceDeps.EventSink = eventFanout{sinks: sinks}
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}
	cmdHandler := command.NewHandler(service, command.HandlerConfig{
		DisableAuditLogging: cfg.DisableAuditLogging,
	})

	srv := &compositeServer{
		cfg:          cfg,
		options:      options,
		service:      service,
		httpListener: deps.HTTPListener,
	}
	if options.enableHTTP {
		srv.httpSrv = httpapi.NewServer(cfg.HTTP, service, cmdHandler, hub)
	}
	if options.enableSSH {
		srv.sshSrv = &sshserver.Server{
			Addr:        cfg.SSH.Addr,
			HostKeyPath: cfg.SSH.HostKeyPath,
			Listener:    deps.SSHListener,
			Service:     service,
			Handler:     cmdHandler,
			EventBus:    bus,
			IdlePrompt:  cfg.SSH.IdlePrompt,
			Theme:       cfg.Theme,
		}
	}
	return srv, nil
}

type compositeServer struct {
	cfg          ServerConfig
	options      serverOptions
	service      core.Service
	httpSrv      *httpapi.Server
	sshSrv       *sshserver.Server
	httpListener net.Listener
	logger       pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	wg      sync.WaitGroup
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"ssh_addr", s.cfg.SSH.Addr,
		"time_scale", s.cfg.Service.TimeScale,
	)
	if s.httpSrv != nil {
		s.httpSrv.SetBaseContext(s.ctx)
		s.run(func() error {
			if s.httpListener != nil {
				return httpapi.Serve(s.ctx, s.httpListener, s.httpSrv.Handler())
			}
			return httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler())
		}, "http server failed")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.httpSrv.RunJanitor(s.ctx, s.cfg.JanitorInterval)
		}()
	}
	if s.sshSrv != nil {
		s.run(func() error {
			return s.sshSrv.ListenAndServe(s.ctx)
		}, "ssh server failed")
	}
	return nil
}

func (s *compositeServer) run(fn func() error, msg string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.logger.Error(msg, "err", err)
			s.errCh <- err
		}
	}()
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		pslog.Ctx(ctx).Error("server stopped", "err", err)
		_ = s.Stop(context.Background())
		return err
	}
}

// Stop cancels the hosts, ends web sessions and closes every console, then
// waits for the listeners to return or ctx to expire.
func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
	}
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
	s.service.Close()
	log.Info("server stopped")
	return nil
}
