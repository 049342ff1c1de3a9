package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/yukora"
	"pkt.systems/yukora/httpapi"
	"pkt.systems/yukora/internal/appconfig"
	"pkt.systems/yukora/internal/version"
	"pkt.systems/yukora/schema"
)

//go:embed assets/banner.txt
var serveBanner string

func newServeCmd() *cobra.Command {
	var opts runtimeOptions
	var disableAuditTrails bool
	var noBanner bool
	var noHTTP bool
	var noSSH bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SSH and HTTP playback consoles",
		RunE: func(cmd *cobra.Command, args []string) error {
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			showBanner := !noBanner && logMode != "json" && logMode != "structured"
			if showBanner && serveBanner != "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), serveBanner)
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			serverOpts, err := serverOptions(noHTTP, noSSH)
			if err != nil {
				return err
			}
			logger.Info("yukora starting", "version", version.Current(), "theme", cfg.Theme, "scripts_file", cfg.Scripts.File)
			deps, err := serviceDeps(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			serverCfg := toServerConfig(cfg, disableAuditTrails)
			server, err := yukora.New(serverCfg, yukora.ServerDeps{ServiceDeps: deps}, serverOpts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&opts.scriptFile, "scripts", "", "YAML script pack (overrides scripts.file)")
	cmd.Flags().Float64Var(&opts.timeScale, "time-scale", 0, "multiply every script delay (overrides console.time_scale)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", fmt.Sprintf("terminal and web theme %v", schema.AvailableThemes()))
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit logging of slash commands")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not serve the web console")
	cmd.Flags().BoolVar(&noSSH, "no-ssh", false, "do not serve the SSH console")
	return cmd
}

func serverOptions(noHTTP, noSSH bool) ([]yukora.ServerOption, error) {
	var opts []yukora.ServerOption
	if !noHTTP {
		opts = append(opts, yukora.WithHTTP())
	}
	if !noSSH {
		opts = append(opts, yukora.WithSSH())
	}
	if len(opts) == 0 {
		return nil, errors.New("--no-http and --no-ssh leave nothing to serve")
	}
	return opts, nil
}

func toServerConfig(cfg appconfig.Config, disableAuditTrails bool) yukora.ServerConfig {
	return yukora.ServerConfig{
		Service:             cfg.ServiceConfig(),
		HTTP:                toHTTPConfig(cfg.HTTP),
		SSH:                 toSSHConfig(cfg.SSH),
		Theme:               themeName(cfg),
		HubHistory:          cfg.HTTP.HubHistory,
		DisableAuditLogging: disableAuditTrails,
	}
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:       cfg.Addr,
		BaseURL:    cfg.BaseURL,
		BasePath:   cfg.BasePath,
		SessionTTL: time.Duration(cfg.SessionTTLMinutes) * time.Minute,
	}
}

func toSSHConfig(cfg appconfig.SSHConfig) yukora.SSHConfig {
	return yukora.SSHConfig{
		Addr:        cfg.Addr,
		HostKeyPath: cfg.HostKeyPath,
		IdlePrompt:  cfg.IdlePrompt,
	}
}
