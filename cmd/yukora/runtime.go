package main

import (
	"context"
	"fmt"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/appconfig"
	"pkt.systems/yukora/internal/scripts"
	"pkt.systems/yukora/schema"
)

// runtimeOptions are flag overrides shared by the local commands.
type runtimeOptions struct {
	configPath string
	scriptFile string
	timeScale  float64
	theme      string
}

func (o runtimeOptions) load() (appconfig.Config, error) {
	cfg, err := appconfig.Load(o.configPath)
	if err != nil {
		return appconfig.Config{}, err
	}
	if o.scriptFile != "" {
		cfg.Scripts.File = o.scriptFile
	}
	if o.timeScale != 0 {
		if o.timeScale < 0 {
			return appconfig.Config{}, fmt.Errorf("time scale must be positive, got %v", o.timeScale)
		}
		cfg.Console.TimeScale = o.timeScale
	}
	if o.theme != "" {
		cfg.Theme = o.theme
	}
	return cfg, nil
}

func themeName(cfg appconfig.Config) schema.ThemeName {
	name, ok := schema.NormalizeThemeName(cfg.Theme)
	if !ok {
		return schema.DefaultTheme
	}
	return name
}

func serviceDeps(ctx context.Context, cfg appconfig.Config, sink core.EventSink) (core.ServiceDeps, error) {
	catalog, registry, err := scripts.Open(cfg.Scripts.File)
	if err != nil {
		return core.ServiceDeps{}, err
	}
	logger := pslog.Ctx(ctx)
	if cfg.Scripts.File != "" {
		logger.Info("script pack loaded", "path", cfg.Scripts.File, "scripts", catalog.Len())
	}
	return core.ServiceDeps{
		Catalog:   catalog,
		Registry:  registry,
		EventSink: sink,
		Logger:    logger,
	}, nil
}

func newLocalService(ctx context.Context, cfg appconfig.Config, sink core.EventSink) (core.Service, error) {
	deps, err := serviceDeps(ctx, cfg, sink)
	if err != nil {
		return nil, err
	}
	return core.NewService(cfg.ServiceConfig(), deps)
}
