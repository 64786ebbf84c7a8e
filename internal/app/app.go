package app

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"dagforge/internal/config"
	"dagforge/internal/runtime/supervisor"
	"dagforge/internal/server"
	logx "dagforge/pkg/logx"
)

// Options are the process-level inputs (flags).
type Options struct {
	// ConfigPath is the config file; empty means built-in defaults and no hot reload.
	ConfigPath string
	// Addr overrides http.addr when set.
	Addr string
	// LogLevel overrides logging.level when set.
	LogLevel string
}

type App struct {
	opts Options

	cfgm *config.ConfigManager
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service

	srv *server.Server
	sup *supervisor.Supervisor
}

func NewApp(opts Options) (*App, error) {
	var (
		cfgm *config.ConfigManager
		cfg  *config.Config
	)
	if strings.TrimSpace(opts.ConfigPath) != "" {
		cfgm = config.NewConfigManager(opts.ConfigPath)
		loaded, err := cfgm.Load()
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", opts.ConfigPath, err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg = opts.overlay(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(loggingConfig(cfg))

	a := &App{
		opts: opts,
		cfgm: cfgm,
		cfg:  cfg,
		log:  log.With(logx.String("comp", "app")),
		logs: logSvc,
	}
	a.srv = server.New(cfg, log, server.WithHealth(func() any {
		if a.sup == nil {
			return nil
		}
		return a.sup.Snapshot()
	}))
	return a, nil
}

// overlay applies flag overrides to a copy of cfg.
func (o Options) overlay(cfg *config.Config) *config.Config {
	cp := *cfg
	if a := strings.TrimSpace(o.Addr); a != "" {
		cp.HTTP.Addr = a
	}
	if l := strings.TrimSpace(o.LogLevel); l != "" {
		cp.Logging.Level = l
	}
	return &cp
}

func loggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// validateConfig holds the checks that need more than the decoder.
func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.AddrOrDefault()); err != nil {
		return fmt.Errorf("http.addr: %w", err)
	}
	return nil
}

func (a *App) Server() *server.Server { return a.srv }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// A listener that cannot bind is fatal; retrying a busy port a few
	// times covers quick restarts under systemd.
	a.sup.GoRestart("http", a.srv.ListenAndServe,
		supervisor.WithRestartBackoff(500*time.Millisecond, 5*time.Second),
		supervisor.WithMaxRestarts(3),
	)

	if a.cfgm != nil {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
			return validateConfig(a.opts.overlay(cfg))
		})
		a.sup.GoRestart("config.watch", a.cfgm.Watch)
		sub := a.cfgm.Subscribe(8)
		a.sup.Go("config.reload", func(c context.Context) error {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub)
			return nil
		})
	}

	a.log.Info("started",
		logx.String("addr", a.cfg.HTTP.AddrOrDefault()),
		logx.String("config", a.opts.ConfigPath),
		logx.Bool("metrics", a.cfg.Metrics.Enabled),
		logx.Bool("pprof", a.cfg.Pprof.Enabled),
	)
	notifySystemd(a.log, sdReady)
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			a.apply(a.opts.overlay(newCfg))
		}
	}
}

// apply pushes a new config into the live components.
func (a *App) apply(newCfg *config.Config) {
	ch := config.SummarizeConfigChange(a.cfg, newCfg)
	if len(ch.Sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(ch.Sections, ","))}, ch.Attrs...)
	a.log.Info("config reloaded", fields...)
	if ch.RestartRequired {
		a.log.Warn("http listener settings changed; restart required for them to take effect")
	}

	notifySystemd(a.log, sdReloading)
	if ch.Changed("logging") {
		a.logs.Apply(loggingConfig(newCfg))
	}
	a.srv.Reload(newCfg)
	a.cfg = newCfg
	notifySystemd(a.log, sdReady)
}

type StopReason string

const (
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	notifySystemd(a.log, sdStopping)

	err := a.sup.Stop(ctx)
	if err != nil && reason != StopFatalError {
		a.log.Warn("stop incomplete", logx.Err(err))
	}
	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return err
}
