package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

// DefaultGracefulTimeout bounds shutdown when WithGracefulTimeout is not given.
const DefaultGracefulTimeout = 15 * time.Second

// App owns the lifecycle of one scribe process. Components start in
// registration order, hooks run around them, and everything is stopped
// again on SIGINT, SIGTERM or when the caller's task returns.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(backend)
//	app.OnReady(announce)
//	err = app.Run(ctx)
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	onStart         []Hook
	onReady         []Hook
	onStop          []Hook
}

// NewApp applies defaults to cfg, validates it and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	set := newSettings(opts)
	svc := cfg.GetServiceConfig()

	if set.log == nil {
		logger.Init(&svc.Logging)
		set.log = logger.GetGlobalLogger()
	}
	return &App[C]{
		Name:            svc.Name,
		Version:         svc.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(set.log),
		Logger:          set.log,
		Summary:         NewSummary(svc.Name, svc.Version, set.out),
		gracefulTimeout: set.grace,
	}, nil
}

// RegisterComponent adds c to the start order.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck returns an error listing every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			s += " (" + h.Message + ")"
		}
		bad = append(bad, s)
	}
	if len(bad) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Run starts the process and blocks until a signal arrives or ctx ends.
func (a *App[C]) Run(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		a.Logger.Info("shutdown requested", logger.Fields("cause", context.Cause(ctx).Error()))
		return nil
	})
}

// RunTask starts the process, runs task and then shuts down. SIGINT and
// SIGTERM cancel the task's context. The task error wins over a shutdown
// error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.start(ctx); err != nil {
		return errors.Join(err, a.Shutdown())
	}
	taskErr := task(ctx)
	if err := a.Shutdown(); err != nil && taskErr == nil {
		return err
	}
	return taskErr
}

func (a *App[C]) start(ctx context.Context) error {
	begin := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("components: %w", err)
	}
	if err := runHooks(ctx, "start", a.onStart); err != nil {
		return err
	}
	// Sidecars may still be loading models; readiness is reported, not enforced.
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("started with unhealthy components", logger.ErrorFields("ready_check", err))
	}
	if err := runHooks(ctx, "ready", a.onReady); err != nil {
		return err
	}
	a.Summary.SetStartupDuration(time.Since(begin))
	a.Summary.Display(ctx, a.Components)
	return nil
}

// Shutdown runs the OnStop hooks and stops the started components, all
// within the graceful timeout. RunTask calls it; use it directly only when
// driving the lifecycle by hand.
func (a *App[C]) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hookErr := runHooks(ctx, "stop", a.onStop)
	if hookErr != nil {
		a.Logger.WithError(hookErr).Error("stop hook failed")
	}
	stopErr := a.Components.StopAll(ctx)
	err := errors.Join(hookErr, stopErr)
	a.Logger.Info("stopped", logger.Fields("clean", err == nil))
	return err
}
