package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/logger"
)

// Config is any application config embedding config.ServiceConfig with
// mapstructure squash. ApplyDefaults and Validate cover the extra sections
// and then delegate to the embedded ServiceConfig.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

// Option tunes NewApp for any config type.
type Option func(*settings)

type settings struct {
	log   *logger.Logger
	grace time.Duration
	out   io.Writer
}

func newSettings(opts []Option) settings {
	s := settings{grace: DefaultGracefulTimeout, out: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger skips initializing the global logger from the Logging section.
func WithLogger(l *logger.Logger) Option { return func(s *settings) { s.log = l } }

// WithGracefulTimeout bounds Shutdown. Zero keeps DefaultGracefulTimeout.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithSummaryOutput sends the startup summary to w instead of stderr,
// which keeps stdout for transcripts.
func WithSummaryOutput(w io.Writer) Option { return func(s *settings) { s.out = w } }

// Hook runs at a lifecycle point. A failing start or ready hook aborts
// startup; a failing stop hook is logged and teardown carries on.
type Hook func(ctx context.Context) error

// OnStart adds hooks that run once every component has started.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady adds hooks that run after the ready check, just before the task.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop adds hooks that run before components stop.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

func runHooks(ctx context.Context, stage string, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", stage, i, err)
		}
	}
	return nil
}
