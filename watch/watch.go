package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/scribe/logger"
)

// DefaultExtensions are the audio and video containers picked up when
// Config.Extensions is empty.
var DefaultExtensions = []string{".wav", ".mp3", ".m4a", ".flac", ".ogg", ".opus", ".aac", ".webm", ".mp4", ".mkv"}

// Config configures a Watcher.
type Config struct {
	// Settle is how long a file must go without events before it is submitted.
	Settle time.Duration `mapstructure:"settle" yaml:"settle"`
	// Extensions filters files by lower-case extension, including the dot.
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	// Existing submits files already in the directory at startup.
	Existing bool `mapstructure:"existing" yaml:"existing"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Settle <= 0 {
		c.Settle = 2 * time.Second
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
}

// SubmitFunc processes one batch of settled files. It runs on the watcher
// goroutine, so events queue up while a batch is in progress.
type SubmitFunc func(ctx context.Context, paths []string)

// Watcher batches new files in a directory.
type Watcher struct {
	cfg    Config
	submit SubmitFunc
	log    *logger.Logger
	exts   map[string]bool

	mu      sync.Mutex
	pending map[string]time.Time
	done    map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(log *logger.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New creates a Watcher that calls submit with each batch.
func New(cfg Config, submit SubmitFunc, opts ...Option) *Watcher {
	cfg.ApplyDefaults()
	w := &Watcher{
		cfg:     cfg,
		submit:  submit,
		log:     logger.NewNop(),
		exts:    make(map[string]bool, len(cfg.Extensions)),
		pending: make(map[string]time.Time),
		done:    make(map[string]bool),
	}
	for _, ext := range cfg.Extensions {
		w.exts[strings.ToLower(ext)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("watch")
	return w
}

// Run watches dir until ctx is done. Submitted files are remembered and only
// picked up again after they are removed and recreated.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.log.Warn("Failed to close watcher", logger.Fields("error", err.Error()))
		}
	}()
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if w.cfg.Existing {
		if err := w.seed(dir, time.Now()); err != nil {
			return err
		}
	}

	w.log.Info("Watching directory", logger.Fields("dir", dir, "settle", w.cfg.Settle.String()))

	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("File watcher error", logger.Fields("error", err.Error()))
		case now := <-ticker.C:
			if paths := w.settled(now); len(paths) > 0 {
				w.log.Info("Submitting settled files", logger.Fields("count", len(paths)))
				w.submit(ctx, paths)
			}
		}
	}
}

func (w *Watcher) seed(dir string, now time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.Type().IsRegular() && w.matches(path) {
			w.pending[path] = now
		}
	}
	return nil
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

// handle records an event at now.
func (w *Watcher) handle(ev fsnotify.Event, now time.Time) {
	if !w.matches(ev.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
		delete(w.done, ev.Name)
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if w.done[ev.Name] {
			return
		}
		w.pending[ev.Name] = now
	}
}

// settled removes and returns, sorted, the pending files whose last event
// is at least Settle before now.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) < w.cfg.Settle {
			continue
		}
		delete(w.pending, path)
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		w.done[path] = true
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
