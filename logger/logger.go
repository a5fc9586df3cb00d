package logger

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zerolog logger bound to one service.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// Init replaces the global logger with one built from cfg.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	SetGlobalLogger(New(cfg, cmp.Or(cfg.ServiceName, "scribe")))
}

// New builds a logger writing to the sink selected by cfg.Output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(sink(cfg), cfg, service)
}

// NewWithWriter builds a logger writing to w. The json format emits one
// object per line; every other format is rendered for a terminal.
func NewWithWriter(w io.Writer, cfg *Config, service string) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var zc zerolog.Context
	if cfg.console() {
		zc = zerolog.New(consoleWriter(w, cfg, service)).With()
	} else {
		zc = zerolog.New(w).With().Str(FieldService, service)
	}
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1)
	}
	return &Logger{zl: zc.Logger().Level(level), service: service}
}

// NewDefault logs info and above to stdout in console format.
func NewDefault(service string) *Logger {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return New(cfg, service)
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), service: "nop"}
}

func (l *Logger) derive(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: fn(l.zl.With()).Logger(), service: l.service}
}

// WithComponent tags every entry with a component such as "job" or "api".
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, name) })
}

// WithFields attaches fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithError attaches err to every entry.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	batchIDKey
)

// ContextWithRequestID stores the HTTP request ID for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithBatchID stores the batch ID for WithContext.
func ContextWithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// WithContext attaches the request and batch IDs stored in ctx, plus the
// trace and span IDs of the active OpenTelemetry span.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context {
		if id, ok := ctx.Value(requestIDKey).(string); ok {
			c = c.Str(FieldRequestID, id)
		}
		if id, ok := ctx.Value(batchIDKey).(string); ok {
			c = c.Str(FieldBatchID, id)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			c = c.Str(FieldTraceID, sc.TraceID().String()).Str(FieldSpanID, sc.SpanID().String())
		}
		return c
	})
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

// Fatal logs and exits with status 1.
func (l *Logger) Fatal(msg string, fields ...map[string]any) { emit(l.zl.Fatal(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields []map[string]any) {
	for _, f := range fields {
		e = e.Fields(f)
	}
	e.Msg(msg)
}

var global atomic.Pointer[Logger]

// SetGlobalLogger replaces the logger used by Get and the package-level
// functions.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the global logger, creating a console logger on
// first use when Init was never called.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, NewDefault("scribe"))
	return global.Load()
}

func Debug(msg string, fields ...map[string]any) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { GetGlobalLogger().Error(msg, fields...) }

// sink resolves cfg.Output. File output is rotated by lumberjack.
func sink(cfg *Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case OutputStderr:
		return os.Stderr
	case OutputFile:
		if cfg.File == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		}
	default:
		return os.Stdout
	}
}

var levelStyle = map[string]struct{ tag, color string }{
	"trace": {"TRC", "\033[90m"},
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

// consoleWriter renders "15:04:05 [SCR][INF] msg key:value". The service tag
// is the first three letters of the service name.
func consoleWriter(w io.Writer, cfg *Config, service string) zerolog.ConsoleWriter {
	noColor := cfg.NoColor || strings.ToLower(cfg.Output) == OutputFile
	prefix := ""
	if len(service) >= 3 {
		prefix = "[" + strings.ToUpper(service[:3]) + "]"
		if !noColor {
			prefix = "\033[34m" + prefix + "\033[0m"
		}
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i any) string {
			lvl := fmt.Sprint(i)
			s, ok := levelStyle[lvl]
			if !ok {
				return prefix + "[" + strings.ToUpper(lvl) + "]"
			}
			if noColor {
				return prefix + "[" + s.tag + "]"
			}
			return prefix + s.color + "[" + s.tag + "]\033[0m"
		},
		FormatFieldName:  func(i any) string { return fmt.Sprintf("%s:", i) },
		FormatFieldValue: func(i any) string { return fmt.Sprint(i) },
	}
}
