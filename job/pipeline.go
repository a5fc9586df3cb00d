package job

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/scribe/align"
	"github.com/kbukum/scribe/audio"
	"github.com/kbukum/scribe/diarization"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/storage/local"
	"github.com/kbukum/scribe/transcription"
)

// Config holds the per-job limits.
type Config struct {
	// WorkDir is the parent of every job workspace. Defaults to the OS temp dir.
	WorkDir           string        `mapstructure:"work_dir" yaml:"work_dir"`
	NormalizeTimeout  time.Duration `mapstructure:"normalize_timeout" yaml:"normalize_timeout"`
	TranscribeTimeout time.Duration `mapstructure:"transcribe_timeout" yaml:"transcribe_timeout"`
	DiarizeTimeout    time.Duration `mapstructure:"diarize_timeout" yaml:"diarize_timeout"`
	// Language is passed to the transcription backend; empty auto-detects.
	Language string `mapstructure:"language" yaml:"language"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "scribe")
	}
	if c.NormalizeTimeout == 0 {
		c.NormalizeTimeout = 2 * time.Minute
	}
	if c.TranscribeTimeout == 0 {
		c.TranscribeTimeout = 10 * time.Minute
	}
	if c.DiarizeTimeout == 0 {
		c.DiarizeTimeout = 10 * time.Minute
	}
}

// Normalizer converts an input file into canonical audio inside workDir.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, workDir string) (*audio.Canonical, error)
}

// Pipeline runs jobs. It is safe for concurrent use; every Run has its own
// workspace and result.
type Pipeline struct {
	cfg         Config
	normalizer  Normalizer
	transcriber transcription.Provider
	diarizer    diarization.Provider
	alignOpts   []align.Option
	log         *logger.Logger
	metrics     *observability.PipelineMetrics
	newID       func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics records stage durations and job outcomes.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithAlignOptions passes options to align.Align.
func WithAlignOptions(opts ...align.Option) Option {
	return func(p *Pipeline) { p.alignOpts = append(p.alignOpts, opts...) }
}

// WithIDGenerator replaces the UUID job id generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg Config, n Normalizer, t transcription.Provider, d diarization.Provider, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	p := &Pipeline{
		cfg:         cfg,
		normalizer:  n,
		transcriber: t,
		diarizer:    d,
		log:         logger.NewNop(),
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewJobID returns an id from the pipeline's generator.
func (p *Pipeline) NewJobID() string { return p.newID() }

// Run processes in and returns its Result.
func (p *Pipeline) Run(ctx context.Context, in Input) Result {
	return p.RunWithID(ctx, p.newID(), in)
}

// RunWithID is Run with a caller-assigned job id.
func (p *Pipeline) RunWithID(ctx context.Context, id string, in Input) (res Result) {
	start := time.Now()
	res = Result{JobID: id, Name: in.Name, State: StateReceived, StartedAt: start}

	ctx, span := observability.StartSpan(ctx, observability.SpanJob)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrJobID, id)
	observability.SetSpanAttribute(ctx, observability.AttrJobName, in.Name)

	log := p.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldJobID, id, "name", in.Name))
	p.metrics.JobStarted(ctx)

	defer func() {
		res.Duration = time.Since(start)
		fields := logger.Fields(logger.FieldDuration, res.Duration.Milliseconds())
		if res.Failure != nil {
			observability.SetSpanAttribute(ctx, observability.AttrStage, string(res.Failure.Stage))
			observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(res.Failure.Code))
			p.metrics.JobFinished(ctx, observability.StatusFailed, string(res.Failure.Stage))
			fields[logger.FieldStage] = res.Failure.Stage
			fields["code"] = res.Failure.Code
			fields[logger.FieldError] = res.Failure.Message
			log.Warn("job failed", fields)
			return
		}
		p.metrics.JobFinished(ctx, observability.StatusSucceeded, "")
		fields["lines"] = len(res.Lines)
		log.Info("job succeeded", fields)
	}()

	advance := func(s State) {
		res.State = s
		observability.AddSpanEvent(ctx, "job.state", observability.AttrState, string(s))
		log.Debug("state changed", logger.Fields("state", s))
	}
	fail := func(stage Stage, err error) Result {
		observability.SetSpanError(ctx, err)
		res.State = StateFailed
		res.Failure = NewFailure(stage, err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(StageReceive, contextFailure(StageReceive, err))
	}
	ws, err := local.NewStorage(filepath.Join(p.cfg.WorkDir, id))
	if err != nil {
		return fail(StageReceive, apperrors.IOError("create workspace", err))
	}
	defer p.purge(context.WithoutCancel(ctx), ws, log)

	inputPath, err := safely(log, StageReceive, func() (string, error) { return p.stage(ctx, ws, in) })
	if err != nil {
		return fail(StageReceive, err)
	}

	canonical, err := runStage(ctx, p, log, StageNormalize, p.cfg.NormalizeTimeout,
		func(ctx context.Context) (*audio.Canonical, error) {
			return p.normalizer.Normalize(ctx, inputPath, ws.Root())
		})
	if err != nil {
		return fail(StageNormalize, err)
	}
	advance(StateNormalized)
	if canonical.Converted && canonical.Path != inputPath {
		if err := ws.Delete(ctx, filepath.Base(inputPath)); err != nil {
			log.Debug("staged input kept", logger.ErrorFields("delete", err))
		}
	}

	tr, err := runStage(ctx, p, log, StageTranscribe, p.cfg.TranscribeTimeout,
		func(ctx context.Context) (*transcription.Response, error) {
			return p.transcriber.Transcribe(ctx, transcription.Request{
				AudioPath: canonical.Path,
				Language:  p.cfg.Language,
			})
		})
	if err != nil {
		return fail(StageTranscribe, err)
	}
	advance(StateTranscribed)
	res.Transcript = tr.Segments
	res.Language = tr.Language

	dr, err := runStage(ctx, p, log, StageDiarize, p.cfg.DiarizeTimeout,
		func(ctx context.Context) (*diarization.Response, error) {
			if ok, err := ws.Exists(ctx, filepath.Base(canonical.Path)); !ok {
				return nil, apperrors.IOError("open canonical audio", cmp.Or(err, fs.ErrNotExist))
			}
			return p.diarizer.Diarize(ctx, diarization.Request{AudioPath: canonical.Path})
		})
	if err != nil {
		return fail(StageDiarize, err)
	}
	advance(StateDiarized)
	res.Speakers = dr.Segments

	if err := ctx.Err(); err != nil {
		return fail(StageAlign, contextFailure(StageAlign, err))
	}
	lines, err := safely(log, StageAlign, func() ([]align.Line, error) {
		return align.Align(res.Transcript, res.Speakers, p.alignOpts...), nil
	})
	if err != nil {
		return fail(StageAlign, err)
	}
	res.Lines = lines
	advance(StateAligned)

	advance(StateSucceeded)
	return res
}

// purge drops the job workspace, logging what it held.
func (p *Pipeline) purge(ctx context.Context, ws storage.Workspace, log *logger.Logger) {
	if files, err := ws.List(ctx, ""); err == nil {
		var size int64
		for _, f := range files {
			size += f.Size
		}
		log.Debug("purging workspace", logger.Fields("files", len(files), "bytes", size, "path", ws.Root()))
	}
	if err := ws.Purge(ctx); err != nil {
		log.Warn("workspace not removed", logger.Fields(logger.FieldError, err.Error(), "path", ws.Root()))
	}
}

// stage copies the payload into the workspace as input<ext>.
func (p *Pipeline) stage(ctx context.Context, ws storage.Workspace, in Input) (string, error) {
	if in.Open == nil {
		return "", apperrors.InvalidInput("input", "no payload")
	}
	rc, err := in.Open()
	if err != nil {
		return "", apperrors.IOError("open input", err)
	}
	defer rc.Close()

	name := "input" + sanitizeExt(filepath.Ext(in.Name))
	if _, err := ws.Upload(ctx, name, rc); err != nil {
		return "", apperrors.IOError("stage input", err)
	}
	path, err := ws.LocalPath(name)
	if err != nil {
		return "", apperrors.IOError("stage input", err)
	}
	return path, nil
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if len(ext) > 8 {
		return ""
	}
	return ext
}

// runStage runs fn under a stage span and timeout and classifies its error.
func runStage[T any](ctx context.Context, p *Pipeline, log *logger.Logger, stage Stage, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, contextFailure(stage, err)
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	sctx, span := observability.StartSpan(sctx, "job."+string(stage))
	defer span.End()

	start := time.Now()
	v, err := safely(log, stage, func() (T, error) { return fn(sctx) })
	elapsed := time.Since(start)

	if err != nil {
		err = classify(ctx, sctx, stage, err)
		observability.SetSpanError(sctx, err)
	}
	p.metrics.RecordStage(ctx, string(stage), elapsed, err)
	log.Debug("stage finished", logger.Fields(
		logger.FieldStage, stage,
		logger.FieldDuration, elapsed.Milliseconds(),
		logger.FieldStatus, statusOf(err),
	))
	return v, err
}

// safely runs fn, turning a panic into an INTERNAL_ERROR for stage.
func safely[T any](log *logger.Logger, stage Stage, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("stage panicked", logger.Fields(
				logger.FieldStage, stage,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			err = apperrors.Internal(fmt.Errorf("panic in %s: %v", stage, r))
		}
	}()
	return fn()
}

// classify maps a stage error onto the job error taxonomy. Context state
// wins over whatever the collaborator reported.
func classify(parent, stageCtx context.Context, stage Stage, err error) error {
	if perr := parent.Err(); perr != nil {
		return contextFailure(stage, perr)
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return apperrors.Timeout(string(stage)).WithCause(err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch stage {
	case StageTranscribe:
		return apperrors.TranscriptionFailed("transcription", err)
	case StageDiarize:
		return apperrors.DiarizationFailed("diarization", err)
	case StageNormalize:
		return apperrors.UnsupportedFormat("input", err.Error()).WithCause(err)
	default:
		return apperrors.Internal(err)
	}
}

func contextFailure(stage Stage, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(string(stage)).WithCause(err)
	}
	return apperrors.Cancelled(string(stage)).WithCause(err)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
