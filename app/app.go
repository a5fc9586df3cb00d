package app

import (
	"context"
	"fmt"

	"github.com/kbukum/scribe/align"
	"github.com/kbukum/scribe/api"
	"github.com/kbukum/scribe/audio"
	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/batch"
	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/diarization"
	"github.com/kbukum/scribe/diarization/pyannote"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/server"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/transcription/whisper"
)

// APIPrefix is the route group of the transcription API.
const APIPrefix = "/api/v1"

// Scribe holds the wired pipeline of one process.
type Scribe struct {
	cfg        *Config
	log        *logger.Logger
	Pipeline   *job.Pipeline
	Batches    *batch.Orchestrator
	History    *history.MemoryStore
	Metrics    *observability.PipelineMetrics
	components []component.Component
}

// Option overrides parts of the wiring.
type Option func(*options)

type options struct {
	normalizer  job.Normalizer
	transcriber transcription.Provider
	diarizer    diarization.Provider
}

// WithNormalizer replaces the ffmpeg-backed normalizer.
func WithNormalizer(n job.Normalizer) Option {
	return func(o *options) { o.normalizer = n }
}

// WithTranscriber bypasses the transcription backend registry.
func WithTranscriber(p transcription.Provider) Option {
	return func(o *options) { o.transcriber = p }
}

// WithDiarizer bypasses the diarization backend registry.
func WithDiarizer(p diarization.Provider) Option {
	return func(o *options) { o.diarizer = p }
}

// New builds the pipeline from cfg: backends from their registered
// factories, wrapped in the configured resilience chain, then the job
// pipeline, the history store and the batch orchestrator. cfg must have
// defaults applied.
func New(ctx context.Context, cfg *Config, log *logger.Logger, opts ...Option) (*Scribe, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Scribe{cfg: cfg, log: log}
	s.components = append(s.components, newTelemetryComponent(cfg))

	metrics, err := observability.NewPipelineMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("pipeline metrics: %w", err)
	}
	s.Metrics = metrics

	tr := o.transcriber
	if tr == nil {
		m := provider.NewManager[transcription.Provider](nil)
		m.Register(whisper.ProviderName, whisper.Factory())
		tr, err = initBackend(ctx, m, cfg.Transcription.Backend, cfg.transcriptionOptions())
		if err != nil {
			return nil, fmt.Errorf("transcription: %w", err)
		}
		s.components = append(s.components, newBackendComponent("transcription", tr, cfg.Transcription, m.Close))
	} else {
		s.components = append(s.components, newBackendComponent("transcription", tr, cfg.Transcription, nil))
	}

	diCfg := cfg.Diarization.BackendConfig
	diCfg.Options = cfg.diarizationOptions()
	di := o.diarizer
	if di == nil {
		m := provider.NewManager[diarization.Provider](nil)
		m.Register(pyannote.ProviderName, pyannote.Factory())
		di, err = initBackend(ctx, m, diCfg.Backend, diCfg.Options)
		if err != nil {
			return nil, fmt.Errorf("diarization: %w", err)
		}
		s.components = append(s.components, newBackendComponent("diarization", di, diCfg, m.Close))
	} else {
		s.components = append(s.components, newBackendComponent("diarization", di, diCfg, nil))
	}

	tr = transcription.Decorate(tr, cfg.Transcription.Resilience, log)
	di = diarization.Decorate(di, cfg.Diarization.Resilience, log)

	n := o.normalizer
	if n == nil {
		n = audio.NewNormalizer(cfg.Audio, audio.WithLogger(log))
	}

	s.Pipeline = job.NewPipeline(cfg.Job, n, tr, di,
		job.WithLogger(log),
		job.WithMetrics(metrics),
		job.WithAlignOptions(align.WithChronological(cfg.Align.Chronological)),
	)
	s.History = history.NewMemoryStore(cfg.History.Capacity)
	s.Batches = batch.New(cfg.Batch, s.Pipeline,
		batch.WithHistory(s.History),
		batch.WithLogger(log),
		batch.WithMetrics(metrics),
	)
	return s, nil
}

func initBackend[T provider.Provider](ctx context.Context, m *provider.Manager[T], name string, opts map[string]any) (T, error) {
	var zero T
	if err := m.Initialize(ctx, name, opts); err != nil {
		return zero, err
	}
	if err := m.Pin(name); err != nil {
		return zero, err
	}
	return m.Get(ctx)
}

// Components returns the lifecycle components in start order.
func (s *Scribe) Components() []component.Component {
	return append([]component.Component(nil), s.components...)
}

// NewServer builds the HTTP server with the standard middleware, the
// system endpoints and the API mounted under APIPrefix. health reports the
// components shown on /health and /ready.
func (s *Scribe) NewServer(health func(ctx context.Context) []component.Health) (*server.Server, error) {
	srv := server.New(s.cfg.Server, s.log)
	srv.ApplyDefaults(s.cfg.Name, health)

	var validator auth.TokenValidator
	if s.cfg.Server.Auth.Enabled() {
		svc, err := auth.NewService(&s.cfg.Server.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		validator = auth.NewValidator(svc)
	}

	h := api.NewHandler(s.cfg.API, s.Batches, s.History,
		api.WithLogger(s.log),
		api.WithMetrics(api.NewMetrics(srv.Registerer())),
	)
	h.Register(srv.Group(APIPrefix, validator))
	return srv, nil
}
