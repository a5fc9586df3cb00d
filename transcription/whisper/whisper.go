package whisper

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/transcription"
)

// ProviderName is the registered backend name.
const ProviderName = "whisper"

const (
	defaultURL     = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 2 * time.Minute
)

// Config points at a faster-whisper sidecar. Model and Language are the
// defaults for requests that leave them empty.
type Config struct {
	URL         string        `mapstructure:"url" yaml:"url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Language    string        `mapstructure:"language" yaml:"language"`
	Device      string        `mapstructure:"device" yaml:"device"`
	ComputeType string        `mapstructure:"compute_type" yaml:"compute_type"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Provider sends canonical audio to POST /transcribe.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider fills unset fields with local defaults.
func NewProvider(cfg Config) *Provider {
	cfg.URL = cmp.Or(cfg.URL, defaultURL)
	cfg.Model = cmp.Or(cfg.Model, defaultModel)
	cfg.Timeout = cmp.Or(cfg.Timeout, defaultTimeout)
	return &Provider{
		cfg:    cfg,
		client: httpclient.New(httpclient.Config{BaseURL: cfg.URL, Timeout: cfg.Timeout}),
	}
}

// Factory decodes the transcription.options map into a Config.
func Factory() provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		var cfg Config
		if err := provider.DecodeConfig(opts, &cfg); err != nil {
			return nil, err
		}
		return NewProvider(cfg), nil
	}
}

func (p *Provider) Name() string { return ProviderName }

// Init rejects a URL the client could never reach.
func (p *Provider) Init(context.Context) error {
	if err := p.client.Validate(); err != nil {
		return apperrors.InvalidInput("transcription.url", err.Error())
	}
	return nil
}

func (p *Provider) Close(context.Context) error {
	p.client.Close()
	return nil
}

// IsAvailable probes GET /health.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.client.Healthy(ctx) }

// Transcribe uploads req.AudioPath and returns trimmed segments.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	var out result
	err := p.client.PostFile(ctx, "/transcribe", httpclient.Upload{
		File: "audio",
		Path: req.AudioPath,
		Fields: map[string]string{
			"model":        cmp.Or(req.Model, p.cfg.Model),
			"language":     cmp.Or(req.Language, p.cfg.Language),
			"device":       p.cfg.Device,
			"compute_type": p.cfg.ComputeType,
		},
	}, &out)
	switch {
	case errors.Is(err, httpclient.ErrReadFile):
		return nil, apperrors.IOError("read canonical audio", err)
	case err != nil:
		e := apperrors.TranscriptionFailed(ProviderName, err)
		if status := httpclient.StatusOf(err); status != 0 {
			e = e.WithDetail("status", status)
		}
		return nil, e
	case out.Error != "":
		return nil, apperrors.TranscriptionFailed(ProviderName, errors.New(out.Error))
	}
	return out.response(), nil
}

type result struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// response trims text; faster-whisper starts every segment with a space.
func (r *result) response() *transcription.Response {
	resp := &transcription.Response{
		Text:     strings.TrimSpace(r.Text),
		Language: r.Language,
		Duration: r.Duration,
		Segments: make([]transcription.Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		resp.Segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
	}
	if resp.Duration == 0 && len(r.Segments) > 0 {
		resp.Duration = r.Segments[len(r.Segments)-1].End
	}
	return resp
}
