package pyannote

import (
	"cmp"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/kbukum/scribe/diarization"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/provider"
)

// ProviderName is the registered backend name.
const ProviderName = "pyannote"

const (
	defaultURL     = "http://localhost:8388"
	defaultTimeout = 5 * time.Minute
)

// Config points at a pyannote sidecar. The speaker counts apply when a
// request leaves them at zero.
type Config struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// AuthToken is forwarded as a bearer token, usually the Hugging Face
	// token the gated pipeline needs.
	AuthToken   string `mapstructure:"auth_token" yaml:"-"`
	NumSpeakers int    `mapstructure:"num_speakers" yaml:"num_speakers"`
	MinSpeakers int    `mapstructure:"min_speakers" yaml:"min_speakers"`
	MaxSpeakers int    `mapstructure:"max_speakers" yaml:"max_speakers"`
}

// Provider sends canonical audio to POST /diarize.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

func NewProvider(cfg Config) *Provider {
	cfg.BaseURL = cmp.Or(cfg.BaseURL, defaultURL)
	cfg.Timeout = cmp.Or(cfg.Timeout, defaultTimeout)
	return &Provider{
		cfg: cfg,
		client: httpclient.New(httpclient.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Token:   cfg.AuthToken,
		}),
	}
}

// Factory decodes the diarization.options map into a Config.
func Factory() provider.Factory[diarization.Provider] {
	return func(opts map[string]any) (diarization.Provider, error) {
		var cfg Config
		if err := provider.DecodeConfig(opts, &cfg); err != nil {
			return nil, err
		}
		return NewProvider(cfg), nil
	}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Init(context.Context) error {
	if err := p.client.Validate(); err != nil {
		return apperrors.InvalidInput("diarization.base_url", err.Error())
	}
	return nil
}

func (p *Provider) Close(context.Context) error {
	p.client.Close()
	return nil
}

// IsAvailable probes GET /health with the configured token.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.client.Healthy(ctx) }

// Diarize uploads req.AudioPath and returns the speaker spans in the order
// the sidecar sent them.
func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	var out result
	err := p.client.PostFile(ctx, "/diarize", httpclient.Upload{
		File: "audio",
		Path: req.AudioPath,
		Fields: map[string]string{
			"num_speakers": count(req.NumSpeakers, p.cfg.NumSpeakers),
			"min_speakers": count(req.MinSpeakers, p.cfg.MinSpeakers),
			"max_speakers": count(req.MaxSpeakers, p.cfg.MaxSpeakers),
		},
	}, &out)
	switch {
	case errors.Is(err, httpclient.ErrReadFile):
		return nil, apperrors.IOError("read canonical audio", err)
	case err != nil:
		e := apperrors.DiarizationFailed(ProviderName, err)
		if status := httpclient.StatusOf(err); status != 0 {
			e = e.WithDetail("status", status)
		}
		return nil, e
	case out.Error != "":
		return nil, apperrors.DiarizationFailed(ProviderName, errors.New(out.Error))
	}
	return out.response(), nil
}

// count renders the first positive value, or "" so the field is left out.
func count(vals ...int) string {
	for _, v := range vals {
		if v > 0 {
			return strconv.Itoa(v)
		}
	}
	return ""
}

type result struct {
	NumSpeakers int    `json:"num_speakers"`
	Error       string `json:"error,omitempty"`
	Segments    []struct {
		SpeakerID string  `json:"speaker_id"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
	} `json:"segments"`
}

// response counts distinct speakers when the sidecar leaves num_speakers out.
func (r *result) response() *diarization.Response {
	resp := &diarization.Response{
		Segments:    make([]diarization.Segment, len(r.Segments)),
		NumSpeakers: r.NumSpeakers,
	}
	seen := make(map[string]bool)
	for i, s := range r.Segments {
		resp.Segments[i] = diarization.Segment{Speaker: s.SpeakerID, Start: s.StartTime, End: s.EndTime}
		seen[s.SpeakerID] = true
	}
	if resp.NumSpeakers == 0 {
		resp.NumSpeakers = len(seen)
	}
	return resp
}
