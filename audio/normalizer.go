package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// CanonicalName is the file name of the converted artifact inside a work dir.
const CanonicalName = "canonical.wav"

// Config configures a Normalizer.
type Config struct {
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate" validate:"omitempty,min=8000,max=192000"`
	FFmpegPath string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
}

// Canonical references normalized audio owned by one job.
type Canonical struct {
	Path       string `json:"path"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	// Converted is false when the input was already canonical and Path is the input.
	Converted bool   `json:"converted"`
	Format    Format `json:"format"`
}

// Normalizer produces canonical audio for the pipeline.
type Normalizer struct {
	cfg        Config
	transcoder Transcoder
	log        *logger.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTranscoder replaces the default ffmpeg transcoder.
func WithTranscoder(t Transcoder) Option {
	return func(n *Normalizer) { n.transcoder = t }
}

// WithLogger sets the normalizer's logger.
func WithLogger(log *logger.Logger) Option {
	return func(n *Normalizer) { n.log = log }
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg Config, opts ...Option) *Normalizer {
	cfg.ApplyDefaults()
	n := &Normalizer{
		cfg:        cfg,
		transcoder: FFmpeg{Binary: cfg.FFmpegPath},
		log:        logger.NewNop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SampleRate returns the target sample rate.
func (n *Normalizer) SampleRate() int { return n.cfg.SampleRate }

// Normalize returns canonical audio for inputPath. Already canonical input is
// returned unchanged; anything else is transcoded to workDir/canonical.wav.
func (n *Normalizer) Normalize(ctx context.Context, inputPath, workDir string) (*Canonical, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, apperrors.IOError("open input", err)
	}
	if info.Size() == 0 {
		return nil, apperrors.UnsupportedFormat(filepath.Base(inputPath), "empty input")
	}

	if f, err := Probe(inputPath); err == nil && f.IsCanonical(n.cfg.SampleRate) {
		n.log.Debug("input already canonical", logger.Fields("path", inputPath, "format", f.String()))
		return &Canonical{Path: inputPath, SampleRate: f.SampleRate, Channels: f.Channels, Format: f}, nil
	}

	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, apperrors.IOError("create work dir", err)
	}
	out := filepath.Join(workDir, CanonicalName)

	if err := n.transcoder.Transcode(ctx, inputPath, out, n.cfg.SampleRate); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.UnsupportedFormat(filepath.Base(inputPath), err.Error()).WithCause(err)
	}

	f, err := Probe(out)
	if err != nil {
		return nil, apperrors.IOError("verify canonical artifact", err)
	}
	if !f.IsCanonical(n.cfg.SampleRate) {
		return nil, apperrors.IOError("verify canonical artifact", errors.New("transcoder produced "+f.String()))
	}
	n.log.Debug("input transcoded", logger.Fields("path", inputPath, "format", f.String()))
	return &Canonical{Path: out, SampleRate: f.SampleRate, Channels: f.Channels, Converted: true, Format: f}, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("normalize").WithCause(err)
	}
	return apperrors.Cancelled("normalize").WithCause(err)
}
