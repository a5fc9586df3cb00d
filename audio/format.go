package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrNotWAV is returned by Probe for files without a readable RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE file")

const (
	// DefaultSampleRate is the rate both sidecar models are trained on.
	DefaultSampleRate = 16000
	// CanonicalBitDepth is the PCM sample width of canonical audio.
	CanonicalBitDepth = 16

	wavFormatPCM = 1
)

// Format describes a probed WAV file.
type Format struct {
	SampleRate int           `json:"sample_rate" yaml:"sample_rate"`
	Channels   int           `json:"channels" yaml:"channels"`
	BitDepth   int           `json:"bit_depth" yaml:"bit_depth"`
	PCM        bool          `json:"pcm" yaml:"pcm"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// IsCanonical reports whether f is mono 16-bit PCM at sampleRate.
func (f Format) IsCanonical(sampleRate int) bool {
	return f.PCM && f.Channels == 1 && f.BitDepth == CanonicalBitDepth && f.SampleRate == sampleRate
}

func (f Format) String() string {
	kind := "pcm"
	if !f.PCM {
		kind = "non-pcm"
	}
	return fmt.Sprintf("wav %s %dHz %dch %dbit %s", kind, f.SampleRate, f.Channels, f.BitDepth, f.Duration)
}

// Probe reads the WAV header of path. It returns ErrNotWAV when the file is
// not a WAV container, and the open error when the file cannot be read.
func Probe(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Format{}, ErrNotWAV
	}
	dur, err := d.Duration()
	if err != nil {
		return Format{}, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	return Format{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		PCM:        d.WavAudioFormat == wavFormatPCM,
		Duration:   dur,
	}, nil
}
