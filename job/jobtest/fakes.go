// Package jobtest provides in-memory collaborators for exercising the job
// pipeline without ffmpeg or model sidecars.
package jobtest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/kbukum/scribe/audio"
	"github.com/kbukum/scribe/diarization"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/transcription"
)

// CorruptPayload makes Normalizer fail with UNSUPPORTED_FORMAT.
var CorruptPayload = []byte("corrupt")

// PanicPayload makes Normalizer panic.
var PanicPayload = []byte("panic")

// Normalizer copies the staged payload to canonical.wav.
type Normalizer struct {
	// RemoveArtifact deletes the artifact right after producing it.
	RemoveArtifact bool
	Calls          atomic.Int32
}

func (n *Normalizer) Normalize(_ context.Context, in, workDir string) (*audio.Canonical, error) {
	n.Calls.Add(1)
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, apperrors.IOError("open input", err)
	}
	switch {
	case bytes.Equal(data, CorruptPayload):
		return nil, apperrors.UnsupportedFormat(filepath.Base(in), "invalid data")
	case bytes.Equal(data, PanicPayload):
		panic("normalizer exploded")
	}
	out := filepath.Join(workDir, audio.CanonicalName)
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return nil, apperrors.IOError("write", err)
	}
	if n.RemoveArtifact {
		_ = os.Remove(out)
	}
	return &audio.Canonical{Path: out, SampleRate: audio.DefaultSampleRate, Channels: 1, Converted: true}, nil
}

// Transcriber returns Segments, or Err, or blocks until the context ends.
type Transcriber struct {
	Segments []transcription.Segment
	Err      error
	Block    bool
	Calls    atomic.Int32
}

func (t *Transcriber) Name() string                     { return "fake-transcriber" }
func (t *Transcriber) IsAvailable(context.Context) bool { return true }

func (t *Transcriber) Transcribe(ctx context.Context, _ transcription.Request) (*transcription.Response, error) {
	t.Calls.Add(1)
	if t.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.Err != nil {
		return nil, t.Err
	}
	return &transcription.Response{Segments: t.Segments, Language: "en"}, nil
}

// Diarizer returns Segments, or Err, or blocks until the context ends.
type Diarizer struct {
	Segments []diarization.Segment
	Err      error
	Block    bool
	Calls    atomic.Int32
}

func (d *Diarizer) Name() string                     { return "fake-diarizer" }
func (d *Diarizer) IsAvailable(context.Context) bool { return true }

func (d *Diarizer) Diarize(ctx context.Context, _ diarization.Request) (*diarization.Response, error) {
	d.Calls.Add(1)
	if d.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return &diarization.Response{Segments: d.Segments}, nil
}

// HelloWorld returns the two-segment transcript and two-speaker diarization
// used across pipeline tests.
func HelloWorld() (*Transcriber, *Diarizer) {
	tr := &Transcriber{Segments: []transcription.Segment{
		{Start: 0, End: 2, Text: "hello"},
		{Start: 2, End: 4, Text: "world"},
	}}
	d := &Diarizer{Segments: []diarization.Segment{
		{Speaker: "A", Start: 0, End: 2.5},
		{Speaker: "B", Start: 2.5, End: 4},
	}}
	return tr, d
}
