// Package render writes job results as text, subtitles or structured data.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/scribe/align"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/transcription"
)

// Format is an output format name.
type Format string

const (
	Text     Format = "text"
	SRT      Format = "srt"
	VTT      Format = "vtt"
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{Text, SRT, VTT, JSON, YAML, Markdown}

// ErrNoTranscript is returned when a failed result is rendered as subtitles.
var ErrNoTranscript = errors.New("render: result has no transcript")

// ParseFormat resolves a format name. "txt", "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "srt":
		return SRT, nil
	case "vtt", "webvtt":
		return VTT, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return "", fmt.Errorf("render: unknown format %q", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return "." + string(f)
	}
}

type options struct {
	skipEmpty bool
	merge     bool
}

// Option adjusts the lines before rendering. Structured formats (json,
// yaml) always carry the unmodified lines.
type Option func(*options)

// SkipEmpty drops lines with no attributed text.
func SkipEmpty() Option { return func(o *options) { o.skipEmpty = true } }

// MergeConsecutive joins adjacent lines of the same speaker.
func MergeConsecutive() Option { return func(o *options) { o.merge = true } }

// Lines applies opts to lines and returns a new slice.
func Lines(lines []align.Line, opts ...Option) []align.Line {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	out := make([]align.Line, 0, len(lines))
	for _, l := range lines {
		if o.skipEmpty && strings.TrimSpace(l.Text) == "" {
			continue
		}
		if o.merge && len(out) > 0 && out[len(out)-1].Speaker == l.Speaker {
			prev := &out[len(out)-1]
			prev.End = max(prev.End, l.End)
			switch {
			case prev.Text == "":
				prev.Text = l.Text
			case l.Text != "":
				prev.Text += " " + l.Text
			}
			continue
		}
		out = append(out, l)
	}
	return out
}

// Result is the caller-facing shape of a job result. Successful results
// carry transcript, lines and formatted; failed ones error, stage and code.
type Result struct {
	JobID      string                  `json:"job_id" yaml:"job_id"`
	Name       string                  `json:"name" yaml:"name"`
	Transcript []transcription.Segment `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Lines      []align.Line            `json:"lines,omitempty" yaml:"lines,omitempty"`
	Formatted  []string                `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Error      string                  `json:"error,omitempty" yaml:"error,omitempty"`
	Stage      string                  `json:"stage,omitempty" yaml:"stage,omitempty"`
	Code       string                  `json:"code,omitempty" yaml:"code,omitempty"`
}

// NewResult converts a job result into its caller-facing shape.
func NewResult(r job.Result) Result {
	out := Result{JobID: r.JobID, Name: r.Name}
	if r.Failure != nil {
		out.Error = r.Failure.Message
		out.Stage = string(r.Failure.Stage)
		out.Code = string(r.Failure.Code)
		return out
	}
	out.Transcript = nonNil(r.Transcript)
	out.Lines = nonNil(r.Lines)
	out.Formatted = r.Formatted()
	return out
}

// NewResults converts a slice of job results, preserving order.
func NewResults(rs []job.Result) []Result {
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = NewResult(r)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r job.Result, opts ...Option) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewResult(r))
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewResult(r)); err != nil {
			return err
		}
		return enc.Close()
	}

	lines := Lines(r.Lines, opts...)
	switch f {
	case Text:
		return writeText(w, r, lines)
	case Markdown:
		return writeMarkdown(w, r, lines)
	case SRT, VTT:
		if r.Failure != nil {
			return fmt.Errorf("%w: %s", ErrNoTranscript, r.Failure.Error())
		}
		if f == SRT {
			return writeSRT(w, lines)
		}
		return writeVTT(w, lines)
	}
	return fmt.Errorf("render: unknown format %q", f)
}
