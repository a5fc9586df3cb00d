package align

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/scribe/diarization"
	"github.com/kbukum/scribe/transcription"
)

// Line is the text attributed to one speaker span.
type Line struct {
	Speaker string  `json:"speaker" yaml:"speaker"`
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Text    string  `json:"text" yaml:"text"`
}

// String renders the line as "Speaker A [0.00s - 2.50s]: text".
func (l Line) String() string {
	return fmt.Sprintf("Speaker %s [%.2fs - %.2fs]: %s", l.Speaker, l.Start, l.End, l.Text)
}

// Format renders every line with Line.String.
func Format(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

type options struct {
	chronological bool
}

// Option configures Align.
type Option func(*options)

// Chronological processes speaker spans in start order instead of input
// order. Spans with equal starts keep their input order.
func Chronological() Option {
	return func(o *options) { o.chronological = true }
}

// WithChronological is Chronological when on is true.
func WithChronological(on bool) Option {
	return func(o *options) { o.chronological = on }
}

// Align returns one Line per speaker span. Without options the output is in
// input speaker order; spans that overlap no unclaimed segment get empty text.
func Align(transcript []transcription.Segment, speakers []diarization.Segment, opts ...Option) []Line {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.chronological {
		sorted := make([]diarization.Segment, len(speakers))
		copy(sorted, speakers)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		speakers = sorted
	}

	claimed := make([]bool, len(transcript))
	// first unclaimed transcript index; everything before it is claimed.
	cursor := 0
	lines := make([]Line, 0, len(speakers))
	var texts []string

	for _, s := range speakers {
		texts = texts[:0]
		for i := cursor; i < len(transcript); i++ {
			if claimed[i] {
				continue
			}
			t := transcript[i]
			if !(t.Start < s.End && t.End > s.Start) {
				continue
			}
			if overlap(t, s) <= 0 {
				continue
			}
			claimed[i] = true
			texts = append(texts, t.Text)
		}
		for cursor < len(claimed) && claimed[cursor] {
			cursor++
		}
		lines = append(lines, Line{
			Speaker: s.Speaker,
			Start:   s.Start,
			End:     s.End,
			Text:    strings.Join(texts, " "),
		})
	}
	return lines
}

func overlap(t transcription.Segment, s diarization.Segment) float64 {
	return min(t.End, s.End) - max(t.Start, s.Start)
}
