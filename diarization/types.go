package diarization

// Request holds parameters for a diarization call.
type Request struct {
	// AudioPath is the path to the canonical audio file.
	AudioPath string `json:"audio_path"`
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int `json:"num_speakers,omitempty"`
	MinSpeakers int `json:"min_speakers,omitempty"`
	MaxSpeakers int `json:"max_speakers,omitempty"`
}

// Response holds the result of a diarization call.
type Response struct {
	// Segments are in backend order, which is not guaranteed to be
	// chronological. Spans may overlap.
	Segments    []Segment `json:"segments"`
	NumSpeakers int       `json:"num_speakers"`
}

// Segment is a time range attributed to one speaker, in seconds.
type Segment struct {
	Speaker string  `json:"speaker" yaml:"speaker"`
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
}
