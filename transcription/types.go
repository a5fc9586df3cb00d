package transcription

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the canonical audio file.
	AudioPath string `json:"audio_path"`
	// Language is the expected language (e.g. "en"). Empty lets the model detect it.
	Language string `json:"language,omitempty"`
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	Text string `json:"text"`
	// Segments are time-ordered by start.
	Segments []Segment `json:"segments"`
	// Duration is the audio duration in seconds, when known.
	Duration float64 `json:"duration,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Segment is a span of recognized text with start < end, in seconds.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}
