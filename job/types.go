package job

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/scribe/align"
	"github.com/kbukum/scribe/diarization"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/transcription"
)

// State is the position of a job in its lifecycle.
type State string

const (
	StateReceived    State = "received"
	StateNormalized  State = "normalized"
	StateTranscribed State = "transcribed"
	StateDiarized    State = "diarized"
	StateAligned     State = "aligned"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// Stage names the step a job was in, or about to enter, when it failed.
type Stage string

const (
	StageReceive    Stage = "receive"
	StageNormalize  Stage = "normalize"
	StageTranscribe Stage = "transcribe"
	StageDiarize    Stage = "diarize"
	StageAlign      Stage = "align"
	// StageUnknown marks a failure outside every pipeline step, such as a
	// panic in a Runner other than Pipeline.
	StageUnknown Stage = "unknown"
)

// Input is one audio payload submitted for processing.
type Input struct {
	// Name is the caller-facing label, usually the original file name.
	Name string
	// Open returns the payload. It is called once per Run.
	Open func() (io.ReadCloser, error)
}

// FileInput reads the payload from a file on disk.
func FileInput(path string) Input {
	return Input{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesInput serves the payload from memory.
func BytesInput(name string, data []byte) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Failure describes why a job did not succeed.
type Failure struct {
	Stage   Stage               `json:"stage" yaml:"stage"`
	Code    apperrors.ErrorCode `json:"code" yaml:"code"`
	Message string              `json:"message" yaml:"message"`
}

func (f *Failure) Error() string {
	return string(f.Stage) + ": " + string(f.Code) + ": " + f.Message
}

// HTTPStatus is the status an API answers with for this failure.
func (f *Failure) HTTPStatus() int { return apperrors.HTTPStatusOf(f.Code) }

// NewFailure converts err into a Failure at stage. Errors that are not
// AppErrors are reported as INTERNAL_ERROR.
func NewFailure(stage Stage, err error) *Failure {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	msg := appErr.Message
	if appErr.Cause != nil {
		msg += " " + appErr.Cause.Error()
	}
	return &Failure{Stage: stage, Code: appErr.Code, Message: msg}
}

// Result is the outcome of one job. It succeeded if and only if Failure is nil.
type Result struct {
	JobID      string                  `json:"job_id" yaml:"job_id"`
	Name       string                  `json:"name" yaml:"name"`
	State      State                   `json:"state" yaml:"state"`
	Language   string                  `json:"language,omitempty" yaml:"language,omitempty"`
	Transcript []transcription.Segment `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Speakers   []diarization.Segment   `json:"speakers,omitempty" yaml:"speakers,omitempty"`
	Lines      []align.Line            `json:"lines,omitempty" yaml:"lines,omitempty"`
	Failure    *Failure                `json:"failure,omitempty" yaml:"failure,omitempty"`
	StartedAt  time.Time               `json:"started_at" yaml:"started_at"`
	Duration   time.Duration           `json:"duration" yaml:"duration"`
}

// Succeeded reports whether the job produced aligned lines.
func (r Result) Succeeded() bool { return r.Failure == nil }

// Formatted returns the lines in "Speaker X [s - e]: text" form.
func (r Result) Formatted() []string { return align.Format(r.Lines) }

// Failed builds the Result for a job that failed outside the pipeline,
// for example a recovered panic.
func Failed(jobID, name string, stage Stage, err error) Result {
	return Result{
		JobID:     jobID,
		Name:      name,
		State:     StateFailed,
		Failure:   NewFailure(stage, err),
		StartedAt: time.Now(),
	}
}
