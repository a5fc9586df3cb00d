package audio

import (
	"context"
	"strconv"
	"time"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/process"
)

// Transcoder converts in to canonical WAV at out.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string, sampleRate int) error
}

// FFmpeg transcodes through the ffmpeg binary.
type FFmpeg struct {
	// Binary defaults to "ffmpeg" resolved on PATH.
	Binary      string
	GracePeriod time.Duration
}

// Transcode runs ffmpeg. A non-zero exit is reported as UNSUPPORTED_FORMAT
// with the tail of ffmpeg's stderr; context errors are returned as is.
func (f FFmpeg) Transcode(ctx context.Context, in, out string, sampleRate int) error {
	bin := f.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := process.LookPath(bin)
	if err != nil {
		return apperrors.ServiceUnavailable("ffmpeg").WithCause(err)
	}

	res, err := process.Run(ctx, process.Command{
		Binary: path,
		Args: []string{
			"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
			"-i", in,
			"-ac", "1",
			"-ar", strconv.Itoa(sampleRate),
			"-c:a", "pcm_s16le",
			"-f", "wav",
			out,
		},
		GracePeriod: f.GracePeriod,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.UnsupportedFormat(in, res.StderrTail(3)).
			WithCause(err).
			WithDetail("exit_code", res.ExitCode)
	}
	return nil
}
