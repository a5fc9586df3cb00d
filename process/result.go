package process

import (
	"bytes"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or never started.
	ExitCode int
	Duration time.Duration
}

// StderrTail returns the last n lines of stderr, trimmed. Tools such as
// ffmpeg print their actual complaint at the end of a long banner.
func (r *Result) StderrTail(n int) string {
	if r == nil || n <= 0 {
		return ""
	}
	lines := bytes.Split(bytes.TrimSpace(r.Stderr), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.TrimSpace(bytes.Join(lines, []byte("\n"))))
}
