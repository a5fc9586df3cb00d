// Package process runs external tools such as ffmpeg with output capture and
// graceful termination on context cancellation.
package process

import (
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Command describes one tool invocation.
type Command struct {
	// Binary is a path or a name looked up on PATH.
	Binary string
	Args   []string
	Dir    string
	// Env entries (KEY=value) are appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod overrides DefaultGracePeriod.
	GracePeriod time.Duration
}

// LookPath resolves binary on PATH. The audio stage calls it before every
// transcode so a missing ffmpeg is reported as such rather than as a failed
// conversion.
func LookPath(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("process: %s not found: %w", binary, err)
	}
	return path, nil
}
