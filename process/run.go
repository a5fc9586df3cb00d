package process

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/scribe/logger"
)

// DefaultGracePeriod is the wait between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Run starts cmd and waits for it to exit. Cancelling ctx sends SIGTERM to
// the whole process group and SIGKILL once the grace period has passed.
// The Result is non-nil whenever the binary was named, even on failure.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: no binary given")
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running tools with computed args is the point
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout, c.Stderr = &stdout, &stderr

	// ffmpeg may spawn helpers; signal the group, not just the leader.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error { return syscall.Kill(-c.Process.Pid, syscall.SIGTERM) }
	c.WaitDelay = cmp.Or(cmd.GracePeriod, DefaultGracePeriod)

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	logger.Get("process").Debug("process exited", logger.Fields(
		"binary", cmd.Binary,
		"exit_code", res.ExitCode,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))

	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("process: %s stopped: %w", cmd.Binary, ctx.Err())
	default:
		return res, fmt.Errorf("process: %s exited with code %d: %w", cmd.Binary, res.ExitCode, err)
	}
}
