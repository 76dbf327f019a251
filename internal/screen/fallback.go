package screen

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

// Runner executes an external command and returns its combined stderr.
type Runner func(ctx context.Context, name string, args ...string) (stderr string, err error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// commandFallback shells out to a screenshot tool that writes a file.
type commandFallback struct {
	name string
	args func(m Monitor, path string) []string
	run  Runner
}

func (c *commandFallback) Name() string { return c.name }

func (c *commandFallback) CaptureToFile(ctx context.Context, m Monitor, path string) error {
	args := c.args(m, path)
	stderr, err := c.run(ctx, args[0], args[1:]...)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeCaptureFailed, "%s monitor %d", c.name, m.ID).
			WithMetadata("stderr", strings.TrimSpace(stderr))
	}
	return nil
}

// ScreencaptureArgs builds the macOS screencapture invocation. -x silences
// the shutter sound; -D selects a 1-based display.
func ScreencaptureArgs(m Monitor, path string) []string {
	return []string{"screencapture", "-x", "-D", strconv.Itoa(m.ID), path}
}

// ImportArgs builds an ImageMagick import invocation cropping the root
// window to the monitor bounds.
func ImportArgs(m Monitor, path string) []string {
	geom := strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height) + signed(m.Left) + signed(m.Top)
	return []string{"import", "-silent", "-window", "root", "-crop", geom, path}
}

// NewCommandFallback wraps an arbitrary argv builder. Used by the platform
// constructors and by tests with a fake runner.
func NewCommandFallback(name string, args func(Monitor, string) []string, run Runner) Fallback {
	if run == nil {
		run = ExecRunner
	}
	return &commandFallback{name: name, args: args, run: run}
}

func signed(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	return "+" + strconv.Itoa(n)
}
