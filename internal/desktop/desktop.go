// Package desktop opens folders and URLs with the platform's default handler.
package desktop

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
)

// Opener launches the default application for a path or URL.
type Opener struct {
	goos string
	run  screen.Runner
}

// NewOpener returns an opener for the running OS. A nil run uses
// screen.ExecRunner.
func NewOpener(run screen.Runner) *Opener {
	if run == nil {
		run = screen.ExecRunner
	}
	return &Opener{goos: runtime.GOOS, run: run}
}

// Command returns the argv that opens target on goos.
func Command(goos, target string) []string {
	switch goos {
	case "darwin":
		return []string{"open", target}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}
	default:
		return []string{"xdg-open", target}
	}
}

// Open hands target to the desktop.
func (o *Opener) Open(ctx context.Context, target string) error {
	argv := Command(o.goos, target)
	stderr, err := o.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeInternal, "open %s", target).
			WithMetadata("stderr", strings.TrimSpace(stderr))
	}
	return nil
}

// OpenDir creates dir when missing and opens it. created reports whether
// the folder had to be made.
func (o *Opener) OpenDir(ctx context.Context, dir string) (created bool, err error) {
	if _, statErr := os.Stat(dir); errors.Is(statErr, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, apperrors.Wrapf(err, apperrors.CodeDirectoryCreateFailed, "create %s", dir)
		}
		created = true
	}
	return created, o.Open(ctx, dir)
}
