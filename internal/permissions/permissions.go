// Package permissions detects a missing macOS Screen Recording grant. A
// blocked capture does not fail; it returns the desktop wallpaper only, which
// compresses to a tiny PNG, so the check looks at file size.
package permissions

import (
	"context"
	"image"
	"os"
	"path/filepath"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
)

const (
	// SettingsURL opens Privacy & Security > Screen Recording.
	SettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture"

	// MinTestBytes is the smallest test shot considered real content.
	MinTestBytes = 1000

	testFileName = "permission_test.png"
	probeSize    = 100
)

// Guidance is shown when the check fails.
const Guidance = `mac-cappy needs Screen Recording permission to capture application windows.

Please:
1. Open System Settings
2. Go to Privacy & Security → Screen Recording
3. Add and enable mac-cappy (or the terminal that launches it)
4. Restart mac-cappy

Current issue: Only capturing desktop background, not application windows.`

// Writer persists a full-monitor screenshot.
type Writer interface {
	Write(ctx context.Context, m screen.Monitor, path string, allowFallback bool) (screen.WriteResult, error)
}

// Result of a full check.
type Result struct {
	OK    bool
	Bytes int64
	Err   error
}

// QuickProbe grabs a small in-memory region of the first monitor. It is
// cheap enough to run at startup but cannot tell wallpaper from windows.
func QuickProbe(display screen.Display) error {
	monitors, err := display.Monitors()
	if err != nil {
		return err
	}
	if len(monitors) == 0 {
		return apperrors.New(apperrors.CodeNoMonitors, "no monitors detected")
	}
	m := monitors[0]
	r := image.Rect(m.Left, m.Top, m.Left+min(probeSize, m.Width), m.Top+min(probeSize, m.Height))
	if _, err := display.CaptureRegion(r); err != nil {
		return apperrors.Wrap(err, apperrors.CodePermissionDenied, "screen recording probe failed")
	}
	return nil
}

// Check writes a full test shot of the first monitor into dir, measures it,
// and removes it. A shot of MinTestBytes or less counts as blocked.
func Check(ctx context.Context, monitors screen.MonitorSource, w Writer, dir string) Result {
	list, err := monitors.Monitors()
	if err != nil {
		return Result{Err: err}
	}
	if len(list) == 0 {
		return Result{Err: apperrors.New(apperrors.CodeNoMonitors, "no monitors detected")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Err: apperrors.Wrap(err, apperrors.CodeDirectoryCreateFailed, "create "+dir)}
	}

	path := filepath.Join(dir, testFileName)
	defer os.Remove(path)

	res, err := w.Write(ctx, list[0], path, false)
	if err != nil {
		return Result{Err: err}
	}
	if res.Bytes <= MinTestBytes {
		return Result{
			Bytes: res.Bytes,
			Err:   apperrors.Newf(apperrors.CodePermissionDenied, "screenshot only captured background (%d bytes)", res.Bytes),
		}
	}
	return Result{OK: true, Bytes: res.Bytes}
}
