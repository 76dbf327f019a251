package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

// Kind tags a screenshot with the session that produced it.
type Kind string

const (
	KindAuto      Kind = "auto"
	KindManual    Kind = "manual"
	KindMilestone Kind = "milestone"
)

// Layout is the on-disk arrangement: date folders under a captures root
// and a logs root.
type Layout struct {
	CapturesRoot string
	LogsRoot     string
}

// CapturesDir returns CapturesRoot/YYYY-MM-DD for t.
func (l Layout) CapturesDir(t time.Time) string {
	return filepath.Join(l.CapturesRoot, t.Format(dateLayout))
}

// LogsDir returns LogsRoot/YYYY-MM-DD for t.
func (l Layout) LogsDir(t time.Time) string {
	return filepath.Join(l.LogsRoot, t.Format(dateLayout))
}

// EnsureCapturesDir creates today's captures folder.
func (l Layout) EnsureCapturesDir(t time.Time) (string, error) {
	return ensureDir(l.CapturesDir(t))
}

// EnsureLogsDir creates today's logs folder.
func (l Layout) EnsureLogsDir(t time.Time) (string, error) {
	return ensureDir(l.LogsDir(t))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrapf(err, apperrors.CodeDirectoryCreateFailed, "create %s", dir).
			WithMetadata("path", dir)
	}
	return dir, nil
}

// ScreenshotName returns HH-MM-SS-{kind}-screen-{id}.png.
func ScreenshotName(t time.Time, kind Kind, monitorID int) string {
	return fmt.Sprintf("%s-%s-screen-%d.png", t.Format(timeLayout), kind, monitorID)
}
