// Package milestone renders and saves developer milestone notes as Markdown.
package milestone

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	fileLayout      = "15-04-05"
	footer          = "*Captured with mac-cappy*\n"
)

// Entry is one milestone: when, what, and the screenshots taken for it.
type Entry struct {
	Timestamp time.Time
	Note      string
	Images    []string // absolute paths
}

// FileName returns HH-MM-SS-milestone.md for t.
func FileName(t time.Time) string {
	return t.Format(fileLayout) + "-milestone.md"
}

// Format renders e. Image links are relative to logDir so the note keeps
// working when the whole base directory is moved.
func Format(e Entry, logDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Milestone: %s\n\n", e.Timestamp.Format(timestampLayout))
	b.WriteString(strings.TrimSpace(e.Note))
	b.WriteString("\n\n---\n\n## Captures\n\n")
	for i, img := range e.Images {
		fmt.Fprintf(&b, "![Screen %d](%s)\n\n", i+1, link(logDir, img))
	}
	b.WriteString("---\n\n")
	b.WriteString(footer)
	return b.String()
}

func link(logDir, img string) string {
	rel, err := filepath.Rel(logDir, img)
	if err != nil {
		rel = img
	}
	return filepath.ToSlash(rel)
}

// Write saves e into dir, which must exist, and returns the file path. An
// entry is written once: an existing file for the same second is an error.
func Write(dir string, e Entry) (string, error) {
	path := filepath.Join(dir, FileName(e.Timestamp))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", writeError(err, path)
	}
	if _, err := f.WriteString(Format(e, dir)); err != nil {
		f.Close()
		return "", writeError(err, path)
	}
	if err := f.Close(); err != nil {
		return "", writeError(err, path)
	}
	return path, nil
}

func writeError(err error, path string) error {
	code := apperrors.CodeFileWriteFailed
	if errors.Is(err, os.ErrPermission) {
		code = apperrors.CodePermissionDenied
	}
	msg := "save milestone %s"
	if errors.Is(err, os.ErrExist) {
		msg = "milestone %s already exists"
	}
	return apperrors.Wrapf(err, code, msg, filepath.Base(path)).
		WithMetadata("path", path)
}
