//go:build linux

package screen

import (
	"log/slog"
	"os/exec"
)

// NativeFallback returns ImageMagick's import when it is installed.
func NativeFallback() Fallback {
	if _, err := exec.LookPath("import"); err != nil {
		slog.Debug("no fallback screenshot tool found (install imagemagick)")
		return nil
	}
	return NewCommandFallback("import", ImportArgs, nil)
}
