// Package screen provides platform-agnostic monitor enumeration and capture
package screen

import (
	"context"
	"fmt"
	"image"
)

// Monitor is one connected display. ID is 1-based; bounds are in global
// desktop coordinates and may start at negative offsets for displays left of
// or above the primary one.
type Monitor struct {
	ID     int
	Left   int
	Top    int
	Width  int
	Height int
}

// Bounds returns the monitor rectangle in global coordinates.
func (m Monitor) Bounds() image.Rectangle {
	return image.Rect(m.Left, m.Top, m.Left+m.Width, m.Top+m.Height)
}

func (m Monitor) String() string {
	return fmt.Sprintf("screen-%d(%dx%d@%d,%d)", m.ID, m.Width, m.Height, m.Left, m.Top)
}

// MonitorSource enumerates the currently connected monitors. Implementations
// must re-query the system on every call.
type MonitorSource interface {
	Monitors() ([]Monitor, error)
}

// Display captures regions of the desktop into memory.
type Display interface {
	MonitorSource
	// CaptureRegion grabs exactly r (global coordinates) without capturing
	// the full frame first.
	CaptureRegion(r image.Rectangle) (*image.RGBA, error)
}

// Fallback writes a monitor's screenshot straight to a file using an
// external tool. It is used when in-process capture fails or comes back
// suspiciously small.
type Fallback interface {
	Name() string
	CaptureToFile(ctx context.Context, m Monitor, path string) error
}
