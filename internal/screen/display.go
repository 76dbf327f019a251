package screen

import (
	"image"

	"github.com/kbinani/screenshot"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

// systemDisplay captures through the OS display APIs (CoreGraphics on macOS,
// X11 on Linux, GDI on Windows).
type systemDisplay struct{}

// NewDisplay returns the native display.
func NewDisplay() Display {
	return systemDisplay{}
}

// Monitors lists active displays. The library exposes no combined
// "all displays" pseudo-monitor, so every entry is a real screen.
func (systemDisplay) Monitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, apperrors.New(apperrors.CodeNoMonitors, "no active displays")
	}
	monitors := make([]Monitor, 0, n)
	for i := range n {
		b := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, Monitor{
			ID:     i + 1,
			Left:   b.Min.X,
			Top:    b.Min.Y,
			Width:  b.Dx(),
			Height: b.Dy(),
		})
	}
	return monitors, nil
}

func (systemDisplay) CaptureRegion(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "empty capture region %v", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeCaptureFailed, "capture region %v", r)
	}
	return img, nil
}
