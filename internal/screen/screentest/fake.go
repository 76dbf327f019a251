// Package screentest provides in-memory displays for tests.
package screentest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"
	"os"
	"sync"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
)

// Display is a fake screen.Display backed by one RGBA canvas per monitor.
// Every monitor starts filled with deterministic noise so encoded PNGs are
// comfortably above the small-file threshold.
type Display struct {
	mu          sync.Mutex
	monitors    []screen.Monitor
	canvas      map[int]*image.RGBA
	monitorsErr error
	fail        func(image.Rectangle) error
	regions     []image.Rectangle
}

var _ screen.Display = (*Display)(nil)

// NewDisplay returns a fake display with the given monitors.
func NewDisplay(monitors ...screen.Monitor) *Display {
	d := &Display{canvas: make(map[int]*image.RGBA)}
	d.SetMonitors(monitors...)
	return d
}

// Monitor is a shorthand constructor.
func Monitor(id, left, top, w, h int) screen.Monitor {
	return screen.Monitor{ID: id, Left: left, Top: top, Width: w, Height: h}
}

// SetMonitors replaces the connected set. Canvases of monitors that stay
// connected are kept.
func (d *Display) SetMonitors(monitors ...screen.Monitor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := make(map[int]*image.RGBA, len(monitors))
	for _, m := range monitors {
		if c, ok := d.canvas[m.ID]; ok && c.Bounds() == m.Bounds() {
			next[m.ID] = c
			continue
		}
		next[m.ID] = noise(m.Bounds(), uint64(m.ID))
	}
	d.monitors = append([]screen.Monitor(nil), monitors...)
	d.canvas = next
}

// SetMonitorsErr makes Monitors fail with err until cleared with nil.
func (d *Display) SetMonitorsErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.monitorsErr = err
}

// FailWhen installs a hook consulted before every region capture; a non-nil
// return fails that capture.
func (d *Display) FailWhen(fn func(image.Rectangle) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fn
}

// SetPixel changes one pixel in global coordinates.
func (d *Display) SetPixel(x, y int, c color.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, img := range d.canvas {
		if (image.Point{x, y}).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
			return
		}
	}
}

// Fill paints a whole monitor one color.
func (d *Display) Fill(id int, c color.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if img, ok := d.canvas[id]; ok {
		draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	}
}

// Scramble refills a monitor with fresh noise from seed.
func (d *Display) Scramble(id int, seed uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if img, ok := d.canvas[id]; ok {
		d.canvas[id] = noise(img.Bounds(), seed)
	}
}

// Regions returns every rectangle requested so far.
func (d *Display) Regions() []image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]image.Rectangle(nil), d.regions...)
}

// Captures counts region captures, including failed ones.
func (d *Display) Captures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.regions)
}

func (d *Display) Monitors() ([]screen.Monitor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.monitorsErr != nil {
		return nil, d.monitorsErr
	}
	return append([]screen.Monitor(nil), d.monitors...), nil
}

// CaptureRegion copies r into a zero-origin image, the way the native
// backend returns captures. Regions not fully inside one monitor fail.
func (d *Display) CaptureRegion(r image.Rectangle) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions = append(d.regions, r)

	if d.fail != nil {
		if err := d.fail(r); err != nil {
			return nil, err
		}
	}
	for _, src := range d.canvas {
		if r.In(src.Bounds()) && !r.Empty() {
			out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			draw.Draw(out, out.Bounds(), src, r.Min, draw.Src)
			return out, nil
		}
	}
	return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "region %v outside every monitor", r)
}

func noise(r image.Rectangle, seed uint64) *image.RGBA {
	img := image.NewRGBA(r)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < len(img.Pix); i += 4 {
		v := rng.Uint32()
		img.Pix[i] = uint8(v)
		img.Pix[i+1] = uint8(v >> 8)
		img.Pix[i+2] = uint8(v >> 16)
		img.Pix[i+3] = 0xff
	}
	return img
}

// Fallback is a fake screen.Fallback that writes Payload to the target path.
type Fallback struct {
	mu      sync.Mutex
	Payload []byte
	Err     error
	calls   int
}

var _ screen.Fallback = (*Fallback)(nil)

func (f *Fallback) Name() string { return "fake" }

func (f *Fallback) CaptureToFile(_ context.Context, m screen.Monitor, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return f.Err
	}
	if err := os.WriteFile(path, f.Payload, 0o644); err != nil {
		return fmt.Errorf("fake fallback monitor %d: %w", m.ID, err)
	}
	return nil
}

// Calls returns how many times CaptureToFile ran.
func (f *Fallback) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
