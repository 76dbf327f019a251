// Package detect computes cheap content fingerprints of a monitor so the
// scheduler can tell an idle screen from a changed one without writing
// anything to disk.
package detect

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"hash"
	"image"
	"log/slog"
	"strings"

	"github.com/corona10/goimagehash"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
)

// DefaultSampleSize is the edge length of each sampled square.
const DefaultSampleSize = 100

// Region names in fold order.
const (
	RegionCenter = "center"
	RegionLeft   = "left"
	RegionRight  = "right"
)

// Fingerprint is the MD5 digest of a monitor's sampled regions. Two
// fingerprints are equal iff the sampled pixels are byte-identical.
type Fingerprint [md5.Size]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Region is one sampled square in global coordinates.
type Region struct {
	Name string
	Rect image.Rectangle
}

// Sample is the result of fingerprinting one monitor.
type Sample struct {
	Fingerprint Fingerprint
	// Perceptual is the pHash of the center region, nil when that region
	// failed. Diagnostic only; never used for equality.
	Perceptual *goimagehash.ImageHash
	Regions    int      // regions folded into the digest
	Skipped    []string // regions that failed to capture
}

// Detector samples monitors through a screen.Display.
type Detector struct {
	display screen.Display
	size    int
}

// New creates a detector; size <= 0 uses DefaultSampleSize.
func New(display screen.Display, size int) *Detector {
	if size <= 0 {
		size = DefaultSampleSize
	}
	return &Detector{display: display, size: size}
}

// Regions returns the sampled squares for m: center, then left quarter, then
// right quarter, all vertically centered.
func (d *Detector) Regions(m screen.Monitor) []Region {
	half := d.size / 2
	y := m.Top + m.Height/2 - half
	at := func(name string, cx int) Region {
		x := m.Left + cx - half
		return Region{Name: name, Rect: image.Rect(x, y, x+d.size, y+d.size)}
	}
	return []Region{
		at(RegionCenter, m.Width/2),
		at(RegionLeft, m.Width/4),
		at(RegionRight, 3*m.Width/4),
	}
}

// Fingerprint captures every region of m in memory and folds the RGB bytes
// of the ones that succeed into a single digest. It fails only when no
// region could be captured.
func (d *Detector) Fingerprint(ctx context.Context, m screen.Monitor) (Sample, error) {
	var (
		s      Sample
		digest = md5.New()
		bounds = m.Bounds()
	)

	for _, r := range d.Regions(m) {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}

		img, err := d.capture(r, bounds)
		if err != nil {
			slog.Warn("sample region skipped", "monitor", m.ID, "region", r.Name, "error", err)
			s.Skipped = append(s.Skipped, r.Name)
			continue
		}

		writeRGB(digest, img)
		s.Regions++

		if r.Name == RegionCenter {
			if ph, err := goimagehash.PerceptionHash(img); err == nil {
				s.Perceptual = ph
			} else {
				slog.Debug("perceptual hash failed", "monitor", m.ID, "error", err)
			}
		}
	}

	if s.Regions == 0 {
		return Sample{}, apperrors.Newf(apperrors.CodeFingerprintFailed, "no region of monitor %d could be sampled", m.ID).
			WithMetadata("skipped", strings.Join(s.Skipped, ","))
	}
	copy(s.Fingerprint[:], digest.Sum(nil))
	return s, nil
}

func (d *Detector) capture(r Region, bounds image.Rectangle) (*image.RGBA, error) {
	if !r.Rect.In(bounds) {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "region %s %v outside monitor %v", r.Name, r.Rect, bounds)
	}
	return d.display.CaptureRegion(r.Rect)
}

// Distance returns the Hamming distance between two perceptual hashes, or
// false if either is missing.
func Distance(a, b *goimagehash.ImageHash) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	dist, err := a.Distance(b)
	if err != nil {
		return 0, false
	}
	return dist, true
}

// writeRGB feeds packed 8-bit RGB, row-major, alpha dropped.
func writeRGB(h hash.Hash, img *image.RGBA) {
	b := img.Bounds()
	row := make([]byte, 0, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		off := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := img.Pix[off+x*4 : off+x*4+3]
			row = append(row, p[0], p[1], p[2])
		}
		h.Write(row)
	}
}
