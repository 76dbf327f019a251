package screen

import (
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"os"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/resilience"
)

// DefaultMinBytes is the size below which a PNG is treated as a likely
// permission-blocked (blank) capture.
const DefaultMinBytes = 1000

// Backend names reported in WriteResult.
const (
	BackendNative = "native"
)

// WriteResult describes one persisted screenshot.
type WriteResult struct {
	Path    string
	Bytes   int64
	Backend string
	Small   bool // below MinBytes even after any fallback attempt
}

// WriterOptions configures a PNGWriter. Zero values get defaults.
type WriterOptions struct {
	MinBytes int64
	Fallback Fallback
	Breaker  *resilience.Breaker
	Retry    resilience.RetryConfig
}

// PNGWriter captures a full monitor and persists it as PNG.
type PNGWriter struct {
	display  Display
	minBytes int64
	fallback Fallback
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
}

// NewPNGWriter builds a writer over display.
func NewPNGWriter(display Display, opts WriterOptions) *PNGWriter {
	if opts.MinBytes <= 0 {
		opts.MinBytes = DefaultMinBytes
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.New(BackendNative, resilience.DefaultConfig())
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		sleeper := opts.Retry.Sleeper
		opts.Retry = resilience.DefaultRetryConfig()
		opts.Retry.Sleeper = sleeper
	}
	return &PNGWriter{
		display:  display,
		minBytes: opts.MinBytes,
		fallback: opts.Fallback,
		breaker:  opts.Breaker,
		retry:    opts.Retry,
	}
}

// MinBytes returns the small-file threshold.
func (w *PNGWriter) MinBytes() int64 { return w.minBytes }

// Write captures m into path. When allowFallback is set and a fallback tool
// is configured, a failed or undersized native capture is retried through it.
func (w *PNGWriter) Write(ctx context.Context, m Monitor, path string, allowFallback bool) (WriteResult, error) {
	useFallback := allowFallback && w.fallback != nil

	res, err := w.writeNative(m, path)
	if err == nil && (!res.Small || !useFallback) {
		return res, nil
	}
	if !useFallback {
		return WriteResult{}, err
	}

	if err != nil {
		slog.Warn("native capture failed, trying fallback",
			"monitor", m.ID, "fallback", w.fallback.Name(), "error", err)
	} else {
		slog.Warn("native capture suspiciously small, trying fallback",
			"monitor", m.ID, "bytes", res.Bytes, "fallback", w.fallback.Name())
	}

	fbErr := resilience.Retry(ctx, w.retry, func() error {
		return w.fallback.CaptureToFile(ctx, m, path)
	})
	if fbErr != nil {
		slog.Error("fallback capture failed", "monitor", m.ID, "fallback", w.fallback.Name(), "error", fbErr)
		if err == nil {
			// The small native file is still on disk; keep it.
			return res, nil
		}
		return WriteResult{}, errors.Join(err, fbErr)
	}

	size, statErr := fileSize(path)
	if statErr != nil {
		return WriteResult{}, statErr
	}
	return WriteResult{
		Path:    path,
		Bytes:   size,
		Backend: w.fallback.Name(),
		Small:   size < w.minBytes,
	}, nil
}

func (w *PNGWriter) writeNative(m Monitor, path string) (WriteResult, error) {
	img, err := resilience.ExecuteWithResult(w.breaker, func() (*image.RGBA, error) {
		return w.display.CaptureRegion(m.Bounds())
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			return WriteResult{}, apperrors.Wrapf(err, apperrors.CodeCaptureFailed, "capture monitor %d", m.ID)
		}
		return WriteResult{}, err
	}

	if err := encodePNG(img, path); err != nil {
		return WriteResult{}, err
	}
	size, err := fileSize(path)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Path: path, Bytes: size, Backend: BackendNative, Small: size < w.minBytes}, nil
}

func encodePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return writeError(err, path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return apperrors.Wrapf(err, apperrors.CodeFileWriteFailed, "encode %s", path)
	}
	if err := f.Close(); err != nil {
		return writeError(err, path)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, writeError(err, path)
	}
	return info.Size(), nil
}

func writeError(err error, path string) error {
	if errors.Is(err, os.ErrPermission) {
		return apperrors.Wrapf(err, apperrors.CodePermissionDenied, "write %s", path).
			WithMetadata("path", path)
	}
	return apperrors.Wrapf(err, apperrors.CodeFileWriteFailed, "write %s", path).
		WithMetadata("path", path)
}
