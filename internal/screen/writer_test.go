package screen_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/resilience"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/screen/screentest"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newWriter(d screen.Display, fb screen.Fallback) *screen.PNGWriter {
	return screen.NewPNGWriter(d, screen.WriterOptions{
		Fallback: fb,
		Retry:    resilience.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, Sleeper: noSleep},
	})
}

func TestWriteNative(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	w := newWriter(screentest.NewDisplay(m), nil)
	path := filepath.Join(t.TempDir(), "shot.png")

	res, err := w.Write(context.Background(), m, path, false)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if res.Backend != screen.BackendNative || res.Small {
		t.Errorf("result = %+v, want native and not small", res)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != res.Bytes {
		t.Errorf("Bytes = %d, file has %d", res.Bytes, info.Size())
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("file is not a PNG")
	}
}

func TestWriteSmallWithoutFallback(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	d := screentest.NewDisplay(m)
	d.Fill(1, color.RGBA{A: 0xff})
	fb := &screentest.Fallback{Payload: make([]byte, 4096)}
	w := newWriter(d, fb)

	res, err := w.Write(context.Background(), m, filepath.Join(t.TempDir(), "a.png"), false)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !res.Small {
		t.Errorf("Small = false for a blank %d byte capture", res.Bytes)
	}
	if fb.Calls() != 0 {
		t.Errorf("fallback calls = %d, want 0 when not allowed", fb.Calls())
	}
}

func TestWriteSmallUsesFallback(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	d := screentest.NewDisplay(m)
	d.Fill(1, color.RGBA{A: 0xff})
	fb := &screentest.Fallback{Payload: make([]byte, 4096)}
	w := newWriter(d, fb)

	res, err := w.Write(context.Background(), m, filepath.Join(t.TempDir(), "a.png"), true)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if res.Backend != "fake" || res.Small || res.Bytes != 4096 {
		t.Errorf("result = %+v, want fake backend with 4096 bytes", res)
	}
}

func TestWriteCaptureFailure(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	d := screentest.NewDisplay(m)
	d.FailWhen(func(image.Rectangle) error {
		return apperrors.New(apperrors.CodeCaptureFailed, "denied")
	})

	_, err := newWriter(d, nil).Write(context.Background(), m, filepath.Join(t.TempDir(), "a.png"), true)
	if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
		t.Errorf("Write() error = %v, want CAPTURE_FAILED", err)
	}

	fb := &screentest.Fallback{Payload: make([]byte, 2048)}
	res, err := newWriter(d, fb).Write(context.Background(), m, filepath.Join(t.TempDir(), "b.png"), true)
	if err != nil {
		t.Fatalf("Write() with fallback error = %v", err)
	}
	if res.Backend != "fake" {
		t.Errorf("Backend = %q, want fake", res.Backend)
	}
}

func TestWriteFallbackRetried(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	d := screentest.NewDisplay(m)
	d.FailWhen(func(image.Rectangle) error {
		return apperrors.New(apperrors.CodeCaptureFailed, "denied")
	})
	fb := &screentest.Fallback{Err: apperrors.New(apperrors.CodeCaptureFailed, "tool failed")}

	_, err := newWriter(d, fb).Write(context.Background(), m, filepath.Join(t.TempDir(), "a.png"), true)
	if err == nil {
		t.Fatal("Write() = nil, want error")
	}
	if fb.Calls() != 3 {
		t.Errorf("fallback calls = %d, want 3", fb.Calls())
	}
}

func TestWriteBreakerBypassesNative(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 200, 150)
	d := screentest.NewDisplay(m)
	d.FailWhen(func(image.Rectangle) error {
		return apperrors.New(apperrors.CodeCaptureFailed, "denied")
	})
	br := resilience.New("native", resilience.Config{Threshold: 2})
	w := screen.NewPNGWriter(d, screen.WriterOptions{Breaker: br})
	dir := t.TempDir()

	for i := range 4 {
		w.Write(context.Background(), m, filepath.Join(dir, string(rune('a'+i))+".png"), false)
	}
	if got := d.Captures(); got != 2 {
		t.Errorf("native captures = %d, want 2 before the breaker opens", got)
	}
	if br.State() != resilience.Open {
		t.Errorf("breaker state = %v, want open", br.State())
	}
}

func TestWriteUnwritableDir(t *testing.T) {
	m := screentest.Monitor(1, 0, 0, 50, 50)
	w := newWriter(screentest.NewDisplay(m), nil)

	_, err := w.Write(context.Background(), m, filepath.Join(t.TempDir(), "missing", "a.png"), false)
	if !apperrors.IsCode(err, apperrors.CodeFileWriteFailed) {
		t.Errorf("Write() error = %v, want FILE_WRITE_FAILED", err)
	}
}
