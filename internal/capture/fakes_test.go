package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/mac-cappy/internal/detect"
	"github.com/GriffinCanCode/mac-cappy/internal/recurring"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/surface"
)

type fakeMonitors struct {
	list []screen.Monitor
	err  error
}

func (f *fakeMonitors) Monitors() ([]screen.Monitor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]screen.Monitor(nil), f.list...), nil
}

func monitors(ids ...int) []screen.Monitor {
	out := make([]screen.Monitor, 0, len(ids))
	for _, id := range ids {
		out = append(out, screen.Monitor{ID: id, Left: (id - 1) * 1920, Width: 1920, Height: 1080})
	}
	return out
}

// fakeDetector returns scripted fingerprints keyed by monitor ID.
type fakeDetector struct {
	fps    map[int]detect.Fingerprint
	hashes map[int]*goimagehash.ImageHash
	fail   map[int]error
	calls  int
}

func fp(s string) detect.Fingerprint {
	var f detect.Fingerprint
	copy(f[:], s)
	return f
}

func (f *fakeDetector) Fingerprint(_ context.Context, m screen.Monitor) (detect.Sample, error) {
	f.calls++
	if err := f.fail[m.ID]; err != nil {
		return detect.Sample{}, err
	}
	return detect.Sample{Fingerprint: f.fps[m.ID], Perceptual: f.hashes[m.ID], Regions: 3}, nil
}

// fakeWriter writes a placeholder file per request.
type fakeWriter struct {
	paths     []string
	fallbacks []bool
	fail      map[int]error
	size      int
}

func (w *fakeWriter) Write(_ context.Context, m screen.Monitor, path string, allowFallback bool) (screen.WriteResult, error) {
	w.fallbacks = append(w.fallbacks, allowFallback)
	if err := w.fail[m.ID]; err != nil {
		return screen.WriteResult{}, err
	}
	size := w.size
	if size == 0 {
		size = 2048
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		return screen.WriteResult{}, err
	}
	w.paths = append(w.paths, path)
	return screen.WriteResult{Path: path, Bytes: int64(size), Backend: screen.BackendNative, Small: size < screen.DefaultMinBytes}, nil
}

type fakeSurface struct {
	mu      sync.Mutex
	notes   []surface.Notification
	alerts  []string
	bodies  []string
	titles  []string
	answer  surface.PromptResponse
	prompts []surface.PromptRequest
}

func (f *fakeSurface) Notify(n surface.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
}

func (f *fakeSurface) Alert(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, title)
	f.bodies = append(f.bodies, message)
}

func (f *fakeSurface) Prompt(req surface.PromptRequest) surface.PromptResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req)
	return f.answer
}

func (f *fakeSurface) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
}

func (f *fakeSurface) subtitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n.Subtitle)
	}
	return out
}

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped = true }

type tickers struct {
	mu   sync.Mutex
	made []*manualTicker
}

func (t *tickers) factory(time.Duration) recurring.Ticker {
	t.mu.Lock()
	defer t.mu.Unlock()
	mt := &manualTicker{ch: make(chan time.Time)}
	t.made = append(t.made, mt)
	return mt
}

func (t *tickers) last() *manualTicker {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.made) == 0 {
		return nil
	}
	return t.made[len(t.made)-1]
}

// stepClock advances one second per call.
type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type harness struct {
	sched   *Scheduler
	mons    *fakeMonitors
	det     *fakeDetector
	writer  *fakeWriter
	surf    *fakeSurface
	tickers *tickers
	layout  Layout
	clock   *stepClock
}

func newHarness(t *testing.T, ids ...int) *harness {
	t.Helper()
	base := t.TempDir()
	h := &harness{
		mons:    &fakeMonitors{list: monitors(ids...)},
		det:     &fakeDetector{fps: map[int]detect.Fingerprint{}, fail: map[int]error{}},
		writer:  &fakeWriter{fail: map[int]error{}},
		surf:    &fakeSurface{},
		tickers: &tickers{},
		layout:  Layout{CapturesRoot: filepath.Join(base, "Captures"), LogsRoot: filepath.Join(base, "Logs")},
		clock:   &stepClock{t: time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)},
	}
	s, err := New(Options{
		Monitors: h.mons,
		Detector: h.det,
		Writer:   h.writer,
		Surface:  h.surf,
		Layout:   h.layout,
		Interval: 60 * time.Second,
		Fallback: true,
		Clock:    h.clock.now,
		Ticker:   h.tickers.factory,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.sched = s
	return h
}
