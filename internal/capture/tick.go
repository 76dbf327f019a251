package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/mac-cappy/internal/detect"
	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/trace"
)

// Failure is one monitor that could not be fingerprinted or saved.
type Failure struct {
	MonitorID int
	Err       error
}

// TickResult reports what one tick did.
type TickResult struct {
	Changed  []int // monitors whose fingerprint differed or were new
	Saved    []screen.WriteResult
	Skipped  bool  // idle skip: nothing changed, nothing written
	Pruned   []int // store entries dropped for disconnected monitors
	Failures []Failure
	Err      error // set when the tick could not compare at all
}

// Tick runs one capture-and-compare pass. Failures on one monitor never
// stop the others; the outcome is reflected in the published Status.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	ctx, span := trace.StartSession(ctx, "tick")
	defer span.End()
	log := trace.Logger(ctx)
	now := s.opts.Clock()

	var res TickResult
	defer func() {
		span.SetAttr("changed", len(res.Changed))
		span.SetAttr("saved", len(res.Saved))
		span.SetAttr("skipped", res.Skipped)
		span.SetAttr("failures", len(res.Failures))
		log.Debug("tick complete", "span", span)
		s.publish()
	}()

	monitors, err := s.monitors()
	if err != nil {
		res.Err = err
		s.st.lastError = err.Error()
		log.Error("monitor enumeration failed", "error", err)
		return res
	}

	snapshot := make(Store, len(monitors))
	samples := make(map[int]detect.Sample, len(monitors))
	present := make([]int, 0, len(monitors))
	for _, m := range monitors {
		present = append(present, m.ID)
		sample, err := s.opts.Detector.Fingerprint(ctx, m)
		if err != nil {
			res.Failures = append(res.Failures, Failure{MonitorID: m.ID, Err: err})
			continue
		}
		snapshot[m.ID] = sample.Fingerprint
		samples[m.ID] = sample
	}

	if len(snapshot) == 0 {
		res.Err = apperrors.New(apperrors.CodeFingerprintFailed, "no monitor could be fingerprinted")
		s.recordFailures(log, res.Failures, len(monitors))
		return res
	}

	res.Changed = s.st.store.Changed(snapshot)
	s.logChanges(log, res.Changed, samples)

	if len(res.Changed) == 0 {
		s.st.idleSkips++
		s.st.lastSkip = now
		res.Skipped = true
		res.Pruned = s.st.store.Prune(present)
		for _, id := range res.Pruned {
			delete(s.st.perceptual, id)
		}
		if len(res.Pruned) > 0 {
			log.Info("forgot disconnected monitors", "monitors", res.Pruned)
		}
		log.Debug("idle skip", "idle_skips", s.st.idleSkips)
		s.recordFailures(log, res.Failures, len(monitors))
		return res
	}

	dir, err := s.opts.Layout.EnsureCapturesDir(now)
	if err != nil {
		res.Err = err
		s.st.lastError = err.Error()
		log.Error("auto capture aborted", "error", err)
		return res
	}

	for _, m := range monitors {
		path := filepath.Join(dir, ScreenshotName(now, KindAuto, m.ID))
		wr, err := s.opts.Writer.Write(ctx, m, path, false)
		if err != nil {
			res.Failures = append(res.Failures, Failure{MonitorID: m.ID, Err: err})
			continue
		}
		if wr.Small {
			log.Warn("screenshot unusually small, screen recording permission may be missing",
				"path", wr.Path, "bytes", wr.Bytes)
		}
		res.Saved = append(res.Saved, wr)
	}

	if len(res.Saved) > 0 {
		s.st.store = snapshot
		s.st.lastCapture = now
		s.setTitle(titleFor(now))
		log.Info("auto screenshots saved", "count", len(res.Saved), "changed", res.Changed)
	}
	s.recordFailures(log, res.Failures, len(monitors))
	return res
}

// logChanges reports the perceptual distance of every changed monitor and
// remembers the latest perceptual hash of every sampled one.
func (s *Scheduler) logChanges(log *slog.Logger, changed []int, samples map[int]detect.Sample) {
	for _, id := range changed {
		if dist, ok := detect.Distance(s.st.perceptual[id], samples[id].Perceptual); ok {
			log.Debug("monitor changed", "monitor", id, "distance", dist)
		}
	}
	for id, sample := range samples {
		if sample.Perceptual != nil {
			s.st.perceptual[id] = sample.Perceptual
		}
	}
}

// recordFailures logs one aggregated summary and sets LastError, or clears
// LastError after a clean session.
func (s *Scheduler) recordFailures(log *slog.Logger, failures []Failure, total int) {
	if len(failures) == 0 {
		s.st.lastError = ""
		return
	}
	summary := summarize(failures, total)
	s.st.lastError = summary
	log.Warn("capture session had failures", "summary", summary, "error", joinFailures(failures))
}

func summarize(failures []Failure, total int) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("screen %d: %v", f.MonitorID, f.Err))
	}
	return fmt.Sprintf("%d of %d monitors failed: %s", len(failures), total, strings.Join(parts, "; "))
}

func joinFailures(failures []Failure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
