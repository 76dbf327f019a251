package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/milestone"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/surface"
	"github.com/GriffinCanCode/mac-cappy/internal/trace"
)

// SessionResult reports a manual or milestone capture.
type SessionResult struct {
	Kind     Kind
	Time     time.Time
	Saved    []screen.WriteResult
	Failures []Failure
	NotePath string // milestone Markdown, empty when canceled
	Canceled bool
}

// Paths returns the saved screenshot paths in monitor order.
func (r SessionResult) Paths() []string {
	paths := make([]string, 0, len(r.Saved))
	for _, w := range r.Saved {
		paths = append(paths, w.Path)
	}
	return paths
}

// ManualCapture saves every monitor unconditionally, whatever the enabled
// state, and bumps the manual capture counter.
func (s *Scheduler) ManualCapture(ctx context.Context) (SessionResult, error) {
	ctx, span := trace.StartSession(ctx, "manual")
	defer span.End()
	log := trace.Logger(ctx)

	res, err := s.captureSession(ctx, log, KindManual)
	span.SetAttr("saved", len(res.Saved))
	if err != nil {
		return res, err
	}
	s.notify("Screenshots Captured!", fmt.Sprintf("Saved %d screen(s).", len(res.Saved)))
	log.Info("manual capture complete", "span", span)
	return res, nil
}

// ManualCaptureWithNote saves every monitor as a milestone and then asks for
// a note through the surface prompt. Canceled or blank input keeps the
// images but writes no Markdown.
func (s *Scheduler) ManualCaptureWithNote(ctx context.Context) (SessionResult, error) {
	return s.milestoneSession(ctx, func() (string, bool) {
		resp := s.opts.Surface.Prompt(surface.PromptRequest{
			Title:   MilestonePromptTitle,
			Message: MilestonePromptMessage,
			OK:      MilestonePromptOK,
			Cancel:  MilestonePromptCancel,
		})
		return resp.Text, resp.Confirmed
	})
}

// CaptureMilestone is ManualCaptureWithNote with the note supplied up front.
func (s *Scheduler) CaptureMilestone(ctx context.Context, note string) (SessionResult, error) {
	return s.milestoneSession(ctx, func() (string, bool) { return note, true })
}

func (s *Scheduler) milestoneSession(ctx context.Context, ask func() (string, bool)) (SessionResult, error) {
	ctx, span := trace.StartSession(ctx, "milestone")
	defer span.End()
	log := trace.Logger(ctx)

	res, err := s.captureSession(ctx, log, KindMilestone)
	span.SetAttr("saved", len(res.Saved))
	if err != nil {
		return res, err
	}
	s.notify("Screenshots Captured!",
		fmt.Sprintf("Saved %d screen(s). Now, add your note.", len(res.Saved)))

	text, confirmed := ask()
	note := strings.TrimSpace(text)
	if !confirmed || note == "" {
		res.Canceled = true
		span.SetAttr("canceled", true)
		log.Info("milestone canceled", "images", len(res.Saved))
		s.notify("Capture Canceled", "The milestone was not saved.")
		return res, nil
	}

	logDir := s.opts.Layout.LogsDir(res.Time)
	path, err := milestone.Write(logDir, milestone.Entry{
		Timestamp: res.Time,
		Note:      note,
		Images:    res.Paths(),
	})
	if err != nil {
		log.Error("milestone save failed", "error", err)
		s.st.lastError = err.Error()
		s.publish()
		s.opts.Surface.Alert("Save Error",
			fmt.Sprintf("Failed to save log file: %v\n\n%s", err, DocumentsHint))
		return res, err
	}

	res.NotePath = path
	log.Info("milestone saved", "path", path, "span", span)
	s.notify("Milestone Saved!", "Log saved to "+filepath.Base(path))
	return res, nil
}

// captureSession creates today's folders, saves every monitor, and updates
// counters. It alerts and returns an error when nothing could be saved.
func (s *Scheduler) captureSession(ctx context.Context, log *slog.Logger, kind Kind) (SessionResult, error) {
	now := s.opts.Clock()
	res := SessionResult{Kind: kind, Time: now}

	dir, err := s.opts.Layout.EnsureCapturesDir(now)
	if err == nil && kind == KindMilestone {
		_, err = s.opts.Layout.EnsureLogsDir(now)
	}
	if err != nil {
		log.Error("capture directories unavailable", "error", err)
		s.failSession(err)
		s.opts.Surface.Alert("Directory Error", fmt.Sprintf("Failed to create today's folders: %v", err))
		return res, err
	}

	monitors, err := s.monitors()
	if err != nil {
		log.Error("no monitors for manual capture", "error", err)
		s.failSession(err)
		s.opts.Surface.Alert("Monitor Error", "No monitors detected for screenshot capture.")
		return res, err
	}

	for _, m := range monitors {
		path := filepath.Join(dir, ScreenshotName(now, kind, m.ID))
		wr, err := s.opts.Writer.Write(ctx, m, path, s.opts.Fallback)
		if err != nil {
			res.Failures = append(res.Failures, Failure{MonitorID: m.ID, Err: err})
			continue
		}
		if wr.Small {
			log.Warn("screenshot unusually small, screen recording permission may be missing",
				"path", wr.Path, "bytes", wr.Bytes, "backend", wr.Backend)
		}
		res.Saved = append(res.Saved, wr)
	}

	if len(res.Saved) == 0 {
		err := apperrors.New(apperrors.CodeCaptureFailed, "failed to capture any screenshots")
		if len(res.Failures) > 0 {
			err.Cause = joinFailures(res.Failures)
		}
		log.Error("manual capture saved nothing", "error", err)
		s.recordFailures(log, res.Failures, len(monitors))
		s.publish()
		s.opts.Surface.Alert("Screenshot Error", "Failed to capture any screenshots. Check permissions.\n\n"+PermissionHint)
		return res, err
	}

	s.st.manualCaptures++
	s.st.lastCapture = now
	s.setTitle(titleFor(now))
	s.recordFailures(log, res.Failures, len(monitors))
	s.publish()
	return res, nil
}

func (s *Scheduler) failSession(err error) {
	s.st.lastError = err.Error()
	s.publish()
}
