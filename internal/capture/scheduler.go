// Package capture runs the idle-skip screenshot scheduler: periodic ticks
// that only save when a monitor's fingerprint changed, plus on-demand manual
// and milestone captures. All state is owned by one event loop.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/mac-cappy/internal/detect"
	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/recurring"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/surface"
	"github.com/GriffinCanCode/mac-cappy/internal/syncx"
	"github.com/GriffinCanCode/mac-cappy/internal/trace"
)

// Fingerprinter computes a monitor's change fingerprint.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, m screen.Monitor) (detect.Sample, error)
}

// Writer persists a full-monitor screenshot.
type Writer interface {
	Write(ctx context.Context, m screen.Monitor, path string, allowFallback bool) (screen.WriteResult, error)
}

// Options wires a Scheduler. Monitors, Detector, Writer and Surface are
// required.
type Options struct {
	Monitors screen.MonitorSource
	Detector Fingerprinter
	Writer   Writer
	Surface  surface.Surface
	Layout   Layout

	AppName       string
	Interval      time.Duration
	StartDisabled bool
	// Fallback lets manual and milestone captures use the external
	// screenshot tool; auto captures never do.
	Fallback bool

	Clock  func() time.Time
	Ticker recurring.Factory
}

// Action is a user request serialized through the event loop.
type Action int

const (
	ActionToggle Action = iota
	ActionEnable
	ActionDisable
	ActionManualCapture
	ActionManualCaptureWithNote
	ActionTick
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionEnable:
		return "enable"
	case ActionDisable:
		return "disable"
	case ActionManualCapture:
		return "manual_capture"
	case ActionManualCaptureWithNote:
		return "manual_capture_with_note"
	case ActionTick:
		return "tick"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

type request struct {
	action Action
	fn     func(context.Context) error // set for Exec; action is ignored
	done   chan error
}

// state is touched only by the event loop goroutine.
type state struct {
	enabled        bool
	store          Store
	perceptual     map[int]*goimagehash.ImageHash
	idleSkips      int
	manualCaptures int
	lastCapture    time.Time
	lastSkip       time.Time
	lastError      string
	title          string
}

// Scheduler is the capture state machine. Tick, ManualCapture,
// ManualCaptureWithNote, CaptureMilestone, SetEnabled and Toggle mutate
// loop-owned state: call them from the goroutine running Run, or before Run
// starts. Other goroutines use Submit, Do, Exec, Status and Subscribe.
type Scheduler struct {
	opts    Options
	st      state
	task    *recurring.Task
	actions chan request
	status  *syncx.Published[Status]
}

// New validates opts and builds a scheduler in the Enabled state unless
// StartDisabled is set.
func New(opts Options) (*Scheduler, error) {
	switch {
	case opts.Monitors == nil:
		return nil, apperrors.New(apperrors.CodeInternal, "capture: monitor source is required")
	case opts.Detector == nil:
		return nil, apperrors.New(apperrors.CodeInternal, "capture: detector is required")
	case opts.Writer == nil:
		return nil, apperrors.New(apperrors.CodeInternal, "capture: writer is required")
	case opts.Surface == nil:
		return nil, apperrors.New(apperrors.CodeInternal, "capture: surface is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.AppName == "" {
		opts.AppName = "mac-cappy"
	}

	s := &Scheduler{
		opts:    opts,
		task:    recurring.New(opts.Interval, opts.Ticker),
		actions: make(chan request, ActionBuffer),
		st: state{
			enabled:    !opts.StartDisabled,
			store:      Store{},
			perceptual: make(map[int]*goimagehash.ImageHash),
			title:      Icon,
		},
	}
	s.status = syncx.NewPublished(s.snapshot())
	return s, nil
}

// Status returns the latest published status.
func (s *Scheduler) Status() Status { return s.status.Get() }

// Subscribe signals after every status change.
func (s *Scheduler) Subscribe() <-chan struct{} { return s.status.Subscribe() }

// Submit queues an action for the event loop without waiting for it.
func (s *Scheduler) Submit(ctx context.Context, a Action) error {
	select {
	case s.actions <- request{action: a}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do queues an action and waits until the event loop has executed it.
func (s *Scheduler) Do(ctx context.Context, a Action) error {
	req := request{action: a, done: make(chan error, 1)}
	select {
	case s.actions <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec runs fn on the event loop, so it never overlaps a tick or another
// action, and waits for its result.
func (s *Scheduler) Exec(ctx context.Context, fn func(context.Context) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case s.actions <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the event loop. It ticks while enabled and executes queued actions
// one at a time until ctx is done. No tick or action failure stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	log := trace.Logger(ctx)
	if s.st.enabled {
		s.task.Start()
	}
	defer s.task.Stop()
	log.Info("scheduler started", "enabled", s.st.enabled, "interval", s.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return nil
		case <-s.task.C():
			s.Tick(ctx)
		case req := <-s.actions:
			var err error
			if req.fn != nil {
				err = req.fn(ctx)
			} else {
				err = s.dispatch(ctx, req.action)
			}
			if req.done != nil {
				req.done <- err
			}
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, a Action) error {
	switch a {
	case ActionToggle:
		s.Toggle(ctx)
	case ActionEnable:
		s.SetEnabled(ctx, true)
	case ActionDisable:
		s.SetEnabled(ctx, false)
	case ActionManualCapture:
		_, err := s.ManualCapture(ctx)
		return err
	case ActionManualCaptureWithNote:
		_, err := s.ManualCaptureWithNote(ctx)
		return err
	case ActionTick:
		return s.Tick(ctx).Err
	default:
		return apperrors.Newf(apperrors.CodeInternal, "unknown action %v", a)
	}
	return nil
}

// Toggle flips auto-capture.
func (s *Scheduler) Toggle(ctx context.Context) {
	s.SetEnabled(ctx, !s.st.enabled)
}

// SetEnabled switches auto-capture. Enabling from disabled resets both
// counters and forgets every fingerprint so the next tick saves; disabling
// stops the ticker so a pending tick never fires.
func (s *Scheduler) SetEnabled(ctx context.Context, enabled bool) {
	if s.st.enabled == enabled {
		return
	}
	log := trace.Logger(ctx)
	s.st.enabled = enabled

	if enabled {
		s.st.idleSkips = 0
		s.st.manualCaptures = 0
		s.st.store = Store{}
		clear(s.st.perceptual)
		s.task.Start()
		log.Info("auto screenshots enabled", "interval", s.opts.Interval)
		s.notify("Auto Screenshots Enabled",
			fmt.Sprintf("Taking screenshots every %d seconds", int(s.opts.Interval/time.Second)))
	} else {
		s.task.Stop()
		s.setTitle(Icon)
		log.Info("auto screenshots disabled")
		s.notify("Auto Screenshots Disabled", "Manual capture only")
	}
	s.publish()
}

func (s *Scheduler) snapshot() Status {
	return Status{
		Enabled:        s.st.enabled,
		IdleSkips:      s.st.idleSkips,
		ManualCaptures: s.st.manualCaptures,
		LastCapture:    s.st.lastCapture,
		LastSkip:       s.st.lastSkip,
		LastError:      s.st.lastError,
		Title:          s.st.title,
		Monitors:       len(s.st.store),
	}
}

func (s *Scheduler) publish() { s.status.Set(s.snapshot()) }

func (s *Scheduler) setTitle(title string) {
	s.st.title = title
	s.opts.Surface.SetTitle(title)
}

func (s *Scheduler) notify(subtitle, message string) {
	s.opts.Surface.Notify(surface.Notification{Title: s.opts.AppName, Subtitle: subtitle, Message: message})
}

func (s *Scheduler) monitors() ([]screen.Monitor, error) {
	monitors, err := s.opts.Monitors.Monitors()
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, apperrors.New(apperrors.CodeNoMonitors, "no monitors detected")
	}
	return monitors, nil
}

func titleFor(t time.Time) string {
	return Icon + " " + t.Format(titleLayout)
}
