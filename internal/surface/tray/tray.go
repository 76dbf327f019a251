// Package tray is the menu bar front end. systray must own the main thread
// on macOS, so Run blocks the calling goroutine until Quit.
package tray

import (
	"context"
	"log/slog"

	"fyne.io/systray"

	"github.com/GriffinCanCode/mac-cappy/internal/capture"
	"github.com/GriffinCanCode/mac-cappy/internal/surface"
)

// Scheduler is the part of capture.Scheduler the menu drives.
type Scheduler interface {
	Submit(ctx context.Context, a capture.Action) error
	Exec(ctx context.Context, fn func(context.Context) error) error
	Status() capture.Status
	Subscribe() <-chan struct{}
}

// Handlers are menu actions that run outside the capture event loop.
type Handlers struct {
	CheckPermissions func(ctx context.Context)
	OpenLogs         func(ctx context.Context)
}

// Tray implements surface.Surface: the title goes to the menu bar, dialogs
// go to the wrapped surface.
type Tray struct {
	surface.Surface // dialogs

	appName  string
	sched    Scheduler
	handlers Handlers
}

var _ surface.Surface = (*Tray)(nil)

// New builds a tray over dialogs. Call Attach before Run.
func New(appName string, dialogs surface.Surface) *Tray {
	return &Tray{Surface: dialogs, appName: appName}
}

// Attach connects the scheduler and the extra handlers.
func (t *Tray) Attach(s Scheduler, h Handlers) {
	t.sched = s
	t.handlers = h
}

// SetTitle updates the menu bar text. Safe from any goroutine.
func (t *Tray) SetTitle(title string) {
	systray.SetTitle(title)
}

type menu struct {
	manual    *systray.MenuItem
	milestone *systray.MenuItem
	toggle    *systray.MenuItem
	idleSkips *systray.MenuItem
	manualCnt *systray.MenuItem
	last      *systray.MenuItem
	lastError *systray.MenuItem
	perms     *systray.MenuItem
	openLogs  *systray.MenuItem
	quit      *systray.MenuItem
}

// Run shows the menu until ctx is done or Quit is clicked, then returns.
func (t *Tray) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	systray.Run(func() { t.onReady(ctx, cancel) }, func() {
		slog.Info("menu bar closed")
	})
}

func (t *Tray) onReady(ctx context.Context, cancel context.CancelFunc) {
	systray.SetTitle(capture.Icon)
	systray.SetTooltip(t.appName)

	m := &menu{}
	m.manual = systray.AddMenuItem("Manual Capture", "Save every screen now")
	m.milestone = systray.AddMenuItem("Manual Capture + Note", "Save every screen and log a milestone")
	systray.AddSeparator()
	m.toggle = systray.AddMenuItem("Auto Screenshots: ON", "Toggle idle-skip auto capture")
	m.idleSkips = systray.AddMenuItem("Idle Skips: 0", "")
	m.idleSkips.Disable()
	m.manualCnt = systray.AddMenuItem("Manual Captures: 0", "")
	m.manualCnt.Disable()
	m.last = systray.AddMenuItem("Last Capture: never", "")
	m.last.Disable()
	m.lastError = systray.AddMenuItem("", "")
	m.lastError.Disable()
	m.lastError.Hide()
	systray.AddSeparator()
	m.perms = systray.AddMenuItem("Check Permissions", "Verify Screen Recording access")
	m.openLogs = systray.AddMenuItem("Debug: Open Log Folder", "Open the milestone logs folder")
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit", "Quit "+t.appName)

	status := t.sched.Subscribe()
	t.render(m, t.sched.Status())

	go func() {
		for {
			select {
			case <-ctx.Done():
				systray.Quit()
				return
			case <-status:
				t.render(m, t.sched.Status())
			case <-m.manual.ClickedCh:
				t.submit(ctx, capture.ActionManualCapture)
			case <-m.milestone.ClickedCh:
				t.submit(ctx, capture.ActionManualCaptureWithNote)
			case <-m.toggle.ClickedCh:
				t.submit(ctx, capture.ActionToggle)
			case <-m.perms.ClickedCh:
				go t.exec(ctx, "check_permissions", t.handlers.CheckPermissions)
			case <-m.openLogs.ClickedCh:
				go t.exec(ctx, "open_logs", t.handlers.OpenLogs)
			case <-m.quit.ClickedCh:
				slog.Info("quit requested")
				cancel()
			}
		}
	}()
}

// exec runs a handler on the scheduler loop so a permission test shot never
// overlaps a tick.
func (t *Tray) exec(ctx context.Context, name string, h func(context.Context)) {
	if h == nil {
		return
	}
	err := t.sched.Exec(ctx, func(ctx context.Context) error {
		h(ctx)
		return nil
	})
	if err != nil {
		slog.Error("menu action dropped", "action", name, "error", err)
	}
}

func (t *Tray) submit(ctx context.Context, a capture.Action) {
	if err := t.sched.Submit(ctx, a); err != nil {
		slog.Error("menu action dropped", "action", a, "error", err)
	}
}

func (t *Tray) render(m *menu, st capture.Status) {
	m.toggle.SetTitle(st.ToggleLabel())
	m.idleSkips.SetTitle(st.IdleSkipsLabel())
	m.manualCnt.SetTitle(st.ManualCapturesLabel())
	m.last.SetTitle(st.LastCaptureLabel())
	if st.LastError != "" {
		m.lastError.SetTitle("Last Error: " + truncate(st.LastError, 60))
		m.lastError.Show()
	} else {
		m.lastError.Hide()
	}
	systray.SetTitle(st.Title)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
