// Package app wires configuration, capture, and the user surfaces together.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/GriffinCanCode/mac-cappy/internal/capture"
	"github.com/GriffinCanCode/mac-cappy/internal/config"
	"github.com/GriffinCanCode/mac-cappy/internal/desktop"
	"github.com/GriffinCanCode/mac-cappy/internal/detect"
	"github.com/GriffinCanCode/mac-cappy/internal/hotkey"
	"github.com/GriffinCanCode/mac-cappy/internal/permissions"
	"github.com/GriffinCanCode/mac-cappy/internal/resilience"
	"github.com/GriffinCanCode/mac-cappy/internal/screen"
	"github.com/GriffinCanCode/mac-cappy/internal/server"
	"github.com/GriffinCanCode/mac-cappy/internal/surface"
	"github.com/GriffinCanCode/mac-cappy/internal/surface/tray"
	"github.com/GriffinCanCode/mac-cappy/internal/trace"
)

// Deps overrides the platform collaborators. Zero fields use the real ones.
type Deps struct {
	Display  screen.Display
	Fallback screen.Fallback
	Surface  surface.Surface // replaces the native dialogs / console
	Opener   *desktop.Opener
	Stdout   io.Writer
	Stdin    io.Reader
}

// App owns one scheduler and its surfaces.
type App struct {
	cfg     *config.Config
	display screen.Display
	writer  *screen.PNGWriter
	sched   *capture.Scheduler
	surface surface.Surface
	opener  *desktop.Opener
	tray    *tray.Tray
}

// New builds the app. With cfg.Headless the console is the only surface;
// otherwise the menu bar owns the title and native dialogs do the rest.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Display == nil {
		deps.Display = screen.NewDisplay()
	}
	if deps.Fallback == nil && cfg.ScreencaptureFallback {
		deps.Fallback = screen.NativeFallback()
	}
	if deps.Opener == nil {
		deps.Opener = desktop.NewOpener(nil)
	}

	a := &App{cfg: cfg, display: deps.Display, opener: deps.Opener}

	dialogs := deps.Surface
	if dialogs == nil {
		if cfg.Headless {
			dialogs = surface.NewConsole(deps.Stdout, deps.Stdin)
		} else {
			dialogs = surface.NewNative(deps.Stdout, deps.Stdin)
		}
	}
	a.surface = dialogs
	if !cfg.Headless && deps.Surface == nil {
		a.tray = tray.New(config.AppName, dialogs)
		a.surface = a.tray
	}

	a.writer = screen.NewPNGWriter(deps.Display, screen.WriterOptions{
		MinBytes: cfg.MinScreenshotBytes,
		Fallback: deps.Fallback,
		Breaker: resilience.New(screen.BackendNative, resilience.DefaultConfig()).
			WithHook(func(from, to resilience.State) {
				slog.Info("capture breaker state", "from", from, "to", to)
			}),
	})

	sched, err := capture.New(capture.Options{
		Monitors:      deps.Display,
		Detector:      detect.New(deps.Display, cfg.SampleSize),
		Writer:        a.writer,
		Surface:       a.surface,
		Layout:        capture.Layout{CapturesRoot: cfg.CapturesDir(), LogsRoot: cfg.LogsDir()},
		AppName:       config.AppName,
		Interval:      cfg.Interval,
		StartDisabled: !cfg.AutoCapture,
		Fallback:      deps.Fallback != nil,
	})
	if err != nil {
		return nil, err
	}
	a.sched = sched

	if a.tray != nil {
		a.tray.Attach(sched, tray.Handlers{
			CheckPermissions: func(ctx context.Context) { a.CheckPermissions(ctx) },
			OpenLogs:         a.OpenLogs,
		})
	}
	return a, nil
}

// Scheduler exposes the capture scheduler.
func (a *App) Scheduler() *capture.Scheduler { return a.sched }

// EnsureDirs creates the captures and logs roots.
func (a *App) EnsureDirs() error {
	for _, dir := range []string{a.cfg.CapturesDir(), a.cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			a.surface.Alert("Setup Error", fmt.Sprintf("Failed to create directories: %v", err))
			return err
		}
	}
	return nil
}

// StartupProbe warns once when screen recording looks blocked.
func (a *App) StartupProbe(ctx context.Context) {
	if err := permissions.QuickProbe(a.display); err != nil {
		trace.Logger(ctx).Warn("screen recording probe failed", "error", err)
		a.surface.Notify(surface.Notification{
			Title:    config.AppName,
			Subtitle: "Permission Required",
			Message:  "Click 'Check Permissions' to enable screen recording",
		})
	}
}

// CheckPermissions runs the full test-shot check and reports the outcome.
// It returns true when permissions look fine.
func (a *App) CheckPermissions(ctx context.Context) bool {
	log := trace.Logger(ctx)
	res := permissions.Check(ctx, a.display, a.writer, a.cfg.CapturesDir())
	if res.OK {
		log.Info("permission check passed", "bytes", res.Bytes)
		a.surface.Alert("Permissions OK", "Screen recording permissions appear to be working correctly!")
		return true
	}

	log.Warn("permission check failed", "bytes", res.Bytes, "error", res.Err)
	a.surface.Alert("Screen Recording Permission Required", permissions.Guidance)
	if err := a.opener.Open(ctx, permissions.SettingsURL); err != nil {
		log.Error("could not open system settings", "error", err)
	}
	return false
}

// OpenLogs opens the milestone logs folder, creating it first if needed.
func (a *App) OpenLogs(ctx context.Context) {
	created, err := a.opener.OpenDir(ctx, a.cfg.LogsDir())
	if err != nil {
		trace.Logger(ctx).Error("open logs folder failed", "error", err)
		a.surface.Alert("Folder Error", fmt.Sprintf("Failed to open logs folder: %v", err))
		return
	}
	n := surface.Notification{Title: config.AppName, Subtitle: "Folder Opened", Message: "Logs folder opened"}
	if created {
		n.Subtitle = "Folder Created & Opened"
		n.Message = "Created and opened logs folder"
	}
	a.surface.Notify(n)
}

// Run blocks until ctx is done or the user quits from the menu bar.
func (a *App) Run(ctx context.Context) error {
	ctx, span := trace.StartSession(ctx, "app")
	defer span.End()
	log := trace.Logger(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.EnsureDirs(); err != nil {
		log.Error("setup failed", "error", err)
	}
	a.StartupProbe(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.sched.Run(ctx); err != nil {
			log.Error("scheduler stopped", "error", err)
		}
	}()

	if a.cfg.Hotkey.Enabled {
		l, err := hotkey.New(a.cfg.Hotkey.Keys, hotkey.DefaultDebounce, func() {
			if err := a.sched.Submit(ctx, capture.ActionManualCaptureWithNote); err != nil {
				log.Warn("hotkey action dropped", "error", err)
			}
		})
		if err != nil {
			log.Error("hotkey disabled", "error", err)
		} else {
			go l.Run(ctx)
		}
	}

	if a.cfg.Control.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.New(a.sched).ListenAndServe(ctx, a.cfg.Control.Addr); err != nil {
				log.Error("control server stopped", "error", err)
			}
		}()
	}

	log.Info("mac-cappy running",
		"base_dir", a.cfg.BaseDir,
		"interval", a.cfg.Interval,
		"auto_capture", a.cfg.AutoCapture,
		"headless", a.tray == nil)

	if a.tray != nil {
		a.tray.Run(ctx)
		cancel()
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	log.Info("shutdown complete", "span", span)
	return nil
}
