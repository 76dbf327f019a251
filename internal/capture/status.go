package capture

import (
	"fmt"
	"time"
)

// Status is the published, read-only view of the scheduler.
type Status struct {
	Enabled        bool
	IdleSkips      int
	ManualCaptures int
	LastCapture    time.Time
	LastSkip       time.Time
	LastError      string
	Title          string
	Monitors       int // fingerprint store size
}

// ToggleLabel is the menu text for the auto-capture switch.
func (s Status) ToggleLabel() string {
	if s.Enabled {
		return "Auto Screenshots: ON"
	}
	return "Auto Screenshots: OFF"
}

func (s Status) IdleSkipsLabel() string {
	return fmt.Sprintf("Idle Skips: %d", s.IdleSkips)
}

func (s Status) ManualCapturesLabel() string {
	return fmt.Sprintf("Manual Captures: %d", s.ManualCaptures)
}

// LastCaptureLabel reads "Last Capture: HH:MM:SS" or "Last Capture: never".
func (s Status) LastCaptureLabel() string {
	if s.LastCapture.IsZero() {
		return "Last Capture: never"
	}
	return "Last Capture: " + s.LastCapture.Format("15:04:05")
}
