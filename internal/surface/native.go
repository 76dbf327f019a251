package surface

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
)

// ScriptRunner runs an AppleScript and returns stdout and stderr.
type ScriptRunner func(ctx context.Context, script string) (stdout, stderr string, err error)

// Osascript runs scripts through /usr/bin/osascript.
func Osascript(ctx context.Context, script string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Dialogs shows macOS notifications and dialogs via AppleScript.
type Dialogs struct {
	run ScriptRunner
}

// NewDialogs wraps a script runner; nil uses Osascript.
func NewDialogs(run ScriptRunner) *Dialogs {
	if run == nil {
		run = Osascript
	}
	return &Dialogs{run: run}
}

func (d *Dialogs) Notify(n Notification) {
	if _, stderr, err := d.run(context.Background(), notificationScript(n)); err != nil {
		slog.Error("notification failed", "error", err, "stderr", stderr, "subtitle", n.Subtitle)
	}
}

func (d *Dialogs) Alert(title, message string) {
	if _, stderr, err := d.run(context.Background(), alertScript(title, message)); err != nil {
		slog.Error("alert failed", "error", err, "stderr", stderr, "title", title)
	}
}

func (d *Dialogs) Prompt(req PromptRequest) PromptResponse {
	stdout, stderr, err := d.run(context.Background(), promptScript(req))
	if err != nil {
		if !isUserCanceled(stderr) {
			slog.Error("prompt failed", "error", err, "stderr", stderr)
		}
		return PromptResponse{}
	}
	return parseDialog(stdout, req.OK)
}

// SetTitle is a no-op; dialogs have no persistent title.
func (d *Dialogs) SetTitle(string) {}
