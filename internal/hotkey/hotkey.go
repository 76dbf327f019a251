// Package hotkey registers a global keyboard shortcut.
package hotkey

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

// DefaultDebounce swallows key repeat while the chord is held.
const DefaultDebounce = time.Second

var modifiers = []string{"cmd", "command", "ctrl", "control", "shift", "alt", "option"}

// aliases maps friendly names onto the names gohook expects.
var aliases = map[string]string{
	"command": "cmd",
	"control": "ctrl",
	"option":  "alt",
}

// Normalize lowercases, trims and canonicalizes key names.
func Normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if a, ok := aliases[k]; ok {
			k = a
		}
		out = append(out, k)
	}
	return out
}

// Validate requires at least one modifier, exactly one non-modifier key and
// no duplicates.
func Validate(keys []string) error {
	keys = Normalize(keys)
	if len(keys) == 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "hotkey: no keys")
	}
	var mods, plain int
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return apperrors.Newf(apperrors.CodeConfigInvalid, "hotkey: duplicate key %q", k)
		}
		seen[k] = true
		if slices.Contains(modifiers, k) {
			mods++
		} else {
			plain++
		}
	}
	if mods == 0 || plain != 1 {
		return apperrors.Newf(apperrors.CodeConfigInvalid,
			"hotkey %q: need one or more modifiers plus exactly one key", strings.Join(keys, "+"))
	}
	return nil
}

// Listener fires a callback when its chord is pressed.
type Listener struct {
	keys     []string
	debounce time.Duration
	fire     func()
	clock    func() time.Time

	mu   sync.Mutex
	last time.Time
}

// New validates keys and returns a listener.
func New(keys []string, debounce time.Duration, fire func()) (*Listener, error) {
	if err := Validate(keys); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Listener{keys: Normalize(keys), debounce: debounce, fire: fire, clock: time.Now}, nil
}

// Keys returns the normalized chord.
func (l *Listener) Keys() []string { return slices.Clone(l.keys) }

// trigger runs fire unless the previous press was within the debounce window.
func (l *Listener) trigger() bool {
	now := l.clock()
	l.mu.Lock()
	if !l.last.IsZero() && now.Sub(l.last) < l.debounce {
		l.mu.Unlock()
		return false
	}
	l.last = now
	l.mu.Unlock()
	l.fire()
	return true
}

// Run hooks the keyboard until ctx is done. Only one listener may run per
// process because the underlying hook is global.
func (l *Listener) Run(ctx context.Context) error {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) {
		if l.trigger() {
			slog.Debug("hotkey pressed", "keys", strings.Join(l.keys, "+"))
		}
	})
	events := hook.Start()
	slog.Info("hotkey registered", "keys", strings.Join(l.keys, "+"))

	go func() {
		<-ctx.Done()
		hook.End()
	}()
	<-hook.Process(events)
	return nil
}
