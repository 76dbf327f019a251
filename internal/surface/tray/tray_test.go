package tray

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/mac-cappy/internal/capture"
)

type fakeScheduler struct {
	execs int
}

func (f *fakeScheduler) Submit(context.Context, capture.Action) error { return nil }
func (f *fakeScheduler) Status() capture.Status                       { return capture.Status{} }
func (f *fakeScheduler) Subscribe() <-chan struct{}                   { return nil }

func (f *fakeScheduler) Exec(ctx context.Context, fn func(context.Context) error) error {
	f.execs++
	return fn(ctx)
}

func TestExecRoutesHandlersThroughScheduler(t *testing.T) {
	sched := &fakeScheduler{}
	tr := New("mac-cappy", nil)
	tr.Attach(sched, Handlers{})

	calls := 0
	tr.exec(context.Background(), "check_permissions", func(context.Context) { calls++ })
	if calls != 1 || sched.execs != 1 {
		t.Errorf("handler calls = %d, scheduler execs = %d, want 1 and 1", calls, sched.execs)
	}

	tr.exec(context.Background(), "open_logs", nil)
	if sched.execs != 1 {
		t.Errorf("nil handler reached the scheduler: execs = %d", sched.execs)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"1 of 2 monitors failed", 10, "1 of 2 mo…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
