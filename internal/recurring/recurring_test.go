package recurring

import (
	"testing"
	"time"
)

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped = true }

func TestStartStop(t *testing.T) {
	var made []*manualTicker
	var gotInterval time.Duration
	task := New(30*time.Second, func(d time.Duration) Ticker {
		gotInterval = d
		mt := &manualTicker{ch: make(chan time.Time, 1)}
		made = append(made, mt)
		return mt
	})

	if task.Running() || task.C() != nil {
		t.Fatal("new task should be stopped with a nil channel")
	}
	if !task.Start() {
		t.Fatal("Start() = false on a stopped task")
	}
	if task.Start() {
		t.Error("second Start() should report false")
	}
	if len(made) != 1 {
		t.Errorf("tickers created = %d, want 1", len(made))
	}
	if gotInterval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", gotInterval)
	}

	made[0].ch <- time.Now()
	select {
	case <-task.C():
	default:
		t.Error("tick not delivered while running")
	}

	made[0].ch <- time.Now()
	task.Stop()
	if !made[0].stopped {
		t.Error("underlying ticker not stopped")
	}
	if task.C() != nil {
		t.Error("C() should be nil after Stop so the pending tick never fires")
	}
	task.Stop()

	if !task.Start() || len(made) != 2 {
		t.Error("restart should create a fresh ticker")
	}
}

func TestStdFactory(t *testing.T) {
	task := New(time.Millisecond, nil)
	task.Start()
	defer task.Stop()

	select {
	case <-task.C():
	case <-time.After(time.Second):
		t.Fatal("no tick from the standard ticker")
	}
	if task.Interval() != time.Millisecond {
		t.Errorf("Interval() = %v", task.Interval())
	}
}
