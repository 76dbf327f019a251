// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Published holds the most recent value written by a single owner and lets
// other goroutines read it or wait for changes. Notifications coalesce: a
// slow subscriber sees only the latest value, never a backlog.
type Published[T any] struct {
	mu    sync.RWMutex
	value T
	subs  []chan struct{}
}

// NewPublished creates a published value.
func NewPublished[T any](initial T) *Published[T] {
	return &Published[T]{value: initial}
}

// Get returns a copy of the value (T should be value type or immutable).
func (p *Published[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the value and wakes every subscriber.
func (p *Published[T]) Set(v T) {
	p.mu.Lock()
	p.value = v
	subs := p.subs
	p.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Update mutates the value in place under the write lock, then notifies.
func (p *Published[T]) Update(fn func(*T)) {
	p.mu.Lock()
	fn(&p.value)
	subs := p.subs
	p.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel that receives a signal after each Set/Update.
// Call Get after a signal to read the new value.
func (p *Published[T]) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}
