package session

import (
	"sync"
	"sync/atomic"
)

// StopToken is a one-shot cooperative cancellation flag. The loop checks it
// between steps; it never interrupts a call already in flight.
type StopToken struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func NewStopToken() *StopToken {
	return &StopToken{done: make(chan struct{})}
}

func (t *StopToken) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.done)
	})
}

func (t *StopToken) Stopped() bool { return t.stopped.Load() }

// Done is closed once Stop has been called.
func (t *StopToken) Done() <-chan struct{} { return t.done }
