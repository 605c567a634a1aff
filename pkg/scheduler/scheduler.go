// Package scheduler provides cancellable repeating tasks with explicit
// handles, replacing ambient interval IDs. Cancellation is synchronous: once
// Cancel returns, no further tick is delivered.
package scheduler

import (
	"sync"
	"time"
)

// Task is a handle for a scheduled repeating function.
type Task struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// Scheduler creates repeating tasks. The zero value is ready to use; tests
// may set Interval overrides on individual calls instead of waiting real
// time.
type Scheduler struct{}

// New returns a Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Every runs fn every interval until the returned task is cancelled. The
// first run happens after one full interval, matching setInterval semantics.
func (s *Scheduler) Every(interval time.Duration, fn func()) *Task {
	t := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()

	return t
}

// Cancel stops the task and waits for the runner goroutine to exit. It is
// safe to call more than once.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		close(t.stop)
	}
	t.mu.Unlock()
	<-t.done
}

// Active reports whether the task has not been cancelled yet.
func (t *Task) Active() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}
