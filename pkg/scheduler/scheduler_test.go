package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryFiresUntilCancelled(t *testing.T) {
	var ticks int64
	s := New()
	task := s.Every(5*time.Millisecond, func() {
		atomic.AddInt64(&ticks, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) >= 3
	}, time.Second, time.Millisecond)

	task.Cancel()
	after := atomic.LoadInt64(&ticks)
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt64(&ticks), "no ticks after Cancel returns")
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New()
	task := s.Every(time.Hour, func() {})
	assert.True(t, task.Active())

	task.Cancel()
	task.Cancel()
	assert.False(t, task.Active())
}

func TestNilTaskIsSafe(t *testing.T) {
	var task *Task
	task.Cancel()
	assert.False(t, task.Active())
}
