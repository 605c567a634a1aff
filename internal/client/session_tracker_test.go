package client

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenAPI struct {
	refreshes  int32
	refreshErr error
}

func (m *mockTokenAPI) RefreshToken(ctx context.Context) error {
	atomic.AddInt32(&m.refreshes, 1)
	return m.refreshErr
}

func (m *mockTokenAPI) count() int32 {
	return atomic.LoadInt32(&m.refreshes)
}

func TestTrackerRefreshesWhileActive(t *testing.T) {
	api := &mockTokenAPI{}
	tracker := NewSessionTracker(api,
		WithIntervals(10*time.Millisecond, 100*time.Millisecond, time.Hour, time.Hour))
	tracker.Start()
	defer tracker.Stop()

	require.Eventually(t, func() bool { return api.count() >= 2 }, time.Second, time.Millisecond)
}

func TestTrackerSkipsRefreshWhenIdle(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	api := &mockTokenAPI{}
	// Activity window shorter than the simulated idle gap, idle timeout far
	// away so only the refresh loop is in play.
	tracker := NewSessionTracker(api,
		WithClock(clock),
		WithIntervals(10*time.Millisecond, 5*time.Minute, time.Hour, time.Hour))
	tracker.Start()
	defer tracker.Stop()

	mu.Lock()
	now = now.Add(10 * time.Minute)
	mu.Unlock()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), api.count())
}

func TestTrackerIdleLogout(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	logouts := make(chan struct{}, 4)
	tracker := NewSessionTracker(&mockTokenAPI{},
		WithClock(clock),
		WithIntervals(time.Hour, time.Hour, 30*time.Minute, 5*time.Millisecond),
		WithLogoutHandler(func() { logouts <- struct{}{} }))
	tracker.Start()

	mu.Lock()
	now = now.Add(31 * time.Minute)
	mu.Unlock()

	select {
	case <-logouts:
	case <-time.After(time.Second):
		t.Fatal("idle logout never fired")
	}

	// Loops are stopped; no duplicate logout follows.
	time.Sleep(30 * time.Millisecond)
	select {
	case <-logouts:
		t.Fatal("logout fired twice")
	default:
	}
}

func TestTrackerTouchPostponesLogout(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	var logouts int32
	tracker := NewSessionTracker(&mockTokenAPI{},
		WithClock(clock),
		WithIntervals(time.Hour, time.Hour, 30*time.Minute, 5*time.Millisecond),
		WithLogoutHandler(func() { atomic.AddInt32(&logouts, 1) }))
	tracker.Start()
	defer tracker.Stop()

	mu.Lock()
	now = now.Add(29 * time.Minute)
	mu.Unlock()
	tracker.Touch()

	mu.Lock()
	now = now.Add(29 * time.Minute)
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&logouts))
	assert.Less(t, tracker.IdleFor(), 30*time.Minute)
}

func TestTrackerUnauthorizedRefreshLogsOut(t *testing.T) {
	api := &mockTokenAPI{refreshErr: &APIError{Kind: KindUnauthorized, Message: "session expired"}}
	logouts := make(chan struct{}, 1)
	tracker := NewSessionTracker(api,
		WithIntervals(10*time.Millisecond, time.Hour, time.Hour, time.Hour),
		WithLogoutHandler(func() { logouts <- struct{}{} }))
	tracker.Start()

	select {
	case <-logouts:
	case <-time.After(time.Second):
		t.Fatal("unauthorized refresh did not force logout")
	}
}
