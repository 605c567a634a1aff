package client

import (
	"context"
	"sync"
	"time"

	"github.com/ssgb-dev/logbook-api/pkg/scheduler"
)

// Session keepalive policy: refresh the token every 20 minutes while the
// user was active within the last 25, and force logout after 30 minutes
// without any input.
const (
	DefaultRefreshInterval   = 20 * time.Minute
	DefaultActivityWindow    = 25 * time.Minute
	DefaultIdleTimeout       = 30 * time.Minute
	DefaultIdleCheckInterval = time.Minute
)

// TokenAPI is the slice of the HTTP client the tracker needs.
type TokenAPI interface {
	RefreshToken(ctx context.Context) error
}

// SessionTracker owns the activity timestamp and the two keepalive loops.
// It replaces ambient globals with an explicit start/stop lifecycle so the
// timing logic is testable in isolation.
type SessionTracker struct {
	api   TokenAPI
	sched *scheduler.Scheduler
	now   func() time.Time

	refreshInterval   time.Duration
	activityWindow    time.Duration
	idleTimeout       time.Duration
	idleCheckInterval time.Duration

	onLogout func()

	mu           sync.Mutex
	lastActivity time.Time
	refreshTask  *scheduler.Task
	idleTask     *scheduler.Task
	stopped      bool
}

// TrackerOption customises a SessionTracker.
type TrackerOption func(*SessionTracker)

// WithIntervals overrides all four timing knobs, mainly for tests.
func WithIntervals(refresh, activityWindow, idleTimeout, idleCheck time.Duration) TrackerOption {
	return func(t *SessionTracker) {
		t.refreshInterval = refresh
		t.activityWindow = activityWindow
		t.idleTimeout = idleTimeout
		t.idleCheckInterval = idleCheck
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *SessionTracker) { t.now = now }
}

// WithLogoutHandler registers the forced-logout notification.
func WithLogoutHandler(fn func()) TrackerOption {
	return func(t *SessionTracker) { t.onLogout = fn }
}

// NewSessionTracker builds a tracker around the given token client.
func NewSessionTracker(api TokenAPI, opts ...TrackerOption) *SessionTracker {
	t := &SessionTracker{
		api:               api,
		sched:             scheduler.New(),
		now:               time.Now,
		refreshInterval:   DefaultRefreshInterval,
		activityWindow:    DefaultActivityWindow,
		idleTimeout:       DefaultIdleTimeout,
		idleCheckInterval: DefaultIdleCheckInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the refresh and idle loops. The session counts as active
// at start time.
func (t *SessionTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refreshTask != nil {
		return
	}
	t.stopped = false
	t.lastActivity = t.now()
	t.refreshTask = t.sched.Every(t.refreshInterval, t.refreshTick)
	t.idleTask = t.sched.Every(t.idleCheckInterval, t.idleTick)
}

// Stop cancels both loops. Safe to call more than once and from callbacks.
func (t *SessionTracker) Stop() {
	t.stop()
}

func (t *SessionTracker) stop() bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	t.stopped = true
	refresh := t.refreshTask
	idle := t.idleTask
	t.refreshTask = nil
	t.idleTask = nil
	t.mu.Unlock()

	// Off this stack: Stop may be invoked from inside a tick.
	go refresh.Cancel()
	go idle.Cancel()
	return true
}

// Touch records user input, postponing the idle logout.
func (t *SessionTracker) Touch() {
	t.mu.Lock()
	t.lastActivity = t.now()
	t.mu.Unlock()
}

// IdleFor reports how long the user has been inactive.
func (t *SessionTracker) IdleFor() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.lastActivity)
}

func (t *SessionTracker) refreshTick() {
	t.mu.Lock()
	idle := t.now().Sub(t.lastActivity)
	stopped := t.stopped
	t.mu.Unlock()
	if stopped || idle > t.activityWindow {
		// Nobody is at the keyboard; let the idle loop decide.
		return
	}
	if err := t.api.RefreshToken(context.Background()); err != nil {
		if Kind(err) == KindUnauthorized {
			t.forceLogout()
		}
	}
}

func (t *SessionTracker) idleTick() {
	t.mu.Lock()
	idle := t.now().Sub(t.lastActivity)
	stopped := t.stopped
	t.mu.Unlock()
	if stopped || idle < t.idleTimeout {
		return
	}
	t.forceLogout()
}

func (t *SessionTracker) forceLogout() {
	if !t.stop() {
		return
	}
	if t.onLogout != nil {
		t.onLogout()
	}
}
