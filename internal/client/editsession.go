package client

import (
	"context"
	"sync"
	"time"

	"github.com/ssgb-dev/logbook-api/pkg/scheduler"
)

// SessionState is the edit-session lifecycle position.
type SessionState int

const (
	StateUnlocked SessionState = iota
	StateAcquiring
	StateLocked
	StateSaving
)

func (s SessionState) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateLocked:
		return "locked"
	case StateSaving:
		return "saving"
	default:
		return "unlocked"
	}
}

// DefaultRenewInterval is how often a held lock is renewed. The server TTL
// is 30 minutes, so renewing at 25 keeps a healthy margin.
const DefaultRenewInterval = 25 * time.Minute

// RecordAPI is the slice of the HTTP client an edit session needs.
type RecordAPI interface {
	AcquireLock(ctx context.Context, recordID int64) error
	ReleaseLock(ctx context.Context, recordID int64) error
	ExtendLock(ctx context.Context, recordID int64) error
	SaveRecord(ctx context.Context, recordID int64, content string) error
}

// EditSession drives the client side of the record lock protocol: acquire
// with renewal, save while locked, best-effort release on teardown. At most
// one API call is in flight per session; overlapping calls are rejected.
type EditSession struct {
	api           RecordAPI
	sched         *scheduler.Scheduler
	renewInterval time.Duration

	// onLockLost fires when a renewal fails and the session reverts to
	// read-only. onSaved fires after a successful save.
	onLockLost func(error)
	onSaved    func(recordID int64)

	mu       sync.Mutex
	state    SessionState
	recordID int64
	renewal  *scheduler.Task
	inFlight bool
}

// EditSessionOption customises an EditSession.
type EditSessionOption func(*EditSession)

// WithRenewInterval overrides the renewal period, mainly for tests.
func WithRenewInterval(d time.Duration) EditSessionOption {
	return func(s *EditSession) { s.renewInterval = d }
}

// WithLockLostHandler registers the lost-lock notification.
func WithLockLostHandler(fn func(error)) EditSessionOption {
	return func(s *EditSession) { s.onLockLost = fn }
}

// WithSavedHandler registers the post-save notification, used by the UI to
// refresh the version list.
func WithSavedHandler(fn func(recordID int64)) EditSessionOption {
	return func(s *EditSession) { s.onSaved = fn }
}

// NewEditSession builds a session around the given API client.
func NewEditSession(api RecordAPI, opts ...EditSessionOption) *EditSession {
	s := &EditSession{
		api:           api,
		sched:         scheduler.New(),
		renewInterval: DefaultRenewInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle position.
func (s *EditSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RenewalActive reports whether a renewal timer is running.
func (s *EditSession) RenewalActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renewal.Active()
}

var errBusy = &APIError{Kind: KindValidation, Message: "another request is in flight"}

func (s *EditSession) begin(from SessionState, to SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return errBusy
	}
	if s.state != from {
		return &APIError{Kind: KindValidation, Message: "not " + from.String()}
	}
	s.inFlight = true
	s.state = to
	return nil
}

// Acquire takes the server lock and starts the renewal timer. On rejection
// the session stays unlocked; there is no automatic retry.
func (s *EditSession) Acquire(ctx context.Context, recordID int64) error {
	if err := s.begin(StateUnlocked, StateAcquiring); err != nil {
		return err
	}

	err := s.api.AcquireLock(ctx, recordID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.state = StateUnlocked
		return err
	}
	s.state = StateLocked
	s.recordID = recordID
	s.renewal = s.sched.Every(s.renewInterval, s.renew)
	return nil
}

// renew runs on the renewal timer. A failed renewal means the lock is gone:
// the timer stops, the session unlocks and the UI is told.
func (s *EditSession) renew() {
	s.mu.Lock()
	if s.state != StateLocked || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	recordID := s.recordID
	s.mu.Unlock()

	err := s.api.ExtendLock(context.Background(), recordID)

	s.mu.Lock()
	s.inFlight = false
	if err == nil {
		s.mu.Unlock()
		return
	}
	task := s.renewal
	s.renewal = nil
	s.state = StateUnlocked
	s.mu.Unlock()

	// Cancel waits for the runner goroutine, which is the one calling us,
	// so it must happen off this stack.
	go task.Cancel()
	if s.onLockLost != nil {
		s.onLockLost(err)
	}
}

// Save writes content while holding the lock. Success releases the session
// locally and cancels the renewal timer before returning; failure keeps the
// lock so the user can retry.
func (s *EditSession) Save(ctx context.Context, content string) error {
	if err := s.begin(StateLocked, StateSaving); err != nil {
		return err
	}

	s.mu.Lock()
	recordID := s.recordID
	s.mu.Unlock()

	err := s.api.SaveRecord(ctx, recordID, content)

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		// Close may have torn the session down while the save was in
		// flight; only a session still mid-save goes back to locked.
		if s.state == StateSaving {
			s.state = StateLocked
		}
		s.mu.Unlock()
		return err
	}
	task := s.renewal
	s.renewal = nil
	s.state = StateUnlocked
	s.mu.Unlock()

	task.Cancel()
	if s.onSaved != nil {
		s.onSaved(recordID)
	}
	return nil
}

// Close tears the session down: the renewal timer is cancelled first, then
// a held lock is released best-effort. A failed release is not an error;
// the server TTL will reap the lock.
func (s *EditSession) Close(ctx context.Context) {
	s.mu.Lock()
	task := s.renewal
	s.renewal = nil
	wasLocked := s.state == StateLocked || s.state == StateSaving
	recordID := s.recordID
	s.state = StateUnlocked
	s.mu.Unlock()

	task.Cancel()
	if wasLocked {
		_ = s.api.ReleaseLock(ctx, recordID)
	}
}
