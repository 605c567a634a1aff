package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
)

type lockManager interface {
	Acquire(ctx context.Context, recordID int64, owner string) (bool, string, error)
	Release(ctx context.Context, recordID int64, owner string) (bool, error)
	Extend(ctx context.Context, recordID int64, owner string) (bool, error)
	GetOwner(ctx context.Context, recordID int64) (*string, error)
	TTL() time.Duration
}

type recordAccessChecker interface {
	CanAccess(ctx context.Context, actor Actor, detail *models.RecordWithDetails, write bool) (bool, error)
}

type lockRecordReader interface {
	FindDetailByID(ctx context.Context, id int64) (*models.RecordWithDetails, error)
}

type lockUserReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
}

// LockService wraps the Redis lock arbiter with access checks and owner
// name resolution.
type LockService struct {
	locks   lockManager
	records lockRecordReader
	access  recordAccessChecker
	users   lockUserReader
	logger  *zap.Logger
}

// NewLockService constructs a LockService instance.
func NewLockService(locks lockManager, records lockRecordReader, access recordAccessChecker, users lockUserReader, logger *zap.Logger) *LockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockService{locks: locks, records: records, access: access, users: users, logger: logger}
}

// LockResult reports the outcome of a lock operation.
type LockResult struct {
	RecordID  int64         `json:"record_id"`
	Owner     string        `json:"owner"`
	ExpiresIn time.Duration `json:"-"`
	TTLSecs   int           `json:"ttl_seconds"`
}

func (s *LockService) authorize(ctx context.Context, recordID int64, actor Actor) (*models.RecordWithDetails, error) {
	detail, err := s.records.FindDetailByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	// Taking a lock is the first step of editing, so write access is the bar.
	ok, err := s.access.CanAccess(ctx, actor, detail, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no write access to this record")
	}
	return detail, nil
}

// Acquire takes the edit lock for the actor. Contention responds with 423
// naming the current holder.
func (s *LockService) Acquire(ctx context.Context, recordID int64, actor Actor) (*LockResult, error) {
	if _, err := s.authorize(ctx, recordID, actor); err != nil {
		return nil, err
	}

	acquired, holder, err := s.locks.Acquire(ctx, recordID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("record is locked by %s", s.ownerName(ctx, holder)))
	}

	ttl := s.locks.TTL()
	return &LockResult{RecordID: recordID, Owner: actor.UserID, ExpiresIn: ttl, TTLSecs: int(ttl.Seconds())}, nil
}

// Release drops the actor's lock. Releasing a free lock succeeds so client
// teardown stays idempotent; releasing a foreign lock is rejected.
func (s *LockService) Release(ctx context.Context, recordID int64, actor Actor) error {
	released, err := s.locks.Release(ctx, recordID, actor.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release lock")
	}
	if !released {
		return appErrors.Clone(appErrors.ErrLockNotOwned, "you don't own this lock")
	}
	return nil
}

// Extend renews the actor's lock TTL.
func (s *LockService) Extend(ctx context.Context, recordID int64, actor Actor) (*LockResult, error) {
	extended, err := s.locks.Extend(ctx, recordID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extend lock")
	}
	if !extended {
		return nil, appErrors.Clone(appErrors.ErrLockNotOwned, "you don't own this lock")
	}
	ttl := s.locks.TTL()
	return &LockResult{RecordID: recordID, Owner: actor.UserID, ExpiresIn: ttl, TTLSecs: int(ttl.Seconds())}, nil
}

// Status reports the current holder, with display name when resolvable.
func (s *LockService) Status(ctx context.Context, recordID int64) (*models.LockStatus, error) {
	owner, err := s.locks.GetOwner(ctx, recordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read lock")
	}
	status := &models.LockStatus{RecordID: recordID}
	if owner != nil {
		status.Locked = true
		status.Owner = owner
		name := s.ownerName(ctx, *owner)
		status.OwnerName = &name
	}
	return status, nil
}

func (s *LockService) ownerName(ctx context.Context, ownerID string) string {
	if ownerID == "" {
		return "another user"
	}
	user, err := s.users.FindByUserID(ctx, ownerID)
	if err != nil {
		return ownerID
	}
	return user.FullName
}
