package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
)

type mockLockManager struct {
	owners map[int64]string
	ttl    time.Duration
}

func newMockLockManager() *mockLockManager {
	return &mockLockManager{owners: map[int64]string{}, ttl: 30 * time.Minute}
}

func (m *mockLockManager) Acquire(ctx context.Context, recordID int64, owner string) (bool, string, error) {
	if holder, ok := m.owners[recordID]; ok && holder != owner {
		return false, holder, nil
	}
	m.owners[recordID] = owner
	return true, owner, nil
}

func (m *mockLockManager) Release(ctx context.Context, recordID int64, owner string) (bool, error) {
	holder, ok := m.owners[recordID]
	if !ok {
		return true, nil
	}
	if holder != owner {
		return false, nil
	}
	delete(m.owners, recordID)
	return true, nil
}

func (m *mockLockManager) Extend(ctx context.Context, recordID int64, owner string) (bool, error) {
	holder, ok := m.owners[recordID]
	if !ok || holder != owner {
		return false, nil
	}
	return true, nil
}

func (m *mockLockManager) GetOwner(ctx context.Context, recordID int64) (*string, error) {
	if holder, ok := m.owners[recordID]; ok {
		return &holder, nil
	}
	return nil, nil
}

func (m *mockLockManager) TTL() time.Duration { return m.ttl }

type mockLockUsers struct {
	names map[string]string
}

func (m *mockLockUsers) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	if name, ok := m.names[userID]; ok {
		return &models.User{UserID: userID, FullName: name}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func testLockService(locks *mockLockManager) (*LockService, *mockRecordRepo) {
	repo := &mockRecordRepo{records: map[int64]*models.RecordWithDetails{1: sampleDetail()}}
	access := testRecordService(repo, &mockRecordLocks{}, nil)
	users := &mockLockUsers{names: map[string]string{"t001": "박선생", "t002": "이선생"}}
	return NewLockService(locks, repo, access, users, nil), repo
}

func TestAcquireThenContention(t *testing.T) {
	locks := newMockLockManager()
	svc, _ := testLockService(locks)

	result, err := svc.Acquire(context.Background(), 1, Actor{UserID: "t001", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "t001", result.Owner)
	assert.Equal(t, 1800, result.TTLSecs)

	_, err = svc.Acquire(context.Background(), 1, Actor{UserID: "t002", Role: models.RoleAdmin})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrLocked.Status, appErr.Status)
	assert.Contains(t, appErr.Message, "박선생")
}

func TestAcquireReentrant(t *testing.T) {
	locks := newMockLockManager()
	svc, _ := testLockService(locks)
	actor := Actor{UserID: "t001", Role: models.RoleAdmin}

	_, err := svc.Acquire(context.Background(), 1, actor)
	require.NoError(t, err)
	result, err := svc.Acquire(context.Background(), 1, actor)
	require.NoError(t, err)
	assert.Equal(t, "t001", result.Owner)
}

func TestAcquireRequiresWriteAccess(t *testing.T) {
	locks := newMockLockManager()
	svc, repo := testLockService(locks)
	repo.records[1].IsEditableByStudent = false

	_, err := svc.Acquire(context.Background(), 1, Actor{UserID: "s10203", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, locks.owners)
}

func TestAcquireUnknownRecord(t *testing.T) {
	locks := newMockLockManager()
	svc, _ := testLockService(locks)

	_, err := svc.Acquire(context.Background(), 99, Actor{UserID: "t001", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReleaseFreeLockIsIdempotent(t *testing.T) {
	locks := newMockLockManager()
	svc, _ := testLockService(locks)

	err := svc.Release(context.Background(), 1, Actor{UserID: "t001", Role: models.RoleAdmin})
	require.NoError(t, err)
}

func TestReleaseForeignLockRejected(t *testing.T) {
	locks := newMockLockManager()
	locks.owners[1] = "t002"
	svc, _ := testLockService(locks)

	err := svc.Release(context.Background(), 1, Actor{UserID: "t001", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLockNotOwned.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "t002", locks.owners[1])
}

func TestExtendOwnLock(t *testing.T) {
	locks := newMockLockManager()
	locks.owners[1] = "t001"
	svc, _ := testLockService(locks)

	result, err := svc.Extend(context.Background(), 1, Actor{UserID: "t001", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 1800, result.TTLSecs)

	_, err = svc.Extend(context.Background(), 1, Actor{UserID: "t002", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLockNotOwned.Code, appErrors.FromError(err).Code)
}

func TestStatusResolvesOwnerName(t *testing.T) {
	locks := newMockLockManager()
	locks.owners[1] = "t002"
	svc, _ := testLockService(locks)

	status, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	require.NotNil(t, status.OwnerName)
	assert.Equal(t, "이선생", *status.OwnerName)

	status, err = svc.Status(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Nil(t, status.Owner)
}
