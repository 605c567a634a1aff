package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockRepository arbitrates advisory record locks in Redis. The key holds
// the owner's user id and expires after the configured TTL, so a crashed
// editor never wedges a record for good.
type LockRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLockRepository constructs a lock repository.
func NewLockRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LockRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LockRepository{client: client, ttl: ttl, logger: logger}
}

func lockKey(recordID int64) string {
	return fmt.Sprintf("record_lock:%d", recordID)
}

// TTL reports the configured lock lifetime.
func (r *LockRepository) TTL() time.Duration {
	return r.ttl
}

// Acquire attempts to take the lock for owner. When someone else holds it,
// the current owner's user id comes back with acquired=false. Re-acquiring
// one's own lock refreshes the TTL.
func (r *LockRepository) Acquire(ctx context.Context, recordID int64, owner string) (acquired bool, currentOwner string, err error) {
	key := lockKey(recordID)
	ok, err := r.client.SetNX(ctx, key, owner, r.ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if ok {
		return true, owner, nil
	}

	holder, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between SetNX and Get; retry once.
		ok, err = r.client.SetNX(ctx, key, owner, r.ttl).Result()
		if err != nil {
			return false, "", fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return true, owner, nil
		}
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read lock %s: %w", key, err)
	}
	if holder == owner {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return false, holder, fmt.Errorf("refresh lock %s: %w", key, err)
		}
		return true, owner, nil
	}
	return false, holder, nil
}

// Release drops the lock when owner holds it. Releasing a free lock is a
// no-op; releasing someone else's lock reports held=false.
func (r *LockRepository) Release(ctx context.Context, recordID int64, owner string) (released bool, err error) {
	key := lockKey(recordID)
	holder, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read lock %s: %w", key, err)
	}
	if holder != owner {
		return false, nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("release lock %s: %w", key, err)
	}
	return true, nil
}

// Extend renews the TTL when owner holds the lock.
func (r *LockRepository) Extend(ctx context.Context, recordID int64, owner string) (extended bool, err error) {
	key := lockKey(recordID)
	holder, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read lock %s: %w", key, err)
	}
	if holder != owner {
		return false, nil
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return false, fmt.Errorf("extend lock %s: %w", key, err)
	}
	return true, nil
}

// GetOwner returns the current holder's user id, or nil when unlocked.
func (r *LockRepository) GetOwner(ctx context.Context, recordID int64) (*string, error) {
	holder, err := r.client.Get(ctx, lockKey(recordID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lock %d: %w", recordID, err)
	}
	return &holder, nil
}

// GetOwners resolves lock holders for a batch of records in one round trip.
func (r *LockRepository) GetOwners(ctx context.Context, recordIDs []int64) (map[int64]string, error) {
	if len(recordIDs) == 0 {
		return map[int64]string{}, nil
	}
	keys := make([]string, len(recordIDs))
	for i, id := range recordIDs {
		keys[i] = lockKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read lock batch: %w", err)
	}
	owners := make(map[int64]string, len(recordIDs))
	for i, value := range values {
		holder, ok := value.(string)
		if !ok || holder == "" {
			continue
		}
		owners[recordIDs[i]] = holder
	}
	return owners, nil
}
