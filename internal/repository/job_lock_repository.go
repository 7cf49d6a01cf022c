package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const jobLockPrefix = "academic-core:job-lock:"

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// JobLockRepository provides cluster-wide mutual exclusion for background jobs on Redis.
// Without a client every lock is granted, which suits single-instance deployments.
type JobLockRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewJobLockRepository constructs a lock repository.
func NewJobLockRepository(client *redis.Client, logger *zap.Logger) *JobLockRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobLockRepository{client: client, logger: logger}
}

// Acquire tries to take the named lock for ttl. The returned token releases it.
func (r *JobLockRepository) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if r.client == nil {
		return token, true, nil
	}

	ok, err := r.client.SetNX(ctx, jobLockPrefix+name, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx %s: %w", name, err)
	}
	if !ok {
		r.logger.Debug("job lock held elsewhere", zap.String("lock", name))
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if token still owns it.
func (r *JobLockRepository) Release(ctx context.Context, name, token string) error {
	if r.client == nil {
		return nil
	}
	if err := releaseLockScript.Run(ctx, r.client, []string{jobLockPrefix + name}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *JobLockRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
