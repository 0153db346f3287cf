package redis

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "tx-gateway/errors"

	// External Packages
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker hands out RedLock mutexes so that only one gateway instance works on
// a transaction at a time.
type Locker struct {
	rs         *redsync.Redsync
	logger     *zap.Logger
	expiry     time.Duration
	tries      int
	retryDelay time.Duration
}

func NewLocker(client *redis.Client, logger *zap.Logger, expiry time.Duration, tries int) *Locker {
	if expiry <= 0 {
		expiry = 10 * time.Second
	}
	if tries < 1 {
		tries = 3
	}
	return &Locker{
		rs:         redsync.New(goredis.NewPool(client)),
		logger:     logger,
		expiry:     expiry,
		tries:      tries,
		retryDelay: 100 * time.Millisecond,
	}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		"lock:"+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return errors.E(errors.Conflict, "transaction is being processed by another request", err)
	}
	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
