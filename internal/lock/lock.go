package lock

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/logger"
)

// Lease is a held lock. Release is safe to call more than once and never
// releases a lock that has since expired and been taken by someone else.
type Lease interface {
	// Extend resets the lease to expire ttl from now. held is false once the lease
	// has expired or been released, and the lock is then no longer ours.
	Extend(ctx context.Context, ttl time.Duration) (held bool, err error)

	Release(ctx context.Context) error
}

// Locker hands out exclusive, expiring leases on keys
type Locker interface {
	// TryLock takes key for ttl without waiting. acquired is false when the key is held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (lease Lease, acquired bool, err error)
}

// NewLocker returns the redis backed locker when redis is enabled so that several
// replicas share one lock, and a process local one otherwise
func NewLocker(cfg *config.Configuration, log *logger.Logger) (Locker, error) {
	if !cfg.Redis.Enabled {
		log.Infow("using in-process run lock")
		return NewMemoryLocker(), nil
	}

	client, err := NewRedisClient(context.Background(), cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	log.Infow("using redis run lock")
	return NewRedisLocker(client), nil
}
