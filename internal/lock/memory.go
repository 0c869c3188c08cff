package lock

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
	goCache "github.com/patrickmn/go-cache"
)

// how often expired leases are swept; Add already treats them as free
const memoryCleanupInterval = time.Minute

// MemoryLocker is a Locker for a single process. Leases are go-cache items
// holding the owner's token, expiring with the lease TTL.
type MemoryLocker struct {
	leases *goCache.Cache
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: goCache.New(goCache.NoExpiration, memoryCleanupInterval),
	}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	token := types.GenerateUUID()
	// Add fails while an unexpired item holds key
	if err := l.leases.Add(key, token, ttl); err != nil {
		return nil, false, nil
	}
	return &memoryLease{leases: l.leases, key: key, token: token}, true, nil
}

type memoryLease struct {
	leases *goCache.Cache
	key    string
	token  string
}

func (m *memoryLease) held() bool {
	token, ok := m.leases.Get(m.key)
	return ok && token == m.token
}

func (m *memoryLease) Extend(_ context.Context, ttl time.Duration) (bool, error) {
	if !m.held() {
		return false, nil
	}
	// Replace fails if the lease expired since the check
	return m.leases.Replace(m.key, m.token, ttl) == nil, nil
}

func (m *memoryLease) Release(_ context.Context) error {
	if m.held() {
		m.leases.Delete(m.key)
	}
	return nil
}
