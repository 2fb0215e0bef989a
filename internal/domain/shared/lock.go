package shared

import (
	"context"
	"time"
)

// KeyedLocker provides mutual exclusion per key with a lease TTL.
// A lock that is never released expires after its TTL so a crashed holder cannot block forever.
type KeyedLocker interface {
	// TryLock attempts to take the lock without waiting.
	// It returns the holder token and true if the lock was acquired, false if another holder owns it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Unlock releases the lock if token still owns it; releasing an expired or foreign lock is a no-op
	Unlock(ctx context.Context, key, token string) error

	// Close releases resources held by the locker
	Close() error
}

// LockConfig holds configuration for keyed locks
type LockConfig struct {
	// TTL bounds how long a lock survives a holder that never unlocks
	// Default: 10 minutes
	TTL time.Duration
}

// DefaultLockConfig returns the default lock configuration
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL: 10 * time.Minute,
	}
}
