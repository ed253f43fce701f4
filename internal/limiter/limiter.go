// Package limiter throttles password guessing per account name and client address.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may be attempted now and, if not, how long to wait.
	Allow(ctx context.Context, name string, addrHash []byte) (bool, time.Duration, error)
	// Success clears the failure history after a successful login.
	Success(ctx context.Context, name string, addrHash []byte) error
	// Failure records a failed attempt and reports whether it triggered a lockout.
	Failure(ctx context.Context, name string, addrHash []byte) (bool, time.Duration, error)
}

// Config bounds failed attempts: MaxFails failures within Window block the
// pair for BlockFor.
type Config struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// HashAddr returns a stable digest of a client address so raw addresses are never stored.
func HashAddr(addr string) []byte {
	h := sha256.Sum256([]byte(addr))
	return h[:]
}
