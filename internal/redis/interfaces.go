package redis

import (
	"context"
	"time"

	"github.com/jypsi/cabs/internal/domain"
)

// RateCache defines the interface for rate caching operations.
type RateCache interface {
	GetRate(ctx context.Context, code, category string) (*domain.Rate, error)
	SetRate(ctx context.Context, rate *domain.Rate) error
	InvalidateRate(ctx context.Context, code, category string) error
}

// BookingLocker defines the interface for per-booking reconcile locking.
type BookingLocker interface {
	AcquireBookingLock(ctx context.Context, pnr string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, pnr string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RateCache     = (*CacheStore)(nil)
	_ BookingLocker = (*LockStore)(nil)
)
