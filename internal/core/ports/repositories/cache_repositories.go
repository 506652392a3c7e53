package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CachedBalance is a projected balance tagged with the ledger version it was computed at.
type CachedBalance struct {
	Balance decimal.Decimal
	Version int64
}

// BalanceCache stores projected shop balances. It is never the source of truth:
// a cached value is only usable while its Version equals the current version.
type BalanceCache interface {
	// Version returns the current ledger version of the shop; zero when never bumped.
	Version(ctx context.Context, userID, shopID string) (int64, error)
	Get(ctx context.Context, userID, shopID string) (*CachedBalance, bool, error)
	Set(ctx context.Context, userID, shopID string, value CachedBalance, ttl time.Duration) error

	// Bump advances the version, invalidating any cached value.
	Bump(ctx context.Context, userID, shopID string) error
}

// ShopLocker serialises check-then-append sequences on one shop's ledger.
type ShopLocker interface {
	// Lock blocks until the shop is locked or ctx is done. The returned func releases it.
	Lock(ctx context.Context, userID, shopID string) (unlock func(context.Context) error, err error)
}
