package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// BalanceProjector derives shop balances from the khata. A balance is always the
// sum of the shop's entries; nothing stores it authoritatively.
type BalanceProjector interface {
	Balance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error)
	Balances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error)

	// Invalidate is called after every write to the shop's ledger.
	Invalidate(ctx context.Context, caller domain.Caller, shopID string)
}

// ledgerBalanceProjector folds the ledger on every read.
type ledgerBalanceProjector struct {
	khataRepo portsrepo.KhataReader
}

// NewLedgerBalanceProjector creates a projector without caching.
func NewLedgerBalanceProjector(khataRepo portsrepo.KhataReader) BalanceProjector {
	return &ledgerBalanceProjector{khataRepo: khataRepo}
}

func (p *ledgerBalanceProjector) Balance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error) {
	sum, err := p.khataRepo.SumByShop(ctx, caller.UserID, shopID)
	if err != nil {
		return decimal.Zero, apperrors.NewPersistenceError("sum khata for shop "+shopID, err)
	}
	return sum, nil
}

func (p *ledgerBalanceProjector) Balances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error) {
	balances, err := p.khataRepo.ListShopBalances(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list shop balances", err)
	}
	return balances, nil
}

func (p *ledgerBalanceProjector) Invalidate(context.Context, domain.Caller, string) {}

// cachedBalanceProjector serves single-shop balances from a BalanceCache.
// Cached values carry the ledger version they were folded at; a value whose
// version is behind the current one is ignored, so a fold racing with an
// append can never be served after the append.
type cachedBalanceProjector struct {
	BaseService
	inner   *ledgerBalanceProjector
	cache   portsrepo.BalanceCache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedBalanceProjector wraps the ledger fold with cache. Cache errors fall
// back to the fold.
func NewCachedBalanceProjector(khataRepo portsrepo.KhataReader, cache portsrepo.BalanceCache, ttl time.Duration, m *metrics.Metrics) BalanceProjector {
	return &cachedBalanceProjector{
		inner:   &ledgerBalanceProjector{khataRepo: khataRepo},
		cache:   cache,
		ttl:     ttl,
		metrics: m,
	}
}

func (p *cachedBalanceProjector) Balance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error) {
	logger := p.GetLogger(ctx)

	version, err := p.cache.Version(ctx, caller.UserID, shopID)
	if err != nil {
		p.metrics.BalanceCacheLookup("error")
		logger.Warn("Balance cache unavailable, folding ledger", slog.String("shop_id", shopID), slog.String("error", err.Error()))
		return p.inner.Balance(ctx, caller, shopID)
	}

	cached, ok, err := p.cache.Get(ctx, caller.UserID, shopID)
	if err != nil {
		p.metrics.BalanceCacheLookup("error")
		logger.Warn("Balance cache read failed", slog.String("shop_id", shopID), slog.String("error", err.Error()))
	} else if ok && cached.Version == version {
		p.metrics.BalanceCacheLookup("hit")
		return cached.Balance, nil
	}
	p.metrics.BalanceCacheLookup("miss")

	balance, err := p.inner.Balance(ctx, caller, shopID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := p.cache.Set(ctx, caller.UserID, shopID, portsrepo.CachedBalance{Balance: balance, Version: version}, p.ttl); err != nil {
		logger.Warn("Balance cache write failed", slog.String("shop_id", shopID), slog.String("error", err.Error()))
	}
	return balance, nil
}

// Balances always folds the ledger: the overview spans every shop.
func (p *cachedBalanceProjector) Balances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error) {
	return p.inner.Balances(ctx, caller)
}

func (p *cachedBalanceProjector) Invalidate(ctx context.Context, caller domain.Caller, shopID string) {
	if err := p.cache.Bump(ctx, caller.UserID, shopID); err != nil {
		p.LogError(ctx, err, "Failed to invalidate cached balance", slog.String("shop_id", shopID))
	}
}
