package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerAppender adds entries to a shop's khata. Every write invalidates the
// projected balance of the shop.
type ledgerAppender struct {
	BaseService
	khataRepo portsrepo.KhataRepositoryFacade
	projector BalanceProjector
	metrics   *metrics.Metrics
	now       func() time.Time
}

func newLedgerAppender(khataRepo portsrepo.KhataRepositoryFacade, projector BalanceProjector, m *metrics.Metrics) *ledgerAppender {
	return &ledgerAppender{khataRepo: khataRepo, projector: projector, metrics: m, now: time.Now}
}

// AppendForOrder records the order's delta, amount paid minus total.
func (a *ledgerAppender) AppendForOrder(ctx context.Context, caller domain.Caller, order *domain.Order, comp *compensationLog) (*domain.KhataEntry, error) {
	orderID := order.OrderID
	entry := domain.KhataEntry{
		EntryID:         uuid.NewString(),
		ShopID:          order.ShopID,
		Delta:           order.Delta(),
		OrderID:         &orderID,
		TransactionDate: a.now().UTC(),
		UserID:          caller.UserID,
	}
	if err := a.append(ctx, entry); err != nil {
		return nil, err
	}
	comp.record(stepLedgerEntry, entry.EntryID, func(ctx context.Context) error {
		return a.remove(ctx, caller, entry)
	})
	a.metrics.LedgerAppended("order")
	return &entry, nil
}

// AppendManual records an adjustment not tied to an order.
func (a *ledgerAppender) AppendManual(ctx context.Context, caller domain.Caller, shopID string, amount decimal.Decimal) (*domain.KhataEntry, error) {
	entry := domain.KhataEntry{
		EntryID:         uuid.NewString(),
		ShopID:          shopID,
		Delta:           amount,
		TransactionDate: a.now().UTC(),
		UserID:          caller.UserID,
	}
	if err := a.append(ctx, entry); err != nil {
		return nil, err
	}
	a.metrics.LedgerAppended("manual")
	return &entry, nil
}

func (a *ledgerAppender) append(ctx context.Context, entry domain.KhataEntry) error {
	if err := a.khataRepo.AppendEntry(ctx, entry); err != nil {
		a.LogError(ctx, err, "Failed to append khata entry", slog.String("shop_id", entry.ShopID))
		return apperrors.NewPersistenceError("append khata entry", err)
	}
	a.projector.Invalidate(ctx, domain.Caller{UserID: entry.UserID}, entry.ShopID)
	return nil
}

func (a *ledgerAppender) remove(ctx context.Context, caller domain.Caller, entry domain.KhataEntry) error {
	if err := a.khataRepo.DeleteEntry(ctx, caller.UserID, entry.EntryID); err != nil {
		return err
	}
	a.projector.Invalidate(ctx, caller, entry.ShopID)
	return nil
}
