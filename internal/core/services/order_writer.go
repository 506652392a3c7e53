package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderDraft struct {
	ShopID     string
	Lines      []domain.OrderLine
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	BuyTotal   decimal.Decimal
}

func newOrderDraft(req dto.CreateOrderRequest) orderDraft {
	return orderDraft{
		ShopID:     req.ShopID.String(),
		Lines:      req.ToOrderLines(),
		Total:      req.Total,
		AmountPaid: req.AmountPaid,
		BuyTotal:   req.BuyTotal,
	}
}

// orderWriter persists the order header and then its items.
type orderWriter struct {
	BaseService
	orderRepo portsrepo.OrderRepositoryFacade
	now       func() time.Time
}

func newOrderWriter(orderRepo portsrepo.OrderRepositoryFacade) *orderWriter {
	return &orderWriter{orderRepo: orderRepo, now: time.Now}
}

// Write saves the header, then every item in one batch. Each successful write
// registers its undo on comp; if the items fail the header is still recorded and
// is removed when the caller compensates.
func (w *orderWriter) Write(ctx context.Context, caller domain.Caller, draft orderDraft, attempt *domain.OrderAttempt, comp *compensationLog) (*domain.Order, error) {
	logger := w.GetLogger(ctx)

	order := domain.Order{
		OrderID:     uuid.NewString(),
		ShopID:      draft.ShopID,
		TotalAmount: draft.Total,
		AmountPaid:  draft.AmountPaid,
		BuyTotal:    draft.BuyTotal,
		CreatedAt:   w.now().UTC(),
		UserID:      caller.UserID,
	}

	if err := w.orderRepo.SaveOrder(ctx, order); err != nil {
		w.LogError(ctx, err, "Failed to save order header", slog.String("shop_id", order.ShopID))
		return nil, apperrors.NewPersistenceError("save order", err)
	}
	comp.record(stepOrderHeader, order.OrderID, func(ctx context.Context) error {
		return w.orderRepo.DeleteOrder(ctx, caller.UserID, order.OrderID)
	})
	if err := advanceAttempt(logger, attempt); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, len(draft.Lines))
	for i, line := range draft.Lines {
		items[i] = domain.OrderItem{
			OrderItemID: uuid.NewString(),
			OrderID:     order.OrderID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
	}

	if err := w.orderRepo.SaveOrderItems(ctx, items); err != nil {
		w.LogError(ctx, err, "Failed to save order items", slog.String("order_id", order.OrderID))
		return nil, apperrors.NewPersistenceError("save order items", err)
	}
	comp.record(stepOrderItems, order.OrderID, func(ctx context.Context) error {
		return w.orderRepo.DeleteOrderItems(ctx, order.OrderID)
	})
	if err := advanceAttempt(logger, attempt); err != nil {
		return nil, err
	}

	order.Items = items
	logger.Debug("Order written", slog.String("order_id", order.OrderID), slog.Int("items", len(items)))
	return &order, nil
}
