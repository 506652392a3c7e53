package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/SscSPs/khata_backend/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// orderService runs the order fulfillment workflow and serves order reads.
type orderService struct {
	BaseService
	orderRepo    portsrepo.OrderRepositoryFacade
	shopRepo     portsrepo.ShopReader
	stock        *stockValidator
	writer       *orderWriter
	ledger       *ledgerAppender
	compensation *compensationCoordinator
	metrics      *metrics.Metrics
}

// OrderServiceOption is a functional option for configuring the order service
type OrderServiceOption func(*orderServiceOptions)

type orderServiceOptions struct {
	projector           BalanceProjector
	metrics             *metrics.Metrics
	compensationTimeout time.Duration
}

// WithOrderBalanceProjector sets the projector invalidated by ledger appends.
func WithOrderBalanceProjector(p BalanceProjector) OrderServiceOption {
	return func(o *orderServiceOptions) { o.projector = p }
}

// WithOrderMetrics sets the metrics recorder.
func WithOrderMetrics(m *metrics.Metrics) OrderServiceOption {
	return func(o *orderServiceOptions) { o.metrics = m }
}

// WithCompensationTimeout bounds the time spent undoing a failed attempt.
func WithCompensationTimeout(d time.Duration) OrderServiceOption {
	return func(o *orderServiceOptions) { o.compensationTimeout = d }
}

// NewOrderService creates a new order service.
func NewOrderService(repos portsrepo.RepositoryProvider, opts ...OrderServiceOption) portssvc.OrderSvcFacade {
	o := &orderServiceOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.projector == nil {
		o.projector = NewLedgerBalanceProjector(repos.KhataRepo)
	}

	return &orderService{
		orderRepo:    repos.OrderRepo,
		shopRepo:     repos.ShopRepo,
		stock:        newStockValidator(repos.ProductRepo),
		writer:       newOrderWriter(repos.OrderRepo),
		ledger:       newLedgerAppender(repos.KhataRepo, o.projector, o.metrics),
		compensation: newCompensationCoordinator(repos.ReconciliationRepo, o.metrics, o.compensationTimeout),
		metrics:      o.metrics,
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

// CreateOrder validates the cart, reserves stock, writes the order with its items
// and appends the khata entry. Steps run in that order and each commits on its
// own; when one fails, every completed step is undone newest first before the
// error is returned. Two identical requests create two orders.
func (s *orderService) CreateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) (order *domain.Order, err error) {
	start := time.Now()
	attemptID := uuid.NewString()
	attempt := domain.NewOrderAttempt()
	logger := s.GetLogger(ctx).With(
		slog.String("attempt_id", attemptID),
		slog.String("shop_id", req.ShopID.String()),
	)

	defer func() {
		outcome := attemptOutcome(err)
		s.metrics.ObserveOrderAttempt(outcome, time.Since(start))
		if err != nil {
			logger.Info("Order attempt failed",
				slog.String("state", string(attempt.State)),
				slog.String("outcome", outcome),
				slog.String("error", err.Error()))
		}
	}()

	if err := s.AuthorizeCaller(ctx, caller, "CreateOrder"); err != nil {
		attempt.Fail(false)
		return nil, err
	}

	draft := newOrderDraft(req)
	if err := s.validateDraft(ctx, caller, draft); err != nil {
		attempt.Fail(false)
		return nil, err
	}
	if linesTotal := domain.LinesTotal(draft.Lines); !linesTotal.Equal(draft.Total) {
		logger.Warn("Order total differs from the sum of its lines; storing the submitted total",
			slog.String("total", draft.Total.String()),
			slog.String("lines_total", linesTotal.String()))
	}

	comp := s.compensation.begin(attemptID, caller)
	fail := func(cause error) (*domain.Order, error) {
		attempt.Fail(comp.len() > 0)
		return nil, comp.compensate(ctx, cause)
	}

	if _, err := s.stock.Reserve(ctx, caller, draft.Lines, comp); err != nil {
		return fail(err)
	}
	if err := advanceAttempt(logger, attempt); err != nil {
		return fail(err)
	}

	order, err = s.writer.Write(ctx, caller, draft, attempt, comp)
	if err != nil {
		return fail(err)
	}

	entry, err := s.ledger.AppendForOrder(ctx, caller, order, comp)
	if err != nil {
		return fail(err)
	}
	if err := advanceAttempt(logger, attempt); err != nil {
		return fail(err)
	}

	logger.Info("Order created",
		slog.String("order_id", order.OrderID),
		slog.String("khata_entry_id", entry.EntryID),
		slog.String("delta", entry.Delta.String()),
		slog.Int("items", len(order.Items)))
	return order, nil
}

// ValidateOrder runs the checks of CreateOrder without writing anything:
// cart shape, amounts, shop and stock. Stock is read, not reserved, so a
// passing cart can still fail when it is placed.
func (s *orderService) ValidateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) error {
	if err := s.AuthorizeCaller(ctx, caller, "ValidateOrder"); err != nil {
		return err
	}
	draft := newOrderDraft(req)
	if err := s.validateDraft(ctx, caller, draft); err != nil {
		return err
	}
	return s.stock.ValidateOnly(ctx, caller, draft.Lines)
}

// validateDraft runs every check that needs no write: shape, amounts and shop.
func (s *orderService) validateDraft(ctx context.Context, caller domain.Caller, draft orderDraft) error {
	if draft.ShopID == "" {
		return fmt.Errorf("%w: shop id is required", apperrors.ErrValidation)
	}
	if err := domain.ValidateLines(draft.Lines); err != nil {
		return err
	}
	if err := domain.ValidatePayment(draft.Total, draft.AmountPaid, draft.BuyTotal); err != nil {
		return err
	}
	if _, err := s.shopRepo.FindShopByID(ctx, caller.UserID, draft.ShopID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: shop %s", apperrors.ErrNotFound, draft.ShopID)
		}
		return apperrors.NewPersistenceError("read shop", err)
	}
	return nil
}

// advanceAttempt moves the attempt to its next state and logs the transition.
func advanceAttempt(logger *slog.Logger, attempt *domain.OrderAttempt) error {
	from := attempt.State
	if err := attempt.Advance(); err != nil {
		return err
	}
	logger.Debug("Order attempt advanced", slog.String("from", string(from)), slog.String("to", string(attempt.State)))
	return nil
}

func attemptOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, apperrors.ErrCompensation):
		return metrics.OutcomeCompensationError
	case errors.Is(err, apperrors.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnauthorized):
		return metrics.OutcomeValidationFailed
	default:
		return metrics.OutcomeCompensated
	}
}

// GetOrder returns an order of the caller with its items.
func (s *orderService) GetOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	if err := s.AuthorizeCaller(ctx, caller, "GetOrder"); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrderByID(ctx, caller.UserID, orderID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get order", slog.String("order_id", orderID))
		}
		return nil, err
	}
	items, err := s.orderRepo.FindOrderItems(ctx, order.OrderID)
	if err != nil {
		s.LogError(ctx, err, "Failed to get order items", slog.String("order_id", orderID))
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrders returns a page of the caller's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, caller domain.Caller, params dto.ListOrdersParams) (*dto.ListOrdersResponse, error) {
	if err := s.AuthorizeCaller(ctx, caller, "ListOrders"); err != nil {
		return nil, err
	}
	if params.NextToken != nil && *params.NextToken != "" {
		if _, _, err := pagination.DecodeToken(*params.NextToken); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	} else {
		params.NextToken = nil
	}
	limit := pagination.ClampLimit(params.Limit, defaultOrderPageSize, maxOrderPageSize)

	orders, nextToken, err := s.orderRepo.ListOrders(ctx, caller.UserID, params.ShopID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list orders")
		return nil, err
	}
	return &dto.ListOrdersResponse{
		Orders:    dto.ToOrderResponses(orders),
		NextToken: nextToken,
	}, nil
}

// CountOrders returns how many orders the caller has.
func (s *orderService) CountOrders(ctx context.Context, caller domain.Caller) (int64, error) {
	if err := s.AuthorizeCaller(ctx, caller, "CountOrders"); err != nil {
		return 0, err
	}
	count, err := s.orderRepo.CountOrders(ctx, caller.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to count orders")
		return 0, err
	}
	return count, nil
}
