package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// khataService serves shop ledgers and records manual adjustments.
type khataService struct {
	BaseService
	khataRepo portsrepo.KhataReader
	shopRepo  portsrepo.ShopReader
	projector BalanceProjector
	appender  *ledgerAppender
	locker    portsrepo.ShopLocker
	ceiling   *decimal.Decimal
}

// KhataServiceOption is a functional option for configuring the khata service
type KhataServiceOption func(*khataService)

// WithKhataBalanceProjector sets the projector used for balances.
func WithKhataBalanceProjector(p BalanceProjector) KhataServiceOption {
	return func(s *khataService) { s.projector = p }
}

// WithShopLocker sets the locker guarding adjustments.
func WithShopLocker(l portsrepo.ShopLocker) KhataServiceOption {
	return func(s *khataService) { s.locker = l }
}

// WithAdjustmentCeiling bounds current balance plus a manual adjustment. nil disables it.
func WithAdjustmentCeiling(ceiling *decimal.Decimal) KhataServiceOption {
	return func(s *khataService) { s.ceiling = ceiling }
}

// NewKhataService creates a new khata service. Without a locker adjustments are
// not serialised per shop.
func NewKhataService(repos portsrepo.RepositoryProvider, m *metrics.Metrics, opts ...KhataServiceOption) portssvc.KhataSvcFacade {
	s := &khataService{
		khataRepo: repos.KhataRepo,
		shopRepo:  repos.ShopRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.projector == nil {
		s.projector = NewLedgerBalanceProjector(repos.KhataRepo)
	}
	s.appender = newLedgerAppender(repos.KhataRepo, s.projector, m)
	return s
}

var _ portssvc.KhataSvcFacade = (*khataService)(nil)

// GetShopLedger returns the shop's entries oldest first with the projected balance.
func (s *khataService) GetShopLedger(ctx context.Context, caller domain.Caller, shopID string) (*domain.ShopLedger, error) {
	if err := s.AuthorizeCaller(ctx, caller, "GetShopLedger"); err != nil {
		return nil, err
	}
	shop, err := s.findShop(ctx, caller, shopID)
	if err != nil {
		return nil, err
	}

	entries, err := s.khataRepo.ListEntriesByShop(ctx, caller.UserID, shopID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list khata entries", slog.String("shop_id", shopID))
		return nil, apperrors.NewPersistenceError("list khata entries", err)
	}
	for i := range entries {
		entries[i].ShopName = shop.Name
	}

	balance, err := s.projector.Balance(ctx, caller, shopID)
	if err != nil {
		s.LogError(ctx, err, "Failed to project shop balance", slog.String("shop_id", shopID))
		return nil, err
	}

	return &domain.ShopLedger{
		Shop:         *shop,
		Entries:      entries,
		TotalBalance: balance,
	}, nil
}

// ListShopBalances returns the balance of every shop that has khata entries.
func (s *khataService) ListShopBalances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error) {
	if err := s.AuthorizeCaller(ctx, caller, "ListShopBalances"); err != nil {
		return nil, err
	}
	return s.projector.Balances(ctx, caller)
}

// GetShopBalance returns the projected balance of one shop.
func (s *khataService) GetShopBalance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error) {
	if err := s.AuthorizeCaller(ctx, caller, "GetShopBalance"); err != nil {
		return decimal.Zero, err
	}
	if _, err := s.findShop(ctx, caller, shopID); err != nil {
		return decimal.Zero, err
	}
	return s.projector.Balance(ctx, caller, shopID)
}

// AdjustBalance appends a manual entry. With a ceiling configured the entry is
// refused when current balance plus amount would exceed it; the read and the
// append run under the shop lock.
func (s *khataService) AdjustBalance(ctx context.Context, caller domain.Caller, req dto.AdjustBalanceRequest) (*domain.KhataEntry, error) {
	if err := s.AuthorizeCaller(ctx, caller, "AdjustBalance"); err != nil {
		return nil, err
	}
	shopID := req.ShopID.String()
	if shopID == "" {
		return nil, fmt.Errorf("%w: shop id is required", apperrors.ErrValidation)
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", apperrors.ErrValidation)
	}
	if _, err := s.findShop(ctx, caller, shopID); err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, caller.UserID, shopID)
		if err != nil {
			s.LogError(ctx, err, "Failed to lock shop for adjustment", slog.String("shop_id", shopID))
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.LogError(ctx, err, "Failed to release shop lock", slog.String("shop_id", shopID))
			}
		}()
	}

	if s.ceiling != nil {
		current, err := s.projector.Balance(ctx, caller, shopID)
		if err != nil {
			s.LogError(ctx, err, "Failed to read balance for adjustment", slog.String("shop_id", shopID))
			return nil, err
		}
		if current.Add(req.Amount).GreaterThan(*s.ceiling) {
			s.GetLogger(ctx).Info("Adjustment refused by ceiling",
				slog.String("shop_id", shopID),
				slog.String("current_balance", current.String()),
				slog.String("amount", req.Amount.String()),
				slog.String("ceiling", s.ceiling.String()))
			msg := fmt.Sprintf("Invalid transaction: Current balance (%s) + Amount (%s) exceeds limit", current.String(), req.Amount.String())
			return nil, apperrors.NewAppError(http.StatusBadRequest, msg, apperrors.ErrValidation)
		}
	}

	entry, err := s.appender.AppendManual(ctx, caller, shopID, req.Amount)
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Manual khata adjustment recorded",
		slog.String("shop_id", shopID),
		slog.String("entry_id", entry.EntryID),
		slog.String("amount", req.Amount.String()))
	return entry, nil
}

func (s *khataService) findShop(ctx context.Context, caller domain.Caller, shopID string) (*domain.Shop, error) {
	shop, err := s.shopRepo.FindShopByID(ctx, caller.UserID, shopID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: shop %s", apperrors.ErrNotFound, shopID)
		}
		s.LogError(ctx, err, "Failed to read shop", slog.String("shop_id", shopID))
		return nil, apperrors.NewPersistenceError("read shop", err)
	}
	return shop, nil
}
