package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/core/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/platform/cache"
	"github.com/SscSPs/khata_backend/internal/platform/config"
	"github.com/SscSPs/khata_backend/internal/platform/lock"
	"github.com/SscSPs/khata_backend/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockBalanceProjector records projector calls.
type MockBalanceProjector struct {
	mock.Mock
}

func (m *MockBalanceProjector) Balance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error) {
	args := m.Called(ctx, caller, shopID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceProjector) Balances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShopBalance), args.Error(1)
}

func (m *MockBalanceProjector) Invalidate(ctx context.Context, caller domain.Caller, shopID string) {
	m.Called(ctx, caller, shopID)
}

type KhataServiceTestSuite struct {
	suite.Suite
	store     *memory.Store
	container *portssvc.ServiceContainer
	caller    domain.Caller
	ctx       context.Context
}

func (s *KhataServiceTestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.store.SeedShop(domain.Shop{ShopID: testShopID, Name: "Ravi Stores", UserID: testUserID})
	s.store.SeedProduct(domain.Product{ProductID: riceID, Name: "Basmati Rice", CostPrice: dec("30"), InStock: 10, UserID: testUserID})

	ceiling := decimal.NewFromInt(1)
	cfg := &config.Config{
		KhataAdjustmentCeiling: &ceiling,
		BalanceCacheTTL:        time.Minute,
		CompensationTimeout:    time.Second,
	}
	s.container = services.NewServiceContainer(cfg, memory.NewRepositoryProvider(s.store), services.Infrastructure{
		BalanceCache: cache.NewMemoryBalanceCache(),
		ShopLocker:   lock.NewLocalShopLocker(),
	})
	s.caller = domain.NewCaller(testUserID)
	s.ctx = context.Background()
}

func TestKhataServiceTestSuite(t *testing.T) {
	suite.Run(t, new(KhataServiceTestSuite))
}

func (s *KhataServiceTestSuite) adjust(amount string) (*domain.KhataEntry, error) {
	return s.container.Khata.AdjustBalance(s.ctx, s.caller, dto.AdjustBalanceRequest{ShopID: testShopID, Amount: dec(amount)})
}

func (s *KhataServiceTestSuite) order(total, paid string) {
	_, err := s.container.Order.CreateOrder(s.ctx, s.caller, dto.CreateOrderRequest{
		ShopID:     testShopID,
		Products:   []dto.OrderProductRequest{{ID: riceID, Quantity: 1, Price: dec(total)}},
		Total:      dec(total),
		AmountPaid: dec(paid),
	})
	s.Require().NoError(err)
}

func (s *KhataServiceTestSuite) balance() decimal.Decimal {
	b, err := s.container.Khata.GetShopBalance(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)
	return b
}

func (s *KhataServiceTestSuite) TestAdjustBalance_PaymentReducesDebt() {
	s.order("100", "60")
	s.True(s.balance().Equal(dec("-40")))

	entry, err := s.adjust("25")
	s.Require().NoError(err)
	s.True(entry.IsManual())
	s.True(entry.Delta.Equal(dec("25")))

	s.True(s.balance().Equal(dec("-15")), "cached balance must follow the append")
}

func (s *KhataServiceTestSuite) TestAdjustBalance_Ceiling() {
	s.order("100", "60")

	_, err := s.adjust("42")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Contains(err.Error(), "exceeds limit")
	s.Equal(http.StatusBadRequest, apperrors.StatusCode(err))

	_, err = s.adjust("41") // -40 + 41 = 1, at the ceiling
	s.Require().NoError(err)
	s.True(s.balance().Equal(dec("1")))

	_, err = s.adjust("0.01")
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.adjust("-5")
	s.NoError(err, "debits are never refused")
}

func (s *KhataServiceTestSuite) TestAdjustBalance_Validation() {
	_, err := s.adjust("0")
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.container.Khata.AdjustBalance(s.ctx, s.caller, dto.AdjustBalanceRequest{ShopID: "missing", Amount: dec("-1")})
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.container.Khata.AdjustBalance(s.ctx, domain.NewCaller(""), dto.AdjustBalanceRequest{ShopID: testShopID, Amount: dec("-1")})
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	s.Empty(s.store.Entries())
}

func (s *KhataServiceTestSuite) TestAdjustBalance_ConcurrentAdjustmentsRespectCeiling() {
	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.container.Khata.AdjustBalance(context.Background(), s.caller, dto.AdjustBalanceRequest{ShopID: testShopID, Amount: dec("1")})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			s.ErrorIs(err, apperrors.ErrValidation)
		}
	}
	s.Equal(1, ok)
	s.True(s.balance().Equal(dec("1")))
}

func (s *KhataServiceTestSuite) TestAdjustBalance_AppendFailure() {
	s.store.FailNext(memory.OpAppendEntry, errors.New("disk full"))

	_, err := s.adjust("-10")

	s.ErrorIs(err, apperrors.ErrPersistence)
	s.True(s.balance().IsZero())
}

func (s *KhataServiceTestSuite) TestGetShopLedger() {
	s.order("100", "60")
	_, err := s.adjust("10")
	s.Require().NoError(err)

	ledger, err := s.container.Khata.GetShopLedger(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)

	s.Equal("Ravi Stores", ledger.Shop.Name)
	s.Require().Len(ledger.Entries, 2)
	s.NotNil(ledger.Entries[0].OrderID)
	s.Nil(ledger.Entries[1].OrderID)
	s.Equal("Ravi Stores", ledger.Entries[0].ShopName)
	s.True(ledger.TotalBalance.Equal(dec("-30")))

	_, err = s.container.Khata.GetShopLedger(s.ctx, domain.NewCaller("user-2"), testShopID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *KhataServiceTestSuite) TestOrderAppendInvalidatesCachedBalance() {
	s.order("100", "60")
	s.True(s.balance().Equal(dec("-40"))) // warms the cache

	s.store.SeedProduct(domain.Product{ProductID: "prod-x", Name: "X", InStock: 5, UserID: testUserID})
	_, err := s.container.Order.CreateOrder(s.ctx, s.caller, dto.CreateOrderRequest{
		ShopID:   testShopID,
		Products: []dto.OrderProductRequest{{ID: "prod-x", Quantity: 1, Price: dec("50")}},
		Total:    dec("50"),
	})
	s.Require().NoError(err)
	s.True(s.balance().Equal(dec("-90")))

	s.Len(s.store.Entries(), 2)
}

func (s *KhataServiceTestSuite) TestGetShopLedger_TotalComesFromProjector() {
	s.order("100", "60")

	projector := new(MockBalanceProjector)
	projector.On("Balance", mock.Anything, s.caller, testShopID).Return(dec("-40"), nil).Once()
	khataSvc := services.NewKhataService(memory.NewRepositoryProvider(s.store), nil, services.WithKhataBalanceProjector(projector))

	ledger, err := khataSvc.GetShopLedger(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)
	s.Len(ledger.Entries, 1)
	s.True(ledger.TotalBalance.Equal(dec("-40")))
	projector.AssertExpectations(s.T())

	projector.On("Balance", mock.Anything, s.caller, testShopID).Return(decimal.Zero, apperrors.ErrPersistence).Once()
	_, err = khataSvc.GetShopLedger(s.ctx, s.caller, testShopID)
	s.ErrorIs(err, apperrors.ErrPersistence)
}

func (s *KhataServiceTestSuite) TestGetShopLedger_ServesCachedTotalAndSeesNewEntries() {
	s.order("100", "60")
	s.True(s.balance().Equal(dec("-40"))) // warms the cache

	_, err := s.adjust("5")
	s.Require().NoError(err)

	ledger, err := s.container.Khata.GetShopLedger(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)
	s.True(ledger.TotalBalance.Equal(dec("-35")))
	s.True(ledger.TotalBalance.Equal(domain.SumDeltas(ledger.Entries)))
}
