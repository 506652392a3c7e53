package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/core/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/middleware"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/SscSPs/khata_backend/internal/repositories/database/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testUserID = "user-1"
	testShopID = "shop-1"
	riceID     = "prod-rice"
	soapID     = "prod-soap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type OrderServiceTestSuite struct {
	suite.Suite
	store    *memory.Store
	orderSvc portssvc.OrderSvcFacade
	khataSvc portssvc.KhataSvcFacade
	caller   domain.Caller
	ctx      context.Context
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.store.SeedShop(domain.Shop{ShopID: testShopID, Name: "Ravi Stores", UserID: testUserID})
	s.store.SeedShop(domain.Shop{ShopID: "shop-other", Name: "Other tenant", UserID: "user-2"})
	s.store.SeedProduct(domain.Product{ProductID: riceID, Name: "Basmati Rice", CostPrice: dec("30"), SalePrice: dec("40"), InStock: 10, UserID: testUserID})
	s.store.SeedProduct(domain.Product{ProductID: soapID, Name: "Soap", CostPrice: dec("5"), SalePrice: dec("10"), InStock: 3, UserID: testUserID})

	repos := memory.NewRepositoryProvider(s.store)
	m := metrics.New(prometheus.NewRegistry())
	s.orderSvc = services.NewOrderService(repos, services.WithOrderMetrics(m))
	s.khataSvc = services.NewKhataService(repos, m)
	s.caller = domain.NewCaller(testUserID)
	s.ctx = context.Background()
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

// cart of 2 rice at 40 and 2 soap at 10: total 100, cost 70.
func (s *OrderServiceTestSuite) cart(paid string) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		ShopID: testShopID,
		Products: []dto.OrderProductRequest{
			{ID: riceID, Quantity: 2, Price: dec("40")},
			{ID: soapID, Quantity: 2, Price: dec("10")},
		},
		Total:      dec("100"),
		AmountPaid: dec(paid),
		BuyTotal:   dec("70"),
	}
}

func (s *OrderServiceTestSuite) stock(productID string) int {
	p, ok := s.store.Product(productID)
	s.Require().True(ok)
	return p.InStock
}

func (s *OrderServiceTestSuite) balance() decimal.Decimal {
	b, err := s.khataSvc.GetShopBalance(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)
	return b
}

// assertNothingPersisted checks that a failed attempt left no trace.
func (s *OrderServiceTestSuite) assertNothingPersisted() {
	s.Equal(0, s.store.OrderCount())
	s.Equal(0, s.store.ItemCount())
	s.Empty(s.store.Entries())
	s.Equal(10, s.stock(riceID))
	s.Equal(3, s.stock(soapID))
}

func (s *OrderServiceTestSuite) TestCreateOrder_PartialPaymentRecordsDebt() {
	order, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))
	s.Require().NoError(err)

	s.NotEmpty(order.OrderID)
	s.Equal(testUserID, order.UserID)
	s.Len(order.Items, 2)
	s.True(order.TotalAmount.Equal(dec("100")))

	entries := s.store.Entries()
	s.Require().Len(entries, 1)
	s.True(entries[0].Delta.Equal(dec("-40")), "delta was %s", entries[0].Delta)
	s.Require().NotNil(entries[0].OrderID)
	s.Equal(order.OrderID, *entries[0].OrderID)

	s.True(s.balance().Equal(dec("-40")))
	s.Equal(8, s.stock(riceID))
	s.Equal(1, s.stock(soapID))

	fetched, err := s.orderSvc.GetOrder(s.ctx, s.caller, order.OrderID)
	s.Require().NoError(err)
	s.Len(fetched.Items, 2)
}

func (s *OrderServiceTestSuite) TestCreateOrder_PaidInFullRecordsZeroDelta() {
	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("100"))
	s.Require().NoError(err)

	entries := s.store.Entries()
	s.Require().Len(entries, 1)
	s.True(entries[0].Delta.IsZero())
}

func (s *OrderServiceTestSuite) TestCreateOrder_OverpaymentRejectedBeforeAnyWrite() {
	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("100.01"))

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Contains(err.Error(), domain.ErrMsgOverpayment)
	s.Equal(http.StatusBadRequest, apperrors.StatusCode(err))
	s.Equal(0, s.store.Calls(memory.OpReserveStock))
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_InsufficientStockReleasesEarlierLines() {
	req := s.cart("0")
	req.Products[1].Quantity = 5 // soap has 3

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, req)

	var stockErr *apperrors.InsufficientStockError
	s.Require().True(errors.As(err, &stockErr), "got %v", err)
	s.Equal("Soap", stockErr.ProductName)
	s.Equal(5, stockErr.Requested)
	s.Equal(3, stockErr.Available)
	s.Equal("Insufficient stock for product Soap", err.Error())
	s.Equal(http.StatusBadRequest, apperrors.StatusCode(err))
	s.Equal(0, s.store.Calls(memory.OpSaveOrder))
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_RepeatedProductLinesAreSummed() {
	req := dto.CreateOrderRequest{
		ShopID: testShopID,
		Products: []dto.OrderProductRequest{
			{ID: soapID, Quantity: 2, Price: dec("10")},
			{ID: soapID, Quantity: 2, Price: dec("10")},
		},
		Total:      dec("40"),
		AmountPaid: dec("40"),
		BuyTotal:   dec("20"),
	}

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, req)

	s.ErrorIs(err, apperrors.ErrInsufficientStock)
	s.Equal(3, s.stock(soapID))
}

func (s *OrderServiceTestSuite) TestCreateOrder_UnknownShopAndProduct() {
	req := s.cart("0")
	req.ShopID = "missing"
	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, req)
	s.ErrorIs(err, apperrors.ErrNotFound)

	req = s.cart("0")
	req.ShopID = "shop-other" // belongs to another tenant
	_, err = s.orderSvc.CreateOrder(s.ctx, s.caller, req)
	s.ErrorIs(err, apperrors.ErrNotFound)

	req = s.cart("0")
	req.Products[1].ID = "prod-missing"
	_, err = s.orderSvc.CreateOrder(s.ctx, s.caller, req)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_RequiresCaller() {
	_, err := s.orderSvc.CreateOrder(s.ctx, domain.NewCaller(""), s.cart("0"))
	s.ErrorIs(err, apperrors.ErrUnauthorized)
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_HeaderFailure() {
	s.store.FailNext(memory.OpSaveOrder, errors.New("connection refused"))

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))

	s.ErrorIs(err, apperrors.ErrPersistence)
	s.NotErrorIs(err, apperrors.ErrCompensation)
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_ItemsFailureRemovesHeader() {
	s.store.FailNext(memory.OpSaveOrderItems, errors.New("connection reset"))

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))

	s.ErrorIs(err, apperrors.ErrPersistence)
	s.Equal(1, s.store.Calls(memory.OpDeleteOrder))
	s.Equal(0, s.store.Calls(memory.OpDeleteOrderItems), "items were never written")
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_LedgerFailureUndoesEverythingInReverse() {
	var mu sync.Mutex
	var undone []string
	track := func(op memory.Op) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			undone = append(undone, string(op))
		}
	}
	s.store.Before(memory.OpDeleteOrderItems, track(memory.OpDeleteOrderItems))
	s.store.Before(memory.OpDeleteOrder, track(memory.OpDeleteOrder))
	s.store.Before(memory.OpReleaseStock, track(memory.OpReleaseStock))
	s.store.FailNext(memory.OpAppendEntry, errors.New("khata insert failed"))

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))

	s.ErrorIs(err, apperrors.ErrPersistence)
	s.Equal(http.StatusInternalServerError, apperrors.StatusCode(err))
	s.Equal([]string{
		string(memory.OpDeleteOrderItems),
		string(memory.OpDeleteOrder),
		string(memory.OpReleaseStock), // soap
		string(memory.OpReleaseStock), // rice
	}, undone)
	s.assertNothingPersisted()
	s.True(s.balance().IsZero())
}

func (s *OrderServiceTestSuite) TestCreateOrder_CompensationFailureIsReportedAndRecorded() {
	s.store.FailNext(memory.OpAppendEntry, errors.New("khata insert failed"))
	s.store.FailNext(memory.OpDeleteOrder, errors.New("database unavailable"))

	_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrPersistence, "the original cause is kept")
	s.ErrorIs(err, apperrors.ErrCompensation)
	var compErr *apperrors.CompensationError
	s.Require().True(errors.As(err, &compErr))
	s.Equal("order_header", compErr.Step)

	// the other steps were still undone
	s.Equal(10, s.stock(riceID))
	s.Equal(3, s.stock(soapID))
	s.Equal(0, s.store.ItemCount())
	s.Empty(s.store.Entries())
	// the header is left behind and flagged
	s.Equal(1, s.store.OrderCount())
	failures, ferr := s.store.ListCompensationFailures(s.ctx, testUserID)
	s.Require().NoError(ferr)
	s.Require().Len(failures, 1)
	s.Equal(compErr.RecordID, failures[0].RecordID)
	s.Contains(failures[0].Cause, "khata insert failed")
}

func (s *OrderServiceTestSuite) TestCreateOrder_CompensationSurvivesCancelledRequest() {
	ctx, cancel := context.WithCancel(context.Background())
	s.store.Before(memory.OpAppendEntry, cancel)
	s.store.FailNext(memory.OpAppendEntry, context.Canceled)

	_, err := s.orderSvc.CreateOrder(ctx, s.caller, s.cart("60"))

	s.Error(err)
	s.NotErrorIs(err, apperrors.ErrCompensation)
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestCreateOrder_IdenticalSubmissionsCreateTwoOrders() {
	req := s.cart("60")

	first, err := s.orderSvc.CreateOrder(s.ctx, s.caller, req)
	s.Require().NoError(err)
	second, err := s.orderSvc.CreateOrder(s.ctx, s.caller, req)
	s.Require().NoError(err)

	s.NotEqual(first.OrderID, second.OrderID)
	s.Equal(2, s.store.OrderCount())
	s.True(s.balance().Equal(dec("-80")))
	count, err := s.orderSvc.CountOrders(s.ctx, s.caller)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *OrderServiceTestSuite) TestCreateOrder_ConcurrentAttemptsNeverOversell() {
	s.store.SeedProduct(domain.Product{ProductID: "prod-last", Name: "Last Unit", InStock: 1, UserID: testUserID})
	req := dto.CreateOrderRequest{
		ShopID:     testShopID,
		Products:   []dto.OrderProductRequest{{ID: "prod-last", Quantity: 1, Price: dec("10")}},
		Total:      dec("10"),
		AmountPaid: dec("10"),
	}

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.orderSvc.CreateOrder(context.Background(), s.caller, req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, refused := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrInsufficientStock):
			refused++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(attempts-1, refused)
	s.Equal(0, s.stock("prod-last"))
	s.Equal(1, s.store.OrderCount())
}

func (s *OrderServiceTestSuite) riceOrder(paid string) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		ShopID:     testShopID,
		Products:   []dto.OrderProductRequest{{ID: riceID, Quantity: 1, Price: dec("40")}},
		Total:      dec("40"),
		AmountPaid: dec(paid),
		BuyTotal:   dec("30"),
	}
}

func (s *OrderServiceTestSuite) TestBalanceAlwaysEqualsSumOfEntries() {
	for _, paid := range []string{"10", "40", "0", "25.5"} {
		_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.riceOrder(paid))
		s.Require().NoError(err)
	}
	_, err := s.khataSvc.AdjustBalance(s.ctx, s.caller, dto.AdjustBalanceRequest{ShopID: testShopID, Amount: dec("15")})
	s.Require().NoError(err)
	s.store.FailNext(memory.OpAppendEntry, errors.New("boom"))
	_, err = s.orderSvc.CreateOrder(s.ctx, s.caller, s.riceOrder("1"))
	s.Require().Error(err)

	// (10-40) + 0 + (0-40) + (25.5-40) + 15
	want := dec("-69.5")
	ledger, err := s.khataSvc.GetShopLedger(s.ctx, s.caller, testShopID)
	s.Require().NoError(err)
	s.Len(ledger.Entries, 5)
	s.True(ledger.TotalBalance.Equal(want), "balance was %s", ledger.TotalBalance)
	s.True(ledger.TotalBalance.Equal(domain.SumDeltas(s.store.Entries())))
	s.True(s.balance().Equal(want))

	balances, err := s.khataSvc.ListShopBalances(s.ctx, s.caller)
	s.Require().NoError(err)
	s.Require().Len(balances, 1)
	s.True(balances[0].TotalBalance.Equal(want))
	s.Equal(5, balances[0].EntryCount)
	s.Equal(6, s.stock(riceID))
}

func (s *OrderServiceTestSuite) TestListOrders_Paginates() {
	for i := 0; i < 5; i++ {
		_, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.riceOrder(fmt.Sprint(i)))
		s.Require().NoError(err)
	}

	seen := map[string]bool{}
	var token *string
	pages := 0
	for {
		resp, err := s.orderSvc.ListOrders(s.ctx, s.caller, dto.ListOrdersParams{Limit: 2, NextToken: token})
		s.Require().NoError(err)
		pages++
		for _, o := range resp.Orders {
			s.False(seen[o.ID], "order %s returned twice", o.ID)
			seen[o.ID] = true
		}
		if resp.NextToken == nil {
			break
		}
		token = resp.NextToken
	}
	s.Equal(5, len(seen))
	s.Equal(3, pages)

	bad := "%%%"
	_, err := s.orderSvc.ListOrders(s.ctx, s.caller, dto.ListOrdersParams{NextToken: &bad})
	s.ErrorIs(err, apperrors.ErrValidation)

	other, err := s.orderSvc.ListOrders(s.ctx, domain.NewCaller("user-2"), dto.ListOrdersParams{})
	s.Require().NoError(err)
	s.Empty(other.Orders)
}

func (s *OrderServiceTestSuite) TestGetOrder_OtherTenantIsNotFound() {
	order, err := s.orderSvc.CreateOrder(s.ctx, s.caller, s.cart("60"))
	require.NoError(s.T(), err)

	_, err = s.orderSvc.GetOrder(s.ctx, domain.NewCaller("user-2"), order.OrderID)
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

// failedAttemptState runs CreateOrder with a captured logger and returns the
// state reported by the failure log line.
func (s *OrderServiceTestSuite) failedAttemptState(req dto.CreateOrderRequest) string {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := s.orderSvc.CreateOrder(middleware.WithLogger(s.ctx, logger), s.caller, req)
	s.Require().Error(err)

	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		var rec map[string]any
		if json.Unmarshal(line, &rec) == nil && rec["msg"] == "Order attempt failed" {
			state, _ := rec["state"].(string)
			return state
		}
	}
	s.Fail("no failure log line", buf.String())
	return ""
}

func (s *OrderServiceTestSuite) TestCreateOrder_AttemptStateReflectsUndoneReservations() {
	req := s.cart("0")
	req.Products[1].Quantity = 5 // rice is reserved, then soap falls short
	s.Equal(string(domain.AttemptCompensatedFailure), s.failedAttemptState(req))
	s.Equal(1, s.store.Calls(memory.OpReleaseStock))

	req = s.cart("0")
	req.Products[0].Quantity = 50 // nothing was reserved
	s.Equal(string(domain.AttemptValidationFailure), s.failedAttemptState(req))

	s.Equal(string(domain.AttemptValidationFailure), s.failedAttemptState(s.cart("101")))
	s.assertNothingPersisted()
}

func (s *OrderServiceTestSuite) TestValidateOrder_ChecksWithoutWriting() {
	s.NoError(s.orderSvc.ValidateOrder(s.ctx, s.caller, s.cart("60")))
	s.Equal(0, s.store.Calls(memory.OpReserveStock))

	req := s.cart("0")
	req.Products = append(req.Products, dto.OrderProductRequest{ID: soapID, Quantity: 2, Price: dec("10")})
	err := s.orderSvc.ValidateOrder(s.ctx, s.caller, req)
	var stockErr *apperrors.InsufficientStockError
	s.Require().True(errors.As(err, &stockErr), "got %v", err)
	s.Equal(4, stockErr.Requested, "repeated lines of one product are summed")
	s.Equal(3, stockErr.Available)

	err = s.orderSvc.ValidateOrder(s.ctx, s.caller, s.cart("101"))
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal(domain.ErrMsgOverpayment, apperrors.PublicMessage(err))

	otherShop := s.cart("0")
	otherShop.ShopID = "shop-other"
	s.ErrorIs(s.orderSvc.ValidateOrder(s.ctx, s.caller, otherShop), apperrors.ErrNotFound)

	s.ErrorIs(s.orderSvc.ValidateOrder(s.ctx, domain.Caller{}, s.cart("0")), apperrors.ErrUnauthorized)
	s.assertNothingPersisted()
}
