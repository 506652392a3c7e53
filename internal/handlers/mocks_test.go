package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

// generateTestToken creates a signed JWT for the given user.
func generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "khata-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// serveJSON sends an authenticated request with an optional JSON body.
func serveJSON(router http.Handler, method, url, body, userID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+generateTestToken(userID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Mock OrderService ---
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ValidateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) error {
	args := m.Called(ctx, caller, req)
	return args.Error(0)
}

func (m *MockOrderService) GetOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, caller, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, caller domain.Caller, params dto.ListOrdersParams) (*dto.ListOrdersResponse, error) {
	args := m.Called(ctx, caller, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListOrdersResponse), args.Error(1)
}

func (m *MockOrderService) CountOrders(ctx context.Context, caller domain.Caller) (int64, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(int64), args.Error(1)
}

var _ portssvc.OrderSvcFacade = (*MockOrderService)(nil)

// --- Mock KhataService ---
type MockKhataService struct {
	mock.Mock
}

func (m *MockKhataService) GetShopLedger(ctx context.Context, caller domain.Caller, shopID string) (*domain.ShopLedger, error) {
	args := m.Called(ctx, caller, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShopLedger), args.Error(1)
}

func (m *MockKhataService) ListShopBalances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShopBalance), args.Error(1)
}

func (m *MockKhataService) GetShopBalance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error) {
	args := m.Called(ctx, caller, shopID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockKhataService) AdjustBalance(ctx context.Context, caller domain.Caller, req dto.AdjustBalanceRequest) (*domain.KhataEntry, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KhataEntry), args.Error(1)
}

var _ portssvc.KhataSvcFacade = (*MockKhataService)(nil)

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) OrderSummary(ctx context.Context, caller domain.Caller, from, to time.Time) (*domain.OrderSummary, error) {
	args := m.Called(ctx, caller, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderSummary), args.Error(1)
}

var _ portssvc.ReportingService = (*MockReportingService)(nil)
