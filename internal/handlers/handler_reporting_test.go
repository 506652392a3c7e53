package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/handlers"
	"github.com/SscSPs/khata_backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReportingRouter(svc *MockReportingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(testJWTSecret))
	handlers.RegisterReportingRoutes(v1, svc)
	return r
}

func getWithToken(r *gin.Engine, url, userID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(userID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrderSummary_IncludesLastDay(t *testing.T) {
	svc := new(MockReportingService)
	r := newReportingRouter(svc)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	toExclusive := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	summary := &domain.OrderSummary{
		From:        from,
		To:          toExclusive,
		OrderCount:  3,
		TotalSales:  decimal.NewFromInt(300),
		TotalPaid:   decimal.NewFromInt(200),
		TotalCost:   decimal.NewFromInt(180),
		Margin:      decimal.NewFromInt(120),
		Outstanding: decimal.NewFromInt(100),
	}
	svc.On("OrderSummary",
		mock.Anything,
		domain.NewCaller("user-1"),
		mock.MatchedBy(func(t time.Time) bool { return t.Equal(from) }),
		mock.MatchedBy(func(t time.Time) bool { return t.Equal(toExclusive) }),
	).Return(summary, nil).Once()

	w := getWithToken(r, "/api/v1/reports/orders/summary?from=2024-03-01&to=2024-03-31", "user-1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.OrderSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-01", resp.FromDate)
	assert.Equal(t, "2024-03-31", resp.ToDate)
	assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(100)))
	svc.AssertExpectations(t)
}

func TestOrderSummary_InvalidInput(t *testing.T) {
	svc := new(MockReportingService)
	r := newReportingRouter(svc)

	w := getWithToken(r, "/api/v1/reports/orders/summary?from=2024-04-01&to=2024-03-01", "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = getWithToken(r, "/api/v1/reports/orders/summary?from=01-03-2024", "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "OrderSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
