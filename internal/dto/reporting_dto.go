package dto

import (
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OrderSummaryParams defines the query parameters of the order summary report.
// Dates are YYYY-MM-DD; the range is inclusive of both days.
type OrderSummaryParams struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// OrderSummaryResponse represents the order summary report response
type OrderSummaryResponse struct {
	FromDate    string          `json:"fromDate"`
	ToDate      string          `json:"toDate"`
	OrderCount  int64           `json:"orderCount"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	Margin      decimal.Decimal `json:"margin"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// ToOrderSummaryResponse converts a domain.OrderSummary. to is exclusive in the domain
// and reported as the last included day.
func ToOrderSummaryResponse(s *domain.OrderSummary) OrderSummaryResponse {
	return OrderSummaryResponse{
		FromDate:    s.From.Format(time.DateOnly),
		ToDate:      s.To.AddDate(0, 0, -1).Format(time.DateOnly),
		OrderCount:  s.OrderCount,
		TotalSales:  s.TotalSales,
		TotalPaid:   s.TotalPaid,
		TotalCost:   s.TotalCost,
		Margin:      s.Margin,
		Outstanding: s.Outstanding,
	}
}
