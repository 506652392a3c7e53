package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSummary aggregates the caller's orders over a period for the dashboard.
type OrderSummary struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	OrderCount  int64           `json:"orderCount"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	Margin      decimal.Decimal `json:"margin"`      // TotalSales − TotalCost
	Outstanding decimal.Decimal `json:"outstanding"` // TotalSales − TotalPaid
}

// Derive fills the computed fields from the sums.
func (s *OrderSummary) Derive() {
	s.Margin = s.TotalSales.Sub(s.TotalCost)
	s.Outstanding = s.TotalSales.Sub(s.TotalPaid)
}
