package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// ReportingRepository aggregates orders for reports.
type ReportingRepository interface {
	// GetOrderSummary sums orders created in [from, to). Derived fields are left to the caller.
	GetOrderSummary(ctx context.Context, userID string, from, to time.Time) (*domain.OrderSummary, error)
}
