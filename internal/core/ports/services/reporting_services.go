package services

import (
	"context"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// ReportingService provides dashboard reports.
type ReportingService interface {
	// OrderSummary aggregates orders created in [from, to).
	OrderSummary(ctx context.Context, caller domain.Caller, from, to time.Time) (*domain.OrderSummary, error)
}
