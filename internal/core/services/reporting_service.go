package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service
func NewReportingService(repo portsrepo.ReportingRepository) portssvc.ReportingService {
	return &reportingService{reportingRepo: repo}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// OrderSummary aggregates the caller's orders created in [from, to).
func (s *reportingService) OrderSummary(ctx context.Context, caller domain.Caller, from, to time.Time) (*domain.OrderSummary, error) {
	if err := s.AuthorizeCaller(ctx, caller, "OrderSummary"); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: 'to' must be after 'from'", apperrors.ErrValidation)
	}

	summary, err := s.reportingRepo.GetOrderSummary(ctx, caller.UserID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve order summary",
			slog.String("from", from.Format(time.RFC3339)),
			slog.String("to", to.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve order summary: %w", err)
	}
	summary.From, summary.To = from, to
	summary.Derive()

	s.LogInfo(ctx, "Order summary generated successfully",
		slog.String("from", from.Format(time.RFC3339)),
		slog.String("to", to.Format(time.RFC3339)),
		slog.Int64("order_count", summary.OrderCount))
	return summary, nil
}
