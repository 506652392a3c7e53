package repositories

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// ReconciliationRepository keeps records of failed compensation steps.
type ReconciliationRepository interface {
	RecordCompensationFailure(ctx context.Context, failure domain.CompensationFailure) error
	ListCompensationFailures(ctx context.Context, userID string) ([]domain.CompensationFailure, error)
}
