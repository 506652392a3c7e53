package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// GetOrderSummary sums the user's orders created in [from, to).
func (r *reportingRepository) GetOrderSummary(ctx context.Context, userID string, from, to time.Time) (*domain.OrderSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(amount_paid), 0),
			COALESCE(SUM(buy_total), 0)
		FROM orders
		WHERE user_uid = $1
			AND created_at >= $2
			AND created_at < $3
	`
	summary := domain.OrderSummary{From: from, To: to}
	err := r.Pool.QueryRow(ctx, query, userID, from, to).Scan(
		&summary.OrderCount,
		&summary.TotalSales,
		&summary.TotalPaid,
		&summary.TotalCost,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to summarise orders", err)
	}
	return &summary, nil
}
