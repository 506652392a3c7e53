package pgsql

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/models"
	"github.com/SscSPs/khata_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepository {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepository = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) RecordCompensationFailure(ctx context.Context, failure domain.CompensationFailure) error {
	m := mapping.ToModelCompensationFailure(failure)
	query := `
		INSERT INTO compensation_failures (id, attempt_id, step, record_id, error, cause, user_uid, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query, m.ID, m.AttemptID, m.Step, m.RecordID, m.Error, m.Cause, m.UserUID, m.OccurredAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record compensation failure for "+m.Step+" "+m.RecordID, err)
	}
	return nil
}

// ListCompensationFailures returns the user's unresolved failures, oldest first.
func (r *PgxReconciliationRepository) ListCompensationFailures(ctx context.Context, userID string) ([]domain.CompensationFailure, error) {
	query := `
		SELECT id, attempt_id, step, record_id, error, cause, user_uid, occurred_at, resolved_at
		FROM compensation_failures
		WHERE user_uid = $1 AND resolved_at IS NULL
		ORDER BY occurred_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query compensation failures", err)
	}
	defer rows.Close()

	failures := make([]domain.CompensationFailure, 0)
	for rows.Next() {
		var m models.CompensationFailure
		if err := rows.Scan(&m.ID, &m.AttemptID, &m.Step, &m.RecordID, &m.Error, &m.Cause, &m.UserUID, &m.OccurredAt, &m.ResolvedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan compensation failure", err)
		}
		failures = append(failures, mapping.ToDomainCompensationFailure(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating compensation failures", err)
	}
	return failures, nil
}
