package pgsql

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/models"
	"github.com/SscSPs/khata_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxKhataRepository struct {
	BaseRepository
}

func newPgxKhataRepository(pool *pgxpool.Pool) portsrepo.KhataRepositoryFacade {
	return &PgxKhataRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.KhataRepositoryFacade = (*PgxKhataRepository)(nil)

// AppendEntry inserts a ledger row. Rows are never updated afterwards.
func (r *PgxKhataRepository) AppendEntry(ctx context.Context, entry domain.KhataEntry) error {
	m := mapping.ToModelKhata(entry)
	query := `
		INSERT INTO khata (id, shop_id, balance, order_id, transaction_date, user_uid)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query, m.ID, m.ShopID, m.Balance, m.OrderID, m.TransactionDate, m.UserUID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to append khata entry "+m.ID, err)
	}
	return nil
}

func (r *PgxKhataRepository) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if !isUUID(entryID) {
		return apperrors.ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM khata WHERE id = $1 AND user_uid = $2;`, entryID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete khata entry "+entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListEntriesByShop returns the shop's ledger oldest first.
func (r *PgxKhataRepository) ListEntriesByShop(ctx context.Context, userID, shopID string) ([]domain.KhataEntry, error) {
	query := `
		SELECT id, shop_id, balance, order_id, transaction_date, user_uid
		FROM khata
		WHERE user_uid = $1 AND shop_id = $2
		ORDER BY transaction_date ASC, id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, userID, shopID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query khata of shop "+shopID, err)
	}
	defer rows.Close()

	entries := make([]domain.KhataEntry, 0)
	for rows.Next() {
		var m models.Khata
		if err := rows.Scan(&m.ID, &m.ShopID, &m.Balance, &m.OrderID, &m.TransactionDate, &m.UserUID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan khata entry", err)
		}
		entries = append(entries, mapping.ToDomainKhata(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating khata entries", err)
	}
	return entries, nil
}

func (r *PgxKhataRepository) SumByShop(ctx context.Context, userID, shopID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(balance), 0) FROM khata WHERE user_uid = $1 AND shop_id = $2;`
	if err := r.Pool.QueryRow(ctx, query, userID, shopID).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum khata of shop "+shopID, err)
	}
	return sum, nil
}

// ListShopBalances reads the shop_balances view.
func (r *PgxKhataRepository) ListShopBalances(ctx context.Context, userID string) ([]domain.ShopBalance, error) {
	query := `
		SELECT shop_id, shop_name, total_balance, entry_count, last_transaction_at
		FROM shop_balances
		WHERE user_uid = $1
		ORDER BY shop_name ASC, shop_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query shop balances", err)
	}
	defer rows.Close()

	balances := make([]domain.ShopBalance, 0)
	for rows.Next() {
		var b domain.ShopBalance
		var count int64
		if err := rows.Scan(&b.ShopID, &b.ShopName, &b.TotalBalance, &count, &b.LastTransactionAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan shop balance", err)
		}
		b.EntryCount = int(count)
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating shop balances", err)
	}
	return balances, nil
}
