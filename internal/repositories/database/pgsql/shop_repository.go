package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/models"
	"github.com/SscSPs/khata_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxShopRepository struct {
	BaseRepository
}

func newPgxShopRepository(pool *pgxpool.Pool) portsrepo.ShopReader {
	return &PgxShopRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ShopReader = (*PgxShopRepository)(nil)

// FindShopByID retrieves a shop owned by the user.
func (r *PgxShopRepository) FindShopByID(ctx context.Context, userID, shopID string) (*domain.Shop, error) {
	query := `
		SELECT id, name, owner_name, phone, address, user_uid
		FROM shops
		WHERE id = $1 AND user_uid = $2;
	`
	var m models.Shop
	err := r.Pool.QueryRow(ctx, query, shopID, userID).Scan(
		&m.ID, &m.Name, &m.OwnerName, &m.Phone, &m.Address, &m.UserUID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find shop "+shopID, err)
	}
	shop := mapping.ToDomainShop(m)
	return &shop, nil
}
