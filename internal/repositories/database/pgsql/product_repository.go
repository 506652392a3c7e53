package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/models"
	"github.com/SscSPs/khata_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxProductRepository struct {
	BaseRepository
}

func newPgxProductRepository(pool *pgxpool.Pool) portsrepo.ProductRepositoryFacade {
	return &PgxProductRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ProductRepositoryFacade = (*PgxProductRepository)(nil)

// FindProductByID retrieves a product owned by the user.
func (r *PgxProductRepository) FindProductByID(ctx context.Context, userID, productID string) (*domain.Product, error) {
	query := `
		SELECT id, name, cost_price, sale_price, in_stock, user_uid
		FROM products
		WHERE id = $1 AND user_uid = $2;
	`
	var m models.Product
	err := r.Pool.QueryRow(ctx, query, productID, userID).Scan(
		&m.ID, &m.Name, &m.CostPrice, &m.SalePrice, &m.InStock, &m.UserUID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find product "+productID, err)
	}
	product := mapping.ToDomainProduct(m)
	return &product, nil
}

// ReserveStock decrements the stock in a single conditional UPDATE, so two
// concurrent reservations can never both take the last unit.
func (r *PgxProductRepository) ReserveStock(ctx context.Context, userID, productID string, quantity int) (*domain.StockReservation, error) {
	query := `
		UPDATE products
		SET in_stock = in_stock - $1
		WHERE id = $2 AND user_uid = $3 AND in_stock >= $1
		RETURNING name, in_stock;
	`
	res := domain.StockReservation{ProductID: productID, Quantity: quantity}
	err := r.Pool.QueryRow(ctx, query, quantity, productID, userID).Scan(&res.ProductName, &res.Remaining)
	if err == nil {
		return &res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewAppError(500, "failed to reserve stock for product "+productID, err)
	}

	// No row updated: either the product is missing or the stock is too low.
	var inStock int
	err = r.Pool.QueryRow(ctx, `SELECT in_stock FROM products WHERE id = $1 AND user_uid = $2;`, productID, userID).Scan(&inStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to read stock for product "+productID, err)
	}
	return nil, apperrors.ErrInsufficientStock
}

// ReleaseStock puts reserved units back.
func (r *PgxProductRepository) ReleaseStock(ctx context.Context, userID, productID string, quantity int) error {
	query := `UPDATE products SET in_stock = in_stock + $1 WHERE id = $2 AND user_uid = $3;`
	tag, err := r.Pool.Exec(ctx, query, quantity, productID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to release "+strconv.Itoa(quantity)+" units of product "+productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
