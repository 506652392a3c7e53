package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/models"
	"github.com/SscSPs/khata_backend/internal/utils/mapping"
	"github.com/SscSPs/khata_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxOrderRepository struct {
	BaseRepository
}

func newPgxOrderRepository(pool *pgxpool.Pool) portsrepo.OrderRepositoryFacade {
	return &PgxOrderRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OrderRepositoryFacade = (*PgxOrderRepository)(nil)

// SaveOrder inserts the order header.
func (r *PgxOrderRepository) SaveOrder(ctx context.Context, order domain.Order) error {
	m := mapping.ToModelOrder(order)
	query := `
		INSERT INTO orders (id, shop_id, total_amount, amount_paid, buy_total, created_at, user_uid)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ID,
		m.ShopID,
		m.TotalAmount,
		m.AmountPaid,
		m.BuyTotal,
		m.CreatedAt,
		m.UserUID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert order "+m.ID, err)
	}
	return nil
}

// SaveOrderItems inserts every item of one order in a single transaction.
func (r *PgxOrderRepository) SaveOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, item := range items {
		m := mapping.ToModelOrderItem(item)
		batch.Queue(query, m.ID, m.OrderID, m.ProductID, m.Quantity, m.Price)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return apperrors.NewAppError(500, "failed to insert order item "+strconv.Itoa(i+1)+" of order "+items[i].OrderID, err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close order item batch", err)
	}

	return r.Commit(ctx, tx)
}

// DeleteOrder removes the header; items go with it through ON DELETE CASCADE.
func (r *PgxOrderRepository) DeleteOrder(ctx context.Context, userID, orderID string) error {
	if !isUUID(orderID) {
		return apperrors.ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND user_uid = $2;`, orderID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete order "+orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxOrderRepository) DeleteOrderItems(ctx context.Context, orderID string) error {
	if !isUUID(orderID) {
		return nil
	}
	if _, err := r.Pool.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1;`, orderID); err != nil {
		return apperrors.NewAppError(500, "failed to delete items of order "+orderID, err)
	}
	return nil
}

// FindOrderByID retrieves an order header owned by the user.
func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if !isUUID(orderID) {
		return nil, apperrors.ErrNotFound
	}
	query := `
		SELECT id, shop_id, total_amount, amount_paid, buy_total, created_at, user_uid
		FROM orders
		WHERE id = $1 AND user_uid = $2;
	`
	var m models.Order
	err := r.Pool.QueryRow(ctx, query, orderID, userID).Scan(
		&m.ID, &m.ShopID, &m.TotalAmount, &m.AmountPaid, &m.BuyTotal, &m.CreatedAt, &m.UserUID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find order "+orderID, err)
	}
	order := mapping.ToDomainOrder(m)
	return &order, nil
}

func (r *PgxOrderRepository) FindOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	if !isUUID(orderID) {
		return []domain.OrderItem{}, nil
	}
	query := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id;
	`
	rows, err := r.Pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query items of order "+orderID, err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var m models.OrderItem
		if err := rows.Scan(&m.ID, &m.OrderID, &m.ProductID, &m.Quantity, &m.Price); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan order item", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating order items", err)
	}
	return mapping.ToDomainOrderItems(items), nil
}

// ListOrders pages through the user's orders newest first using a (created_at, id) keyset.
func (r *PgxOrderRepository) ListOrders(ctx context.Context, userID, shopID string, limit int, nextToken *string) ([]domain.Order, *string, error) {
	args := []interface{}{userID}
	query := `
		SELECT id, shop_id, total_amount, amount_paid, buy_total, created_at, user_uid
		FROM orders
		WHERE user_uid = $1`

	if shopID != "" {
		args = append(args, shopID)
		query += fmt.Sprintf(" AND shop_id = $%d", len(args))
	}
	if nextToken != nil {
		afterTime, afterID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if !isUUID(afterID) {
			return nil, nil, fmt.Errorf("%w: malformed page token", apperrors.ErrValidation)
		}
		args = append(args, afterTime, afterID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list orders", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		var m models.Order
		if err := rows.Scan(&m.ID, &m.ShopID, &m.TotalAmount, &m.AmountPaid, &m.BuyTotal, &m.CreatedAt, &m.UserUID); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan order", err)
		}
		orders = append(orders, mapping.ToDomainOrder(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating orders", err)
	}

	if len(orders) <= limit {
		return orders, nil, nil
	}
	orders = orders[:limit]
	last := orders[limit-1]
	token := pagination.EncodeToken(last.CreatedAt.In(time.UTC), last.OrderID)
	return orders, &token, nil
}

func (r *PgxOrderRepository) CountOrders(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_uid = $1;`, userID).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count orders", err)
	}
	return n, nil
}
