package repositories

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// OrderReader defines read operations for orders.
type OrderReader interface {
	FindOrderByID(ctx context.Context, userID, orderID string) (*domain.Order, error)
	FindOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)

	// ListOrders returns orders newest first. shopID may be empty to list every shop.
	// The returned token is nil on the last page.
	ListOrders(ctx context.Context, userID, shopID string, limit int, nextToken *string) ([]domain.Order, *string, error)

	CountOrders(ctx context.Context, userID string) (int64, error)
}

// OrderWriter defines write operations for orders. Each call commits on its own.
type OrderWriter interface {
	SaveOrder(ctx context.Context, order domain.Order) error

	// SaveOrderItems persists all items or none.
	SaveOrderItems(ctx context.Context, items []domain.OrderItem) error

	// DeleteOrder removes an order header together with any of its items.
	DeleteOrder(ctx context.Context, userID, orderID string) error

	DeleteOrderItems(ctx context.Context, orderID string) error
}

// OrderRepositoryFacade combines the order interfaces.
type OrderRepositoryFacade interface {
	OrderReader
	OrderWriter
}
