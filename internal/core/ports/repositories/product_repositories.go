package repositories

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// ProductReader defines read operations for products.
type ProductReader interface {
	// FindProductByID returns apperrors.ErrNotFound when the product does not exist for the user.
	FindProductByID(ctx context.Context, userID, productID string) (*domain.Product, error)
}

// StockReserver moves stock in and out of products.
type StockReserver interface {
	// ReserveStock atomically takes quantity units when at least that many are in stock.
	// It returns apperrors.ErrInsufficientStock when the stock is too low and
	// apperrors.ErrNotFound when the product does not exist. Stock never goes negative.
	ReserveStock(ctx context.Context, userID, productID string, quantity int) (*domain.StockReservation, error)

	// ReleaseStock puts back units taken by ReserveStock.
	ReleaseStock(ctx context.Context, userID, productID string, quantity int) error
}

// ProductRepositoryFacade combines the product interfaces.
type ProductRepositoryFacade interface {
	ProductReader
	StockReserver
}
