package repositories

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
)

// ShopReader defines read operations for shops.
type ShopReader interface {
	// FindShopByID returns apperrors.ErrNotFound when the shop does not exist for the user.
	FindShopByID(ctx context.Context, userID, shopID string) (*domain.Shop, error)
}
