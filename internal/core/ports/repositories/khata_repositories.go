package repositories

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// KhataReader defines read operations for the khata ledger.
type KhataReader interface {
	// ListEntriesByShop returns the shop's entries oldest first.
	ListEntriesByShop(ctx context.Context, userID, shopID string) ([]domain.KhataEntry, error)

	// SumByShop folds all the shop's entries. It is zero for a shop without entries.
	SumByShop(ctx context.Context, userID, shopID string) (decimal.Decimal, error)

	// ListShopBalances folds the ledger of every shop of the user that has entries.
	ListShopBalances(ctx context.Context, userID string) ([]domain.ShopBalance, error)
}

// KhataWriter appends and removes ledger entries. Entries are never updated.
type KhataWriter interface {
	AppendEntry(ctx context.Context, entry domain.KhataEntry) error

	// DeleteEntry is only used to compensate a failed order attempt.
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

// KhataRepositoryFacade combines the ledger interfaces.
type KhataRepositoryFacade interface {
	KhataReader
	KhataWriter
}
