package services

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// KhataReaderSvc defines read operations on shop ledgers.
type KhataReaderSvc interface {
	GetShopLedger(ctx context.Context, caller domain.Caller, shopID string) (*domain.ShopLedger, error)
	ListShopBalances(ctx context.Context, caller domain.Caller) ([]domain.ShopBalance, error)
	GetShopBalance(ctx context.Context, caller domain.Caller, shopID string) (decimal.Decimal, error)
}

// KhataWriterSvc records manual adjustments.
type KhataWriterSvc interface {
	AdjustBalance(ctx context.Context, caller domain.Caller, req dto.AdjustBalanceRequest) (*domain.KhataEntry, error)
}

// KhataSvcFacade combines all khata-related service interfaces
type KhataSvcFacade interface {
	KhataReaderSvc
	KhataWriterSvc
}
