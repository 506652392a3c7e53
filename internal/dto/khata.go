package dto

import (
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AdjustBalanceRequest is a manual khata adjustment, e.g. a payment received from a shop.
type AdjustBalanceRequest struct {
	ShopID ID              `json:"shopID" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// KhataEntryResponse defines the data returned for a ledger entry.
type KhataEntryResponse struct {
	ID              string           `json:"id"`
	ShopID          string           `json:"shop_id"`
	ShopName        string           `json:"shop_name,omitempty"`
	Balance         decimal.Decimal  `json:"balance"` // signed delta of this entry
	OrderID         *string          `json:"order_id"`
	TransactionDate time.Time        `json:"transaction_date"`
	UserID          string           `json:"user_uid"`
	TotalBalance    *decimal.Decimal `json:"total_balance,omitempty"`
}

// ShopLedgerResponse is a shop's ledger with its balance.
type ShopLedgerResponse struct {
	ShopID       string               `json:"shop_id"`
	ShopName     string               `json:"shop_name"`
	Entries      []KhataEntryResponse `json:"entries"`
	TotalBalance decimal.Decimal      `json:"total_balance"`
}

// ShopBalanceResponse is one row of the balances overview.
type ShopBalanceResponse struct {
	ShopID            string          `json:"shop_id"`
	ShopName          string          `json:"shop_name"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	EntryCount        int             `json:"entry_count"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
}

// ToKhataEntryResponse converts a domain.KhataEntry to KhataEntryResponse DTO.
func ToKhataEntryResponse(e domain.KhataEntry) KhataEntryResponse {
	return KhataEntryResponse{
		ID:              e.EntryID,
		ShopID:          e.ShopID,
		ShopName:        e.ShopName,
		Balance:         e.Delta,
		OrderID:         e.OrderID,
		TransactionDate: e.TransactionDate,
		UserID:          e.UserID,
	}
}

// ToShopLedgerResponse converts a ledger, stamping the shop total on every entry.
func ToShopLedgerResponse(l *domain.ShopLedger) ShopLedgerResponse {
	total := l.TotalBalance
	entries := make([]KhataEntryResponse, len(l.Entries))
	for i, e := range l.Entries {
		entries[i] = ToKhataEntryResponse(e)
		if entries[i].ShopName == "" {
			entries[i].ShopName = l.Shop.Name
		}
		entries[i].TotalBalance = &total
	}
	return ShopLedgerResponse{
		ShopID:       l.Shop.ShopID,
		ShopName:     l.Shop.Name,
		Entries:      entries,
		TotalBalance: total,
	}
}

// ToShopBalanceResponses converts a slice of domain.ShopBalance.
func ToShopBalanceResponses(balances []domain.ShopBalance) []ShopBalanceResponse {
	responses := make([]ShopBalanceResponse, len(balances))
	for i, b := range balances {
		responses[i] = ShopBalanceResponse{
			ShopID:            b.ShopID,
			ShopName:          b.ShopName,
			TotalBalance:      b.TotalBalance,
			EntryCount:        b.EntryCount,
			LastTransactionAt: b.LastTransactionAt,
		}
	}
	return responses
}
