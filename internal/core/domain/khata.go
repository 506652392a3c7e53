package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// KhataEntry is one append-only line of a shop's running credit ledger.
type KhataEntry struct {
	EntryID         string          `json:"entryID"`
	ShopID          string          `json:"shopID"`
	ShopName        string          `json:"shopName,omitempty"`
	Delta           decimal.Decimal `json:"delta"`   // amount paid − total for order entries
	OrderID         *string         `json:"orderID"` // nil for manual adjustments
	TransactionDate time.Time       `json:"transactionDate"`
	UserID          string          `json:"userID"`
}

// IsManual reports whether the entry is a manual adjustment not tied to an order.
func (e KhataEntry) IsManual() bool {
	return e.OrderID == nil
}

// ShopBalance is the projected balance of one shop. It is always derived from the ledger.
type ShopBalance struct {
	ShopID            string          `json:"shopID"`
	ShopName          string          `json:"shopName"`
	TotalBalance      decimal.Decimal `json:"totalBalance"`
	EntryCount        int             `json:"entryCount"`
	LastTransactionAt *time.Time      `json:"lastTransactionAt,omitempty"`
}

// ShopLedger is a shop's ledger together with its projected balance.
type ShopLedger struct {
	Shop         Shop            `json:"shop"`
	Entries      []KhataEntry    `json:"entries"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// SumDeltas folds entries into a balance.
func SumDeltas(entries []KhataEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Delta)
	}
	return sum
}
