package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Khata is a row of the khata table. Balance is the signed delta of the entry.
type Khata struct {
	ID              string          `json:"id"`
	ShopID          string          `json:"shop_id"`
	Balance         decimal.Decimal `json:"balance"`
	OrderID         *string         `json:"order_id"`
	TransactionDate time.Time       `json:"transaction_date"`
	UserUID         string          `json:"user_uid"`
}

// CompensationFailure is a row of the compensation_failures table.
type CompensationFailure struct {
	ID         string     `json:"id"`
	AttemptID  string     `json:"attempt_id"`
	Step       string     `json:"step"`
	RecordID   string     `json:"record_id"`
	Error      string     `json:"error"`
	Cause      string     `json:"cause"`
	UserUID    string     `json:"user_uid"`
	OccurredAt time.Time  `json:"occurred_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}
