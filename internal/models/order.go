package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a row of the orders table.
type Order struct {
	ID          string          `json:"id"`
	ShopID      string          `json:"shop_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	BuyTotal    decimal.Decimal `json:"buy_total"`
	CreatedAt   time.Time       `json:"created_at"`
	UserUID     string          `json:"user_uid"`
}

// OrderItem is a row of the order_items table.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
