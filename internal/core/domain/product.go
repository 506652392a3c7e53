package domain

import "github.com/shopspring/decimal"

// Product is a sellable item with a mutable stock counter.
type Product struct {
	ProductID string          `json:"productID"`
	Name      string          `json:"name"`
	CostPrice decimal.Decimal `json:"costPrice"` // buy price, used for margin reporting
	SalePrice decimal.Decimal `json:"salePrice"`
	InStock   int             `json:"inStock"`
	UserID    string          `json:"userID"`
}

// HasStock reports whether quantity units can be taken from the product.
func (p Product) HasStock(quantity int) bool {
	return p.InStock >= quantity
}

// StockReservation records units taken from a product by an order attempt.
type StockReservation struct {
	ProductID   string
	ProductName string
	Quantity    int
	Remaining   int // stock left after the reservation
}
