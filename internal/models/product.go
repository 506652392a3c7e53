package models

import "github.com/shopspring/decimal"

// Product is a row of the products table.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	InStock   int             `json:"in_stock"`
	UserUID   string          `json:"user_uid"`
}
