package domain

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ErrMsgOverpayment is the message reported when amount paid exceeds the order total.
const ErrMsgOverpayment = "Ammount Paid Cannot be greater than total."

// OrderLine is one requested cart line.
type OrderLine struct {
	ProductID string          `json:"productID"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // unit sale price at time of sale
}

// Order is the header of a completed sale to a shop.
// Orders are immutable once the creating workflow succeeds.
type Order struct {
	OrderID     string          `json:"orderID"`
	ShopID      string          `json:"shopID"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // Σ price × quantity
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	BuyTotal    decimal.Decimal `json:"buyTotal"` // Σ cost price × quantity
	CreatedAt   time.Time       `json:"createdAt"`
	UserID      string          `json:"userID"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem is a line of an Order. Price is a snapshot, not a reference to Product.SalePrice.
type OrderItem struct {
	OrderItemID string          `json:"orderItemID"`
	OrderID     string          `json:"orderID"`
	ProductID   string          `json:"productID"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Delta is the signed khata movement recorded for the order: negative when the shop owes money.
func (o Order) Delta() decimal.Decimal {
	return o.AmountPaid.Sub(o.TotalAmount)
}

// Margin is the gross margin of the order.
func (o Order) Margin() decimal.Decimal {
	return o.TotalAmount.Sub(o.BuyTotal)
}

// ValidatePayment checks the amounts of an order before anything is written.
func ValidatePayment(total, amountPaid, buyTotal decimal.Decimal) error {
	if total.IsNegative() || amountPaid.IsNegative() || buyTotal.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", apperrors.ErrValidation)
	}
	if amountPaid.GreaterThan(total) {
		return apperrors.NewAppError(http.StatusBadRequest, ErrMsgOverpayment, apperrors.ErrValidation)
	}
	return nil
}

// ValidateLines checks the cart shape: at least one line, positive quantities, non-negative prices.
func ValidateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: order must contain at least one product", apperrors.ErrValidation)
	}
	for i, l := range lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: product id is required for line %d", apperrors.ErrValidation, i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive for product %s", apperrors.ErrValidation, l.ProductID)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative for product %s", apperrors.ErrValidation, l.ProductID)
		}
	}
	return nil
}

// LinesTotal sums price × quantity over the lines.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
