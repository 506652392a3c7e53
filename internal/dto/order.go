package dto

import (
	"time"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OrderProductRequest is one cart line of a CreateOrderRequest.
type OrderProductRequest struct {
	ID       ID              `json:"id" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price" binding:"gte=0"`
}

// CreateOrderRequest is the cart submitted from the point of sale.
type CreateOrderRequest struct {
	ShopID     ID                    `json:"shopId" binding:"required"`
	Products   []OrderProductRequest `json:"products" binding:"required,min=1,dive"`
	Total      decimal.Decimal       `json:"total" binding:"gte=0"`
	AmountPaid decimal.Decimal       `json:"amount_paid" binding:"gte=0"`
	BuyTotal   decimal.Decimal       `json:"buy_total" binding:"gte=0"`
}

// ValidateOrderResponse is returned when a cart passes every check.
type ValidateOrderResponse struct {
	Valid bool `json:"valid"`
}

// ToOrderLines converts the cart to domain order lines.
func (r CreateOrderRequest) ToOrderLines() []domain.OrderLine {
	lines := make([]domain.OrderLine, len(r.Products))
	for i, p := range r.Products {
		lines[i] = domain.OrderLine{
			ProductID: p.ID.String(),
			Quantity:  p.Quantity,
			Price:     p.Price,
		}
	}
	return lines
}

// OrderItemResponse defines the data returned for an order line.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderResponse defines the data returned for an order.
type OrderResponse struct {
	ID          string              `json:"id"`
	ShopID      string              `json:"shop_id"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	AmountPaid  decimal.Decimal     `json:"amount_paid"`
	BuyTotal    decimal.Decimal     `json:"buy_total"`
	CreatedAt   time.Time           `json:"created_at"`
	UserID      string              `json:"user_uid"`
	Items       []OrderItemResponse `json:"items,omitempty"`
}

// ListOrdersParams defines the query parameters for listing orders.
type ListOrdersParams struct {
	ShopID    string  `form:"shopId"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListOrdersResponse wraps a page of orders.
type ListOrdersResponse struct {
	Orders    []OrderResponse `json:"orders"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// CountOrdersResponse is the number of orders of the caller.
type CountOrdersResponse struct {
	Count int64 `json:"count"`
}

// ToOrderItemResponse converts a domain.OrderItem to OrderItemResponse DTO.
func ToOrderItemResponse(item domain.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:        item.OrderItemID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
	}
}

// ToOrderResponse converts a domain.Order to OrderResponse DTO.
func ToOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.OrderID,
		ShopID:      o.ShopID,
		TotalAmount: o.TotalAmount,
		AmountPaid:  o.AmountPaid,
		BuyTotal:    o.BuyTotal,
		CreatedAt:   o.CreatedAt,
		UserID:      o.UserID,
	}
	if len(o.Items) > 0 {
		resp.Items = make([]OrderItemResponse, len(o.Items))
		for i, item := range o.Items {
			resp.Items[i] = ToOrderItemResponse(item)
		}
	}
	return resp
}

// ToOrderResponses converts a slice of domain.Order to []OrderResponse.
func ToOrderResponses(orders []domain.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}
