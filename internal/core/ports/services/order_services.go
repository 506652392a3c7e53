package services

import (
	"context"

	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/dto"
)

// OrderCreatorSvc runs the order fulfillment workflow.
type OrderCreatorSvc interface {
	// CreateOrder reserves stock, writes the order with its items and appends the
	// khata entry. On failure every completed step is undone before returning.
	CreateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) (*domain.Order, error)

	// ValidateOrder runs the same checks as CreateOrder without writing anything.
	ValidateOrder(ctx context.Context, caller domain.Caller, req dto.CreateOrderRequest) error
}

// OrderReaderSvc defines read operations for orders.
type OrderReaderSvc interface {
	GetOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, caller domain.Caller, params dto.ListOrdersParams) (*dto.ListOrdersResponse, error)
	CountOrders(ctx context.Context, caller domain.Caller) (int64, error)
}

// OrderSvcFacade combines all order-related service interfaces
type OrderSvcFacade interface {
	OrderCreatorSvc
	OrderReaderSvc
}
