package mapping

import (
	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/models"
)

// ToModelOrder converts a domain Order to a model Order
func ToModelOrder(d domain.Order) models.Order {
	return models.Order{
		ID:          d.OrderID,
		ShopID:      d.ShopID,
		TotalAmount: d.TotalAmount,
		AmountPaid:  d.AmountPaid,
		BuyTotal:    d.BuyTotal,
		CreatedAt:   d.CreatedAt,
		UserUID:     d.UserID,
	}
}

// ToDomainOrder converts a model Order to a domain Order
func ToDomainOrder(m models.Order) domain.Order {
	return domain.Order{
		OrderID:     m.ID,
		ShopID:      m.ShopID,
		TotalAmount: m.TotalAmount,
		AmountPaid:  m.AmountPaid,
		BuyTotal:    m.BuyTotal,
		CreatedAt:   m.CreatedAt,
		UserID:      m.UserUID,
	}
}

// ToModelOrderItem converts a domain OrderItem to a model OrderItem
func ToModelOrderItem(d domain.OrderItem) models.OrderItem {
	return models.OrderItem{
		ID:        d.OrderItemID,
		OrderID:   d.OrderID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     d.Price,
	}
}

// ToDomainOrderItem converts a model OrderItem to a domain OrderItem
func ToDomainOrderItem(m models.OrderItem) domain.OrderItem {
	return domain.OrderItem{
		OrderItemID: m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		Price:       m.Price,
	}
}

// ToDomainOrderItems converts a slice of model OrderItems
func ToDomainOrderItems(ms []models.OrderItem) []domain.OrderItem {
	ds := make([]domain.OrderItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOrderItem(m)
	}
	return ds
}
