package mapping

import (
	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/models"
)

// ToDomainShop converts a model Shop to a domain Shop
func ToDomainShop(m models.Shop) domain.Shop {
	return domain.Shop{
		ShopID:    m.ID,
		Name:      m.Name,
		OwnerName: m.OwnerName,
		Phone:     m.Phone,
		Address:   m.Address,
		UserID:    m.UserUID,
	}
}

// ToDomainProduct converts a model Product to a domain Product
func ToDomainProduct(m models.Product) domain.Product {
	return domain.Product{
		ProductID: m.ID,
		Name:      m.Name,
		CostPrice: m.CostPrice,
		SalePrice: m.SalePrice,
		InStock:   m.InStock,
		UserID:    m.UserUID,
	}
}
