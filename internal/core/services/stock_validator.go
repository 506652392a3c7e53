package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
)

// stockValidator confirms every order line can be satisfied from stock.
// Reserve takes the units while checking, so two attempts can never both
// claim the last unit of a product.
type stockValidator struct {
	BaseService
	productRepo portsrepo.ProductRepositoryFacade
}

func newStockValidator(productRepo portsrepo.ProductRepositoryFacade) *stockValidator {
	return &stockValidator{productRepo: productRepo}
}

// ValidateOnly is the read-only variant: it reports the first line whose product
// lacks stock without taking anything. Repeated lines of one product are summed.
func (v *stockValidator) ValidateOnly(ctx context.Context, caller domain.Caller, lines []domain.OrderLine) error {
	wanted := make(map[string]int, len(lines))
	for _, line := range lines {
		wanted[line.ProductID] += line.Quantity
		product, err := v.findProduct(ctx, caller, line.ProductID)
		if err != nil {
			return err
		}
		if !product.HasStock(wanted[line.ProductID]) {
			return &apperrors.InsufficientStockError{
				ProductID:   product.ProductID,
				ProductName: product.Name,
				Requested:   wanted[line.ProductID],
				Available:   product.InStock,
			}
		}
	}
	return nil
}

// Reserve takes stock for the lines in order and stops at the first line that
// cannot be satisfied. Each reservation registers its release on comp, so the
// caller undoes earlier lines by compensating.
func (v *stockValidator) Reserve(ctx context.Context, caller domain.Caller, lines []domain.OrderLine, comp *compensationLog) ([]domain.StockReservation, error) {
	logger := v.GetLogger(ctx)
	reservations := make([]domain.StockReservation, 0, len(lines))

	for _, line := range lines {
		res, err := v.productRepo.ReserveStock(ctx, caller.UserID, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, apperrors.ErrInsufficientStock) {
				return reservations, v.insufficient(ctx, caller, line)
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				return reservations, fmt.Errorf("%w: product %s not found", apperrors.ErrValidation, line.ProductID)
			}
			v.LogError(ctx, err, "Failed to reserve stock", slog.String("product_id", line.ProductID))
			return reservations, apperrors.NewPersistenceError("reserve stock for product "+line.ProductID, err)
		}

		productID, quantity := line.ProductID, line.Quantity
		comp.record(stepStockReservation, productID, func(ctx context.Context) error {
			return v.productRepo.ReleaseStock(ctx, caller.UserID, productID, quantity)
		})
		reservations = append(reservations, *res)
		logger.Debug("Stock reserved",
			slog.String("product_id", res.ProductID),
			slog.Int("quantity", res.Quantity),
			slog.Int("remaining", res.Remaining))
	}
	return reservations, nil
}

// insufficient builds the error for a line whose reservation was refused,
// re-reading the product for its name and the stock actually left.
func (v *stockValidator) insufficient(ctx context.Context, caller domain.Caller, line domain.OrderLine) error {
	product, err := v.findProduct(ctx, caller, line.ProductID)
	if err != nil {
		return err
	}
	v.GetLogger(ctx).Info("Insufficient stock",
		slog.String("product_id", product.ProductID),
		slog.Int("requested", line.Quantity),
		slog.Int("available", product.InStock))
	return &apperrors.InsufficientStockError{
		ProductID:   product.ProductID,
		ProductName: product.Name,
		Requested:   line.Quantity,
		Available:   product.InStock,
	}
}

func (v *stockValidator) findProduct(ctx context.Context, caller domain.Caller, productID string) (*domain.Product, error) {
	product, err := v.productRepo.FindProductByID(ctx, caller.UserID, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s not found", apperrors.ErrValidation, productID)
		}
		return nil, apperrors.NewPersistenceError("read product "+productID, err)
	}
	return product, nil
}
