package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: fmt.Errorf("%w: bad input", apperrors.ErrValidation), want: http.StatusBadRequest},
		{name: "insufficient stock", err: &apperrors.InsufficientStockError{ProductName: "Soap", Requested: 5, Available: 3}, want: http.StatusBadRequest},
		{name: "unauthorized", err: apperrors.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "not found wrapped", err: fmt.Errorf("find shop: %w", apperrors.ErrNotFound), want: http.StatusNotFound},
		{name: "app error code", err: apperrors.NewAppError(http.StatusServiceUnavailable, "db down", nil), want: http.StatusServiceUnavailable},
		{name: "persistence", err: fmt.Errorf("%w: insert failed", apperrors.ErrPersistence), want: http.StatusInternalServerError},
		{name: "store duplicate stays a store failure", err: apperrors.NewPersistenceError("save order", apperrors.ErrDuplicate), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.StatusCode(tt.err))
		})
	}
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &apperrors.InsufficientStockError{ProductID: "p-1", ProductName: "Basmati Rice", Requested: 5, Available: 3}

	assert.Equal(t, "Insufficient stock for product Basmati Rice", err.Error())
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCompensationError_JoinedWithCause(t *testing.T) {
	cause := fmt.Errorf("%w: khata insert", apperrors.ErrPersistence)
	compErr := &apperrors.CompensationError{Step: "order", RecordID: "o-1", Err: errors.New("connection reset")}

	joined := errors.Join(cause, compErr)

	assert.ErrorIs(t, joined, apperrors.ErrPersistence)
	assert.ErrorIs(t, joined, apperrors.ErrCompensation)
	var target *apperrors.CompensationError
	assert.True(t, errors.As(joined, &target))
	assert.Equal(t, "o-1", target.RecordID)
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(joined))
}

func TestStatusCode_CompensationKeepsCauseStatus(t *testing.T) {
	cause := &apperrors.InsufficientStockError{ProductName: "Soap", Requested: 5, Available: 3}
	compErr := &apperrors.CompensationError{Step: "stock_reservation", RecordID: "p-1", Err: apperrors.ErrNotFound}

	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(errors.Join(cause, compErr)))
}

func TestPublicMessage(t *testing.T) {
	storeErr := errors.New(`duplicate key value violates unique constraint "orders_pkey"`)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "app error message", err: apperrors.NewAppError(http.StatusBadRequest, "Ammount Paid Cannot be greater than total.", apperrors.ErrValidation), want: "Ammount Paid Cannot be greater than total."},
		{name: "sentinel prefix dropped", err: fmt.Errorf("%w: shop id is required", apperrors.ErrValidation), want: "shop id is required"},
		{name: "store message", err: apperrors.NewPersistenceError("save order", storeErr), want: storeErr.Error()},
		{name: "stock", err: &apperrors.InsufficientStockError{ProductName: "Soap"}, want: "Insufficient stock for product Soap"},
		{name: "plain", err: errors.New("boom"), want: "boom"},
		{
			name: "cause of a join",
			err:  errors.Join(apperrors.NewPersistenceError("append khata entry", storeErr), &apperrors.CompensationError{Step: "order_header", RecordID: "o-1", Err: errors.New("timeout")}),
			want: storeErr.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.PublicMessage(tt.err))
		})
	}
}

func TestPersistenceError_KeepsStoreCause(t *testing.T) {
	storeErr := errors.New("connection reset")
	err := apperrors.NewPersistenceError("save order items", storeErr)

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, "save order items: connection reset", err.Error())
}
