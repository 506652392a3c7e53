package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that no caller identity could be resolved.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates that the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("conflict")

// ErrInternal is returned when an unexpected internal failure is hidden from the caller.
var ErrInternal = errors.New("internal error")

// ErrInsufficientStock indicates a product does not have enough units for an order line.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrPersistence indicates the backing store rejected a read or write.
var ErrPersistence = errors.New("persistence error")

// ErrCompensation indicates that undoing a partially applied workflow failed.
var ErrCompensation = errors.New("compensation failed")

// AppError carries an HTTP-style status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InsufficientStockError reports the first order line whose product lacks stock.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return "Insufficient stock for product " + e.ProductName
}

// Is lets errors.Is match both ErrInsufficientStock and ErrValidation.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == ErrValidation
}

// PersistenceError is a store failure. Op names what was being done; Err is
// the store's own error and is what the caller gets to see.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps a store error.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// CompensationError describes one undo step that could not be applied.
// The record it names must be reconciled by hand.
type CompensationError struct {
	Step     string
	RecordID string
	Err      error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation of %s %s failed: %v", e.Step, e.RecordID, e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}

// Is matches ErrCompensation.
func (e *CompensationError) Is(target error) bool {
	return target == ErrCompensation
}

var sentinels = []error{
	ErrNotFound, ErrValidation, ErrDuplicate, ErrUnauthorized, ErrForbidden,
	ErrConflict, ErrInternal, ErrInsufficientStock, ErrPersistence,
}

// PublicMessage is the text shown to an API caller for err. A joined error
// shows only its cause. Store failures show the store's message and sentinel
// prefixes added by %w wrapping are dropped.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			err = errs[0]
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) && persistErr.Err != nil {
		return persistErr.Err.Error()
	}

	msg := err.Error()
	for _, s := range sentinels {
		if trimmed, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
			return trimmed
		}
	}
	return msg
}

// StatusCode maps an error from any layer to the HTTP status reported to the caller.
// For a cause joined with compensation failures only the cause decides the status.
func StatusCode(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok && errors.Is(err, ErrCompensation) {
		if errs := joined.Unwrap(); len(errs) > 0 && !errors.Is(errs[0], ErrCompensation) {
			return StatusCode(errs[0])
		}
	}
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
