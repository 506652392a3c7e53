package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/khata_backend/internal/apperrors"
)

// Caller is the resolved identity of whoever invokes a workflow.
// All persisted records are scoped to Caller.UserID (the owning tenant).
type Caller struct {
	UserID string `json:"userID"`
}

// NewCaller builds a Caller from an already-authenticated user ID.
func NewCaller(userID string) Caller {
	return Caller{UserID: strings.TrimSpace(userID)}
}

// Validate fails with ErrUnauthorized when no identity was resolved.
func (c Caller) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: caller identity is required", apperrors.ErrUnauthorized)
	}
	return nil
}
