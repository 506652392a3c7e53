package domain

import "fmt"

// OrderAttemptState is the progress of a single order creation attempt.
type OrderAttemptState string

const (
	AttemptStarted            OrderAttemptState = "STARTED"
	AttemptStockChecked       OrderAttemptState = "STOCK_CHECKED"
	AttemptOrderHeaderWritten OrderAttemptState = "ORDER_HEADER_WRITTEN"
	AttemptItemsWritten       OrderAttemptState = "ITEMS_WRITTEN"
	AttemptLedgerAppended     OrderAttemptState = "LEDGER_APPENDED"
	AttemptCompensatedFailure OrderAttemptState = "COMPENSATED_FAILURE"
	AttemptValidationFailure  OrderAttemptState = "VALIDATION_FAILURE"
)

var nextAttemptState = map[OrderAttemptState]OrderAttemptState{
	AttemptStarted:            AttemptStockChecked,
	AttemptStockChecked:       AttemptOrderHeaderWritten,
	AttemptOrderHeaderWritten: AttemptItemsWritten,
	AttemptItemsWritten:       AttemptLedgerAppended,
}

// IsTerminal reports whether no further transition is possible.
func (s OrderAttemptState) IsTerminal() bool {
	switch s {
	case AttemptLedgerAppended, AttemptCompensatedFailure, AttemptValidationFailure:
		return true
	}
	return false
}

// OrderAttempt tracks the state machine of one CreateOrder call.
type OrderAttempt struct {
	State OrderAttemptState
}

// NewOrderAttempt starts an attempt in AttemptStarted.
func NewOrderAttempt() *OrderAttempt {
	return &OrderAttempt{State: AttemptStarted}
}

// Advance moves to the next forward state.
func (a *OrderAttempt) Advance() error {
	next, ok := nextAttemptState[a.State]
	if !ok {
		return fmt.Errorf("cannot advance order attempt from %s", a.State)
	}
	a.State = next
	return nil
}

// Fail moves to the matching failure terminal. undone reports whether any
// write of the attempt had to be rolled back. An attempt that undid a write or
// got past AttemptStarted ends compensated; otherwise it is a validation failure.
func (a *OrderAttempt) Fail(undone bool) OrderAttemptState {
	if a.State.IsTerminal() {
		return a.State
	}
	if a.State == AttemptStarted && !undone {
		a.State = AttemptValidationFailure
	} else {
		a.State = AttemptCompensatedFailure
	}
	return a.State
}
