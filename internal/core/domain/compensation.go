package domain

import "time"

// CompensationFailure is a durable record of an undo step that failed after
// an order attempt was rolled back. Each one needs manual reconciliation.
type CompensationFailure struct {
	FailureID  string    `json:"failureID"`
	AttemptID  string    `json:"attemptID"`
	Step       string    `json:"step"`     // e.g. "order_header", "stock_reservation"
	RecordID   string    `json:"recordID"` // id of the record left behind
	Error      string    `json:"error"`
	Cause      string    `json:"cause"` // the failure that triggered compensation
	UserID     string    `json:"userID"`
	OccurredAt time.Time `json:"occurredAt"`
}
