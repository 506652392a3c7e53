package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
	"github.com/google/uuid"
)

// Compensation step names, also used as metric labels and in reconciliation records.
const (
	stepStockReservation = "stock_reservation"
	stepOrderHeader      = "order_header"
	stepOrderItems       = "order_items"
	stepLedgerEntry      = "ledger_entry"
)

const defaultCompensationTimeout = 10 * time.Second

type undoAction struct {
	step     string
	recordID string
	undo     func(ctx context.Context) error
}

// compensationCoordinator owns what every order attempt needs to roll itself back.
type compensationCoordinator struct {
	BaseService
	recorder portsrepo.ReconciliationRepository // optional
	metrics  *metrics.Metrics
	timeout  time.Duration
	now      func() time.Time
}

func newCompensationCoordinator(recorder portsrepo.ReconciliationRepository, m *metrics.Metrics, timeout time.Duration) *compensationCoordinator {
	if timeout <= 0 {
		timeout = defaultCompensationTimeout
	}
	return &compensationCoordinator{recorder: recorder, metrics: m, timeout: timeout, now: time.Now}
}

// begin opens the undo log of one attempt.
func (c *compensationCoordinator) begin(attemptID string, caller domain.Caller) *compensationLog {
	return &compensationLog{coordinator: c, attemptID: attemptID, caller: caller}
}

// compensationLog records the undo action of every completed write of one attempt.
// It is not safe for concurrent use; an attempt runs its steps sequentially.
type compensationLog struct {
	coordinator *compensationCoordinator
	attemptID   string
	caller      domain.Caller
	actions     []undoAction
}

// record registers the undo of a write that just succeeded.
func (l *compensationLog) record(step, recordID string, undo func(ctx context.Context) error) {
	l.actions = append(l.actions, undoAction{step: step, recordID: recordID, undo: undo})
}

func (l *compensationLog) len() int {
	return len(l.actions)
}

// compensate runs the recorded undo actions newest first and empties the log.
// It keeps going after an undo fails. The returned error always matches cause;
// failed undos are joined to it as *apperrors.CompensationError.
//
// Undo actions run on a context detached from ctx cancellation: a client that
// disconnects mid-attempt must not leave half an order behind.
func (l *compensationLog) compensate(ctx context.Context, cause error) error {
	if len(l.actions) == 0 {
		return cause
	}
	c := l.coordinator
	logger := c.GetLogger(ctx).With(slog.String("attempt_id", l.attemptID))

	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	logger.Warn("Compensating failed order attempt",
		slog.Int("steps", len(l.actions)),
		slog.String("cause", cause.Error()))

	var compErrs []error
	for i := len(l.actions) - 1; i >= 0; i-- {
		a := l.actions[i]
		if err := a.undo(undoCtx); err != nil {
			compErr := &apperrors.CompensationError{Step: a.step, RecordID: a.recordID, Err: err}
			compErrs = append(compErrs, compErr)
			c.metrics.CompensationFailed(a.step)
			logger.Error("Compensation step failed; manual reconciliation required",
				slog.Bool("manual_reconciliation", true),
				slog.String("step", a.step),
				slog.String("record_id", a.recordID),
				slog.String("user_id", l.caller.UserID),
				slog.String("error", err.Error()))
			c.recordFailure(undoCtx, logger, l, a, err, cause)
			continue
		}
		logger.Debug("Compensation step applied", slog.String("step", a.step), slog.String("record_id", a.recordID))
	}
	l.actions = nil

	if len(compErrs) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, compErrs...)...)
}

func (c *compensationCoordinator) recordFailure(ctx context.Context, logger *slog.Logger, l *compensationLog, a undoAction, err, cause error) {
	if c.recorder == nil {
		return
	}
	failure := domain.CompensationFailure{
		FailureID:  uuid.NewString(),
		AttemptID:  l.attemptID,
		Step:       a.step,
		RecordID:   a.recordID,
		Error:      err.Error(),
		Cause:      cause.Error(),
		UserID:     l.caller.UserID,
		OccurredAt: c.now().UTC(),
	}
	if recErr := c.recorder.RecordCompensationFailure(ctx, failure); recErr != nil {
		logger.Error("Failed to persist compensation failure record",
			slog.Bool("manual_reconciliation", true),
			slog.String("step", a.step),
			slog.String("record_id", a.recordID),
			slog.String("error", recErr.Error()))
	}
}
