package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/repositories/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensationLog_RunsNewestFirstAndContinuesAfterFailure(t *testing.T) {
	store := memory.NewStore()
	coord := newCompensationCoordinator(store, nil, time.Second)
	comp := coord.begin("attempt-1", domain.NewCaller("user-1"))

	var order []string
	undo := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}
	comp.record(stepStockReservation, "p1", undo("release p1", nil))
	comp.record(stepOrderHeader, "o1", undo("delete o1", errors.New("db down")))
	comp.record(stepOrderItems, "o1", undo("delete items o1", nil))
	require.Equal(t, 3, comp.len())

	cause := errors.New("ledger failed")
	err := comp.compensate(context.Background(), cause)

	assert.Equal(t, []string{"delete items o1", "delete o1", "release p1"}, order)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperrors.ErrCompensation)
	assert.Equal(t, 0, comp.len())

	failures, lerr := store.ListCompensationFailures(context.Background(), "user-1")
	require.NoError(t, lerr)
	require.Len(t, failures, 1)
	assert.Equal(t, stepOrderHeader, failures[0].Step)
	assert.Equal(t, "o1", failures[0].RecordID)
	assert.Equal(t, "attempt-1", failures[0].AttemptID)

	// a second call has nothing left to undo
	assert.Same(t, cause, comp.compensate(context.Background(), cause))
}

func TestCompensationLog_DetachedFromCancelledContext(t *testing.T) {
	coord := newCompensationCoordinator(nil, nil, time.Second)
	comp := coord.begin("attempt-2", domain.NewCaller("user-1"))

	var sawErr error
	comp.record(stepOrderHeader, "o1", func(ctx context.Context) error {
		sawErr = ctx.Err()
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "undo runs under the compensation timeout")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cause := context.Canceled
	err := comp.compensate(ctx, cause)

	assert.NoError(t, sawErr)
	assert.Same(t, cause, err)
}

func TestCompensationLog_RecorderFailureDoesNotHideCompensationError(t *testing.T) {
	store := memory.NewStore()
	store.FailNext(memory.OpRecordFailure, errors.New("reconciliation table missing"))
	comp := newCompensationCoordinator(store, nil, 0).begin("attempt-3", domain.NewCaller("user-1"))
	comp.record(stepLedgerEntry, "k1", func(context.Context) error { return errors.New("cannot delete") })

	err := comp.compensate(context.Background(), errors.New("cause"))

	var compErr *apperrors.CompensationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, "k1", compErr.RecordID)
}
