package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/backend/internal/models"
)

func newTestLedger(t *testing.T, eventID string, budget int64, n int) *LedgerService {
	t.Helper()
	svc := NewLedgerService(nil)
	_, err := svc.Record(context.Background(), eventID, participants(n), models.MustMoney(budget, "BRL"))
	require.NoError(t, err)
	return svc
}

func TestLedgerService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a pending generation summing to the budget", func(t *testing.T) {
		svc := NewLedgerService(nil)
		obligations, err := svc.Record(ctx, "evt1", participants(3), models.MustMoney(1000, "BRL"))
		require.NoError(t, err)
		require.Len(t, obligations, 3)

		var sum int64
		for _, o := range obligations {
			assert.Equal(t, models.StatePending, o.State)
			assert.Equal(t, 1, o.Generation)
			sum += o.Amount.Amount
		}
		assert.Equal(t, int64(1000), sum)
	})

	t.Run("double record is rejected", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1000, 3)
		_, err := svc.Record(ctx, "evt1", participants(3), models.MustMoney(1000, "BRL"))
		assert.ErrorIs(t, err, ErrEventAlreadyRecorded)
	})

	t.Run("zero participants", func(t *testing.T) {
		svc := NewLedgerService(nil)
		_, err := svc.Record(ctx, "evt1", nil, models.MustMoney(1000, "BRL"))
		assert.ErrorIs(t, err, ErrInvalidParticipantCount)
	})
}

func TestLedgerService_ReceiptFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("submit, confirm, paid", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1500, 3)

		o, err := svc.SubmitReceipt(ctx, "evt1", "guardian1", models.MustMoney(500, "BRL"), "receipts/a.pdf")
		require.NoError(t, err)
		assert.Equal(t, models.StateUnderReview, o.State)

		o, shortfall, err := svc.Confirm(ctx, "evt1", "guardian1")
		require.NoError(t, err)
		assert.Equal(t, models.StatePaid, o.State)
		assert.True(t, shortfall.IsZero())
	})

	t.Run("shortfall rejects and is reported", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1500, 3)

		_, err := svc.SubmitReceipt(ctx, "evt1", "guardian1", models.MustMoney(400, "BRL"), "receipts/a.pdf")
		require.NoError(t, err)

		o, shortfall, err := svc.Confirm(ctx, "evt1", "guardian1")
		require.NoError(t, err)
		assert.Equal(t, models.StateRejected, o.State)
		assert.Equal(t, int64(100), shortfall.Amount)
	})

	t.Run("confirm without receipt is illegal", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1500, 3)
		_, _, err := svc.Confirm(ctx, "evt1", "guardian1")
		assert.ErrorIs(t, err, models.ErrIllegalTransition)
	})

	t.Run("failed transition leaves state untouched", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1500, 3)
		_, _, err := svc.Confirm(ctx, "evt1", "guardian1")
		require.Error(t, err)

		obligations, _, err := svc.Get("evt1")
		require.NoError(t, err)
		assert.Equal(t, models.StatePending, obligations[0].State)
	})

	t.Run("unknown event and participant", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1500, 3)

		_, err := svc.SubmitReceipt(ctx, "nope", "guardian1", models.MustMoney(1, "BRL"), "r")
		assert.ErrorIs(t, err, ErrEventNotFound)

		_, err = svc.SubmitReceipt(ctx, "evt1", "stranger", models.MustMoney(1, "BRL"), "r")
		assert.ErrorIs(t, err, ErrObligationNotFound)
	})
}

func TestLedgerService_Recompute(t *testing.T) {
	ctx := context.Background()

	t.Run("archives paid obligations unchanged", func(t *testing.T) {
		svc := newTestLedger(t, "evt1", 1000, 2)

		_, err := svc.SubmitReceipt(ctx, "evt1", "guardian1", models.MustMoney(500, "BRL"), "receipts/a.pdf")
		require.NoError(t, err)
		_, _, err = svc.Confirm(ctx, "evt1", "guardian1")
		require.NoError(t, err)

		// A third guardian joins the class.
		obligations, err := svc.Recompute(ctx, "evt1", participants(3), models.MustMoney(1000, "BRL"))
		require.NoError(t, err)
		require.Len(t, obligations, 3)
		for _, o := range obligations {
			assert.Equal(t, models.StatePending, o.State)
			assert.Equal(t, 2, o.Generation)
			assert.False(t, o.Superseded)
		}

		archived, err := svc.Archived("evt1")
		require.NoError(t, err)
		require.Len(t, archived, 2)
		assert.Equal(t, models.StatePaid, archived[0].State)
		assert.True(t, archived[0].Superseded)
		assert.Equal(t, 1, archived[0].Generation)
	})

	t.Run("recompute before record fails", func(t *testing.T) {
		svc := NewLedgerService(nil)
		_, err := svc.Recompute(ctx, "evt1", participants(3), models.MustMoney(1000, "BRL"))
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

// failingStore rejects every call, to prove store failures leave the
// in-memory ledger untouched.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) SaveGeneration(context.Context, string, int, []models.Obligation) error {
	return errStore
}
func (failingStore) ArchiveGeneration(context.Context, string, int) error { return errStore }
func (failingStore) UpdateObligation(context.Context, models.Obligation) error {
	return errStore
}

func TestLedgerService_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("record propagates store errors unchanged", func(t *testing.T) {
		svc := NewLedgerService(failingStore{})
		_, err := svc.Record(ctx, "evt1", participants(2), models.MustMoney(100, "BRL"))
		assert.ErrorIs(t, err, errStore)

		_, _, err = svc.Get("evt1")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestLedgerService_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestLedger(t, "evt1", 10000, 20)

	// Hammer transitions on every participant from parallel goroutines; the
	// per-event lock must keep each obligation's history coherent.
	var wg sync.WaitGroup
	for _, id := range participants(20) {
		wg.Add(1)
		go func(participantID string) {
			defer wg.Done()
			_, err := svc.SubmitReceipt(ctx, "evt1", participantID, models.MustMoney(500, "BRL"), "r")
			assert.NoError(t, err)
			_, _, err = svc.Confirm(ctx, "evt1", participantID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	obligations, snapshot, err := svc.Get("evt1")
	require.NoError(t, err)
	assert.Equal(t, 20, snapshot.Counts[models.StatePaid])
	assert.Equal(t, int64(10000), snapshot.TotalCollected.Amount)
	for _, o := range obligations {
		assert.Equal(t, models.StatePaid, o.State)
	}
}
