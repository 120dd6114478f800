package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/schoolhub/backend/internal/audit"
	"github.com/schoolhub/backend/internal/models"
)

var (
	ErrEventNotFound        = errors.New("event has no recorded obligations")
	ErrObligationNotFound   = errors.New("participant has no obligation in the current generation")
	ErrEventAlreadyRecorded = errors.New("event already has obligations, use Recompute")
)

// ObligationStore is the persistence collaborator invoked at the ledger
// boundary. Its errors propagate to the caller unchanged; when a store call
// fails the in-memory state is left untouched. A nil store disables
// persistence entirely.
type ObligationStore interface {
	SaveGeneration(ctx context.Context, eventID string, generation int, obligations []models.Obligation) error
	ArchiveGeneration(ctx context.Context, eventID string, generation int) error
	UpdateObligation(ctx context.Context, o models.Obligation) error
}

// eventLedger holds every generation of one event's obligations. All access
// goes through its mutex, giving each event single-writer discipline.
type eventLedger struct {
	mu         sync.Mutex
	generation int
	current    []*models.Obligation
	archived   []*models.Obligation
}

// LedgerService owns the obligations of every event and serializes all
// state transitions per event. Reads always see a whole generation, never
// one torn across a recompute.
type LedgerService struct {
	mu     sync.Mutex
	events map[string]*eventLedger
	store  ObligationStore
	audit  *audit.Logger
}

func NewLedgerService(store ObligationStore) *LedgerService {
	return &LedgerService{
		events: make(map[string]*eventLedger),
		store:  store,
		audit:  audit.NewLogger(),
	}
}

func (s *LedgerService) ledgerFor(eventID string, create bool) *eventLedger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.events[eventID]
	if !ok && create {
		l = &eventLedger{}
		s.events[eventID] = l
	}
	return l
}

func buildGeneration(eventID string, generation int, participantIDs []string, budget models.Money, now time.Time) ([]*models.Obligation, error) {
	shares, err := SplitBudget(budget, participantIDs)
	if err != nil {
		return nil, err
	}
	obligations := make([]*models.Obligation, 0, len(shares))
	for _, share := range shares {
		obligations = append(obligations, &models.Obligation{
			EventID:       eventID,
			Generation:    generation,
			ParticipantID: share.ParticipantID,
			Amount:        share.Amount,
			State:         models.StatePending,
			CreatedAt:     now,
		})
	}
	return obligations, nil
}

func snapshotObligations(src []*models.Obligation) []models.Obligation {
	out := make([]models.Obligation, len(src))
	for i, o := range src {
		out[i] = *o
		if o.Receipt != nil {
			r := *o.Receipt
			out[i].Receipt = &r
		}
		if o.ConfirmedAt != nil {
			t := *o.ConfirmedAt
			out[i].ConfirmedAt = &t
		}
	}
	return out
}

// Record computes the first split for an event and stores generation 1 of
// Pending obligations. An event that already has obligations must go
// through Recompute instead.
func (s *LedgerService) Record(ctx context.Context, eventID string, participantIDs []string, budget models.Money) ([]models.Obligation, error) {
	l := s.ledgerFor(eventID, true)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation != 0 {
		return nil, fmt.Errorf("%w: %s at generation %d", ErrEventAlreadyRecorded, eventID, l.generation)
	}

	obligations, err := buildGeneration(eventID, 1, participantIDs, budget, time.Now())
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveGeneration(ctx, eventID, 1, snapshotObligations(obligations)); err != nil {
			s.audit.LogError("RECORD", eventID, "", err)
			return nil, err
		}
	}

	l.generation = 1
	l.current = obligations
	s.audit.LogSplit("RECORD", eventID, 1, len(obligations), budget.Amount)
	return snapshotObligations(obligations), nil
}

// Recompute archives the current generation wholesale (states preserved,
// superseded flag set) and publishes a fresh Pending generation as one
// visible step. It is not idempotent; callers invoke it only on real
// composition changes.
func (s *LedgerService) Recompute(ctx context.Context, eventID string, participantIDs []string, budget models.Money) ([]models.Obligation, error) {
	l := s.ledgerFor(eventID, false)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	next := l.generation + 1
	obligations, err := buildGeneration(eventID, next, participantIDs, budget, time.Now())
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.ArchiveGeneration(ctx, eventID, l.generation); err != nil {
			s.audit.LogError("RECOMPUTE", eventID, "", err)
			return nil, err
		}
		if err := s.store.SaveGeneration(ctx, eventID, next, snapshotObligations(obligations)); err != nil {
			s.audit.LogError("RECOMPUTE", eventID, "", err)
			return nil, err
		}
	}

	for _, o := range l.current {
		o.Superseded = true
	}
	l.archived = append(l.archived, l.current...)
	l.current = obligations
	l.generation = next
	s.audit.LogSplit("RECOMPUTE", eventID, next, len(obligations), budget.Amount)
	return snapshotObligations(obligations), nil
}

// Get returns copies of the current-generation obligations together with a
// freshly computed snapshot.
func (s *LedgerService) Get(eventID string) ([]models.Obligation, Snapshot, error) {
	l := s.ledgerFor(eventID, false)
	if l == nil {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation == 0 {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	obligations := snapshotObligations(l.current)
	return obligations, Summarize(obligations), nil
}

// Archived returns copies of all superseded obligations, oldest generation
// first. Their terminal states are preserved for audit.
func (s *LedgerService) Archived(eventID string) ([]models.Obligation, error) {
	l := s.ledgerFor(eventID, false)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return snapshotObligations(l.archived), nil
}

// mutate runs fn on the participant's current obligation under the event
// lock and persists the result through the store on success.
func (s *LedgerService) mutate(ctx context.Context, action, eventID, participantID string, fn func(*models.Obligation) error) (models.Obligation, error) {
	l := s.ledgerFor(eventID, false)
	if l == nil {
		return models.Obligation{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation == 0 {
		return models.Obligation{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	var target *models.Obligation
	for _, o := range l.current {
		if o.ParticipantID == participantID {
			target = o
			break
		}
	}
	if target == nil {
		return models.Obligation{}, fmt.Errorf("%w: %s in event %s", ErrObligationNotFound, participantID, eventID)
	}

	// Transition on a copy first so a failed store call leaves no trace.
	next := *target
	if target.Receipt != nil {
		r := *target.Receipt
		next.Receipt = &r
	}
	if err := fn(&next); err != nil {
		s.audit.LogError(action, eventID, participantID, err)
		return models.Obligation{}, err
	}

	if s.store != nil {
		if err := s.store.UpdateObligation(ctx, next); err != nil {
			s.audit.LogError(action, eventID, participantID, err)
			return models.Obligation{}, err
		}
	}

	*target = next
	s.audit.LogTransition(action, eventID, participantID, target.Generation, target.Amount.Amount, string(target.State))
	return next, nil
}

// SubmitReceipt records a reported payment for review.
func (s *LedgerService) SubmitReceipt(ctx context.Context, eventID, participantID string, reported models.Money, receiptRef string) (models.Obligation, error) {
	return s.mutate(ctx, "SUBMIT_RECEIPT", eventID, participantID, func(o *models.Obligation) error {
		return o.SubmitReceipt(reported, receiptRef, time.Now())
	})
}

// Confirm reviews the pending receipt; on a shortfall the obligation moves
// to Rejected and the missing amount is returned alongside it.
func (s *LedgerService) Confirm(ctx context.Context, eventID, participantID string) (models.Obligation, models.Money, error) {
	var shortfall models.Money
	o, err := s.mutate(ctx, "CONFIRM", eventID, participantID, func(o *models.Obligation) error {
		var err error
		shortfall, err = o.Confirm(time.Now())
		return err
	})
	if err != nil {
		return models.Obligation{}, models.Money{}, err
	}
	return o, shortfall, nil
}

// Reject forces the obligation under review to Rejected.
func (s *LedgerService) Reject(ctx context.Context, eventID, participantID, reason string) (models.Obligation, error) {
	return s.mutate(ctx, "REJECT", eventID, participantID, func(o *models.Obligation) error {
		return o.Reject(reason)
	})
}

// MarkItemBrought flips the shared-items flag, independent of the monetary
// states.
func (s *LedgerService) MarkItemBrought(ctx context.Context, eventID, participantID string) (models.Obligation, error) {
	return s.mutate(ctx, "ITEM_BROUGHT", eventID, participantID, func(o *models.Obligation) error {
		o.MarkItemBrought()
		return nil
	})
}
