package models

import (
	"errors"
	"fmt"
	"time"
)

// EventKind selects which sub-lifecycles an event carries: the monetary
// state machine, the item-brought flag, or both.
type EventKind string

const (
	KindCollection  EventKind = "COLLECTION"
	KindSharedItems EventKind = "SHARED_ITEMS"
	KindMixed       EventKind = "MIXED"
)

var ErrBudgetKindMismatch = errors.New("budget must be set iff the event collects money")

// PixIdentity is the receiving side of a PIX payment instruction.
type PixIdentity struct {
	Key        string `json:"pix_key" db:"pix_key" validate:"required,max=77"`
	HolderName string `json:"holder_name" db:"pix_holder_name" validate:"required,max=100"`
	City       string `json:"city" db:"pix_city" validate:"required,max=100"`
}

// Event represents a school event whose budget is collected from the
// class's guardians. The event exclusively owns its obligations; guardians
// and receipts are referenced by opaque ids managed elsewhere.
type Event struct {
	ID        string       `json:"id" db:"id"`
	Title     string       `json:"title" db:"title"`
	Kind      EventKind    `json:"kind" db:"kind"`
	EventDate time.Time    `json:"event_date" db:"event_date"`
	Budget    *Money       `json:"budget,omitempty" db:"budget"`
	Pix       *PixIdentity `json:"pix,omitempty"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty" db:"closed_at"`
}

// NewEvent enforces the budget/kind invariant: Collection and Mixed events
// carry a budget, SharedItems events must not.
func NewEvent(id, title string, kind EventKind, date time.Time, budget *Money, pix *PixIdentity) (*Event, error) {
	switch kind {
	case KindCollection, KindMixed:
		if budget == nil {
			return nil, fmt.Errorf("%w: %s event without budget", ErrBudgetKindMismatch, kind)
		}
	case KindSharedItems:
		if budget != nil {
			return nil, fmt.Errorf("%w: %s event with budget", ErrBudgetKindMismatch, kind)
		}
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}

	return &Event{
		ID:        id,
		Title:     title,
		Kind:      kind,
		EventDate: date,
		Budget:    budget,
		Pix:       pix,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}

// CollectsMoney reports whether the monetary lifecycle applies.
func (e *Event) CollectsMoney() bool {
	return e.Kind == KindCollection || e.Kind == KindMixed
}

// HasSharedItems reports whether the item-brought lifecycle applies.
func (e *Event) HasSharedItems() bool {
	return e.Kind == KindSharedItems || e.Kind == KindMixed
}

// Close deactivates the event and stamps the closing time.
func (e *Event) Close() {
	now := time.Now()
	e.IsActive = false
	e.ClosedAt = &now
}
