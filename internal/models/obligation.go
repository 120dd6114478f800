package models

import (
	"errors"
	"fmt"
	"time"
)

// ObligationState is the monetary lifecycle of an obligation.
type ObligationState string

const (
	StatePending     ObligationState = "PENDING"
	StateUnderReview ObligationState = "UNDER_REVIEW"
	StatePaid        ObligationState = "PAID"
	StateRejected    ObligationState = "REJECTED"
)

var ErrIllegalTransition = errors.New("illegal state transition")

// Receipt is a self-reported payment proof. The Ref points into the
// receipt-storage subsystem; this core never reads the file behind it.
type Receipt struct {
	Ref            string    `json:"ref" db:"receipt_ref"`
	ReportedAmount Money     `json:"reported_amount"`
	SubmittedAt    time.Time `json:"submitted_at" db:"submitted_at"`
}

// Obligation is one participant's share of one event generation.
// Monetary transitions go through SubmitReceipt/Confirm/Reject; zero-amount
// obligations (SharedItems responsibilities) use the independent item flag
// instead and reject the monetary transitions outright.
type Obligation struct {
	EventID       string          `json:"event_id" db:"event_id"`
	Generation    int             `json:"generation" db:"generation"`
	ParticipantID string          `json:"participant_id" db:"participant_id"`
	Amount        Money           `json:"amount"`
	State         ObligationState `json:"state" db:"state"`
	Receipt       *Receipt        `json:"receipt,omitempty"`
	RejectReason  string          `json:"reject_reason,omitempty" db:"reject_reason"`
	ItemBrought   bool            `json:"item_brought" db:"item_brought"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty" db:"confirmed_at"`
	Superseded    bool            `json:"superseded" db:"superseded"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Monetary reports whether the payment state machine applies.
func (o *Obligation) Monetary() bool {
	return !o.Amount.IsZero()
}

// SubmitReceipt records a reported payment and moves the obligation to
// UnderReview. Legal from Pending, Rejected and UnderReview; a resubmission
// overwrites the pending receipt reference.
func (o *Obligation) SubmitReceipt(reported Money, receiptRef string, now time.Time) error {
	if !o.Monetary() {
		return fmt.Errorf("%w: obligation %s carries no amount", ErrIllegalTransition, o.ParticipantID)
	}
	switch o.State {
	case StatePending, StateRejected, StateUnderReview:
	default:
		return fmt.Errorf("%w: submit receipt from %s", ErrIllegalTransition, o.State)
	}

	o.Receipt = &Receipt{Ref: receiptRef, ReportedAmount: reported, SubmittedAt: now}
	o.State = StateUnderReview
	o.RejectReason = ""
	return nil
}

// Confirm reviews the pending receipt. A reported amount covering the owed
// amount moves the obligation to Paid; a shortfall moves it to Rejected and
// the missing amount is returned so the caller can surface it.
func (o *Obligation) Confirm(now time.Time) (shortfall Money, err error) {
	if !o.Monetary() {
		return Money{}, fmt.Errorf("%w: obligation %s carries no amount", ErrIllegalTransition, o.ParticipantID)
	}
	if o.State != StateUnderReview {
		return Money{}, fmt.Errorf("%w: confirm from %s", ErrIllegalTransition, o.State)
	}

	covered, err := o.Receipt.ReportedAmount.GreaterOrEqual(o.Amount)
	if err != nil {
		return Money{}, err
	}
	if covered {
		o.State = StatePaid
		o.ConfirmedAt = &now
		return Zero(o.Amount.Currency), nil
	}

	shortfall, err = o.Amount.Sub(o.Receipt.ReportedAmount)
	if err != nil {
		return Money{}, err
	}
	o.State = StateRejected
	o.RejectReason = fmt.Sprintf("reported amount short by %s", shortfall)
	return shortfall, nil
}

// Reject forces the obligation to Rejected regardless of the reported
// amount. Covers duplicate or fraudulent receipts.
func (o *Obligation) Reject(reason string) error {
	if !o.Monetary() {
		return fmt.Errorf("%w: obligation %s carries no amount", ErrIllegalTransition, o.ParticipantID)
	}
	if o.State != StateUnderReview {
		return fmt.Errorf("%w: reject from %s", ErrIllegalTransition, o.State)
	}
	o.State = StateRejected
	o.RejectReason = reason
	return nil
}

// MarkItemBrought flips the item flag. The item lifecycle is independent of
// the monetary one, so this is legal in any state.
func (o *Obligation) MarkItemBrought() {
	o.ItemBrought = true
}

// ResetItem clears the item flag.
func (o *Obligation) ResetItem() {
	o.ItemBrought = false
}
