package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/schoolhub/backend/internal/models"
)

// ObligationStore persists obligation generations to Postgres. It is the
// ledger's boundary collaborator: the ledger calls it inside its per-event
// critical section and propagates its errors unchanged.
type ObligationStore struct {
	db *sql.DB
}

func NewObligationStore(db *sql.DB) *ObligationStore {
	return &ObligationStore{db: db}
}

// SaveGeneration inserts a whole generation in one transaction so a partial
// write can never become visible.
func (s *ObligationStore) SaveGeneration(ctx context.Context, eventID string, generation int, obligations []models.Obligation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range obligations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO obligations (event_id, generation, participant_id, amount, currency, state, superseded, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			eventID, generation, o.ParticipantID, o.Amount.Amount, o.Amount.Currency, string(o.State), o.Superseded, o.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ArchiveGeneration flags every obligation of a generation as superseded,
// leaving states untouched.
func (s *ObligationStore) ArchiveGeneration(ctx context.Context, eventID string, generation int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE obligations
		SET superseded = true, updated_at = $1
		WHERE event_id = $2 AND generation = $3`,
		time.Now(), eventID, generation)
	return err
}

// UpdateObligation writes back the state-machine fields of one obligation.
func (s *ObligationStore) UpdateObligation(ctx context.Context, o models.Obligation) error {
	var receiptRef sql.NullString
	var reportedAmount sql.NullInt64
	if o.Receipt != nil {
		receiptRef = sql.NullString{String: o.Receipt.Ref, Valid: true}
		reportedAmount = sql.NullInt64{Int64: o.Receipt.ReportedAmount.Amount, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE obligations
		SET state = $1, receipt_ref = $2, reported_amount = $3, reject_reason = $4, item_brought = $5, confirmed_at = $6, updated_at = $7
		WHERE event_id = $8 AND generation = $9 AND participant_id = $10`,
		string(o.State), receiptRef, reportedAmount, o.RejectReason, o.ItemBrought, o.ConfirmedAt, time.Now(),
		o.EventID, o.Generation, o.ParticipantID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("obligation not found: event %s generation %d participant %s", o.EventID, o.Generation, o.ParticipantID)
	}
	return nil
}
