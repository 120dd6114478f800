package services

import (
	"errors"
	"fmt"

	"github.com/schoolhub/backend/internal/models"
)

var ErrInvalidParticipantCount = errors.New("participant count must be at least one")

// Share is one participant's slice of an event budget.
type Share struct {
	ParticipantID string       `json:"participant_id"`
	Amount        models.Money `json:"amount"`
}

// SplitBudget divides a budget across participants without losing a single
// minor unit: everyone gets the integer base share and the remainder is
// handed out one unit at a time to the first participants in input order.
// The returned shares always sum exactly to the budget.
func SplitBudget(total models.Money, participantIDs []string) ([]Share, error) {
	n := int64(len(participantIDs))
	if n == 0 {
		return nil, fmt.Errorf("%w: got zero", ErrInvalidParticipantCount)
	}

	base := total.Amount / n
	remainder := total.Amount % n

	shares := make([]Share, 0, n)
	for i, id := range participantIDs {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares = append(shares, Share{
			ParticipantID: id,
			Amount:        models.Money{Amount: amount, Currency: total.Currency},
		})
	}
	return shares, nil
}
