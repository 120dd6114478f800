package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/schoolhub/backend/internal/models"
)

func obligationIn(state models.ObligationState, amount int64, confirmedAt *time.Time) models.Obligation {
	return models.Obligation{
		EventID:       "evt1",
		Generation:    1,
		ParticipantID: "g",
		Amount:        models.MustMoney(amount, "BRL"),
		State:         state,
		ConfirmedAt:   confirmedAt,
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()

	t.Run("mixed states", func(t *testing.T) {
		snap := Summarize([]models.Obligation{
			obligationIn(models.StatePaid, 334, &now),
			obligationIn(models.StatePending, 333, nil),
			obligationIn(models.StateUnderReview, 333, nil),
		})

		assert.Equal(t, int64(334), snap.TotalCollected.Amount)
		assert.Equal(t, int64(666), snap.TotalOutstanding.Amount)
		assert.Equal(t, 3, snap.Participants)
		assert.Equal(t, 1, snap.Counts[models.StatePaid])
		assert.Equal(t, 1, snap.Counts[models.StatePending])
		assert.Equal(t, 1, snap.Counts[models.StateUnderReview])
		assert.Equal(t, 33, snap.PercentComplete)
	})

	t.Run("everything paid", func(t *testing.T) {
		snap := Summarize([]models.Obligation{
			obligationIn(models.StatePaid, 500, &now),
			obligationIn(models.StatePaid, 500, &now),
		})
		assert.Equal(t, 100, snap.PercentComplete)
		assert.Equal(t, int64(0), snap.TotalOutstanding.Amount)
	})

	t.Run("no obligations", func(t *testing.T) {
		snap := Summarize(nil)
		assert.Equal(t, 0, snap.Participants)
		assert.Equal(t, 0, snap.PercentComplete)
	})

	t.Run("all-zero shared items event", func(t *testing.T) {
		snap := Summarize([]models.Obligation{
			obligationIn(models.StatePending, 0, nil),
			obligationIn(models.StatePending, 0, nil),
		})
		assert.Equal(t, 0, snap.PercentComplete)
		assert.Equal(t, 2, snap.Counts[models.StatePending])
	})
}

func TestMonthlyCollected(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 3, 9, 0, 0, 0, time.UTC)
	febLate := time.Date(2026, time.February, 27, 20, 0, 0, 0, time.UTC)

	t.Run("groups paid amounts by confirmation month", func(t *testing.T) {
		totals := MonthlyCollected([]models.Obligation{
			obligationIn(models.StatePaid, 200, &feb),
			obligationIn(models.StatePaid, 100, &jan),
			obligationIn(models.StatePaid, 300, &febLate),
			obligationIn(models.StatePending, 999, nil),
		})

		assert.Len(t, totals, 2)
		assert.Equal(t, "Jan/26", totals[0].Label)
		assert.Equal(t, int64(100), totals[0].Total.Amount)
		assert.Equal(t, "Feb/26", totals[1].Label)
		assert.Equal(t, int64(500), totals[1].Total.Amount)
	})

	t.Run("no paid obligations", func(t *testing.T) {
		totals := MonthlyCollected([]models.Obligation{
			obligationIn(models.StatePending, 100, nil),
		})
		assert.Empty(t, totals)
	})
}
