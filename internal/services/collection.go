package services

import (
	"sort"
	"time"

	"github.com/schoolhub/backend/internal/models"
)

// Snapshot is a read-only projection over one generation of obligations.
// It is recomputed on every call; no aggregate is ever cached.
type Snapshot struct {
	TotalCollected   models.Money                    `json:"total_collected"`
	TotalOutstanding models.Money                    `json:"total_outstanding"`
	Counts           map[models.ObligationState]int  `json:"counts"`
	Participants     int                             `json:"participants"`
	PercentComplete  int                             `json:"percent_complete"`
}

// Summarize rolls up the current generation: sum of Paid amounts, sum of
// everything not yet Paid, per-state counts and an integer completion
// percentage (capped at 100).
func Summarize(obligations []models.Obligation) Snapshot {
	currency := models.DefaultCurrency
	if len(obligations) > 0 {
		currency = obligations[0].Amount.Currency
	}

	snap := Snapshot{
		TotalCollected:   models.Zero(currency),
		TotalOutstanding: models.Zero(currency),
		Counts:           make(map[models.ObligationState]int),
		Participants:     len(obligations),
	}

	for _, o := range obligations {
		snap.Counts[o.State]++
		if o.State == models.StatePaid {
			snap.TotalCollected.Amount += o.Amount.Amount
		} else {
			snap.TotalOutstanding.Amount += o.Amount.Amount
		}
	}

	target := snap.TotalCollected.Amount + snap.TotalOutstanding.Amount
	if target > 0 {
		pct := int(snap.TotalCollected.Amount * 100 / target)
		if pct > 100 {
			pct = 100
		}
		snap.PercentComplete = pct
	}
	return snap
}

// MonthlyTotal is one bar of the dashboard expense chart.
type MonthlyTotal struct {
	Label string       `json:"label"` // "Jan/06" format
	Total models.Money `json:"total"`
}

// MonthlyCollected groups Paid amounts by confirmation month, oldest first,
// keeping at most the latest twelve months.
func MonthlyCollected(obligations []models.Obligation) []MonthlyTotal {
	byMonth := make(map[time.Time]int64)
	currency := models.DefaultCurrency
	for _, o := range obligations {
		if o.State != models.StatePaid || o.ConfirmedAt == nil {
			continue
		}
		currency = o.Amount.Currency
		month := time.Date(o.ConfirmedAt.Year(), o.ConfirmedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month] += o.Amount.Amount
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	if len(months) > 12 {
		months = months[len(months)-12:]
	}

	totals := make([]MonthlyTotal, 0, len(months))
	for _, m := range months {
		totals = append(totals, MonthlyTotal{
			Label: m.Format("Jan/06"),
			Total: models.Money{Amount: byMonth[m], Currency: currency},
		})
	}
	return totals
}
