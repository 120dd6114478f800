// Package audit emits structured one-line audit records for every ledger
// mutation, so the payment history of an event can be reconstructed from
// the log stream alone.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Generation    int       `json:"generation"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) LogSplit(action, eventID string, generation int, participants int, total int64) {
	l.log(Record{
		Timestamp:  time.Now(),
		Action:     action,
		EventID:    eventID,
		Generation: generation,
		Amount:     total,
		Status:     "SUCCESS",
		Details:    map[string]int{"participants": participants},
	})
}

func (l *Logger) LogTransition(action, eventID, participantID string, generation int, amount int64, state string) {
	l.log(Record{
		Timestamp:     time.Now(),
		Action:        action,
		EventID:       eventID,
		ParticipantID: participantID,
		Generation:    generation,
		Amount:        amount,
		Status:        state,
	})
}

func (l *Logger) LogError(action, eventID, participantID string, err error) {
	l.log(Record{
		Timestamp:     time.Now(),
		Action:        action,
		EventID:       eventID,
		ParticipantID: participantID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

func (l *Logger) log(r Record) {
	r.ID = uuid.NewString()
	data, _ := json.Marshal(r)
	log.Printf("AUDIT: %s", string(data))
}
