package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolhub/backend/internal/models"
	"github.com/schoolhub/backend/internal/services"
)

// EventHandler exposes the obligation ledger over HTTP. It owns no state of
// its own; all serialization happens inside the ledger service.
type EventHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewEventHandler(ledger *services.LedgerService) *EventHandler {
	return &EventHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func ledgerErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrEventNotFound), errors.Is(err, services.ErrObligationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIllegalTransition),
		errors.Is(err, services.ErrEventAlreadyRecorded),
		errors.Is(err, services.ErrInvalidParticipantCount),
		errors.Is(err, models.ErrCurrencyMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type splitRequest struct {
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,dive,required"`
	Budget         int64    `json:"budget" validate:"gte=0"`
	Currency       string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Recompute      bool     `json:"recompute"`
}

// RecordSplit computes an event's split and stores the resulting
// obligations. With recompute=true the existing generation is archived and
// replaced.
func (h *EventHandler) RecordSplit(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req splitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	budget, err := models.NewMoney(req.Budget, req.Currency)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var obligations []models.Obligation
	if req.Recompute {
		obligations, err = h.ledger.Recompute(r.Context(), eventID, req.ParticipantIDs, budget)
	} else {
		obligations, err = h.ledger.Record(r.Context(), eventID, req.ParticipantIDs, budget)
	}
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"obligations": obligations,
	})
}

// GetSummary returns the current obligations, the derived snapshot and the
// monthly collection rollup.
func (h *EventHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	obligations, snapshot, err := h.ledger.Get(eventID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"obligations": obligations,
		"snapshot":    snapshot,
		"monthly":     services.MonthlyCollected(obligations),
	})
}

// SubmitReceipt records a guardian's self-reported payment for review.
func (h *EventHandler) SubmitReceipt(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	participantID := chi.URLParam(r, "participantID")

	var req struct {
		ReportedAmount int64  `json:"reportedAmount" validate:"required,gt=0"`
		Currency       string `json:"currency,omitempty" validate:"omitempty,len=3"`
		ReceiptRef     string `json:"receiptRef" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	reported, err := models.NewMoney(req.ReportedAmount, req.Currency)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	obligation, err := h.ledger.SubmitReceipt(r.Context(), eventID, participantID, reported, req.ReceiptRef)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"obligation": obligation,
	})
}

// ConfirmPayment reviews the pending receipt. A shortfall rejects the
// obligation and is reported back in minor units.
func (h *EventHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	participantID := chi.URLParam(r, "participantID")

	obligation, shortfall, err := h.ledger.Confirm(r.Context(), eventID, participantID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    obligation.State == models.StatePaid,
		"obligation": obligation,
		"shortfall":  shortfall.Amount,
	})
}

// RejectPayment forces the receipt under review to Rejected.
func (h *EventHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	participantID := chi.URLParam(r, "participantID")

	var req struct {
		Reason string `json:"reason" validate:"required,max=200"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	obligation, err := h.ledger.Reject(r.Context(), eventID, participantID, req.Reason)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"obligation": obligation,
	})
}

// MarkItem flips the item-brought flag for shared-items events.
func (h *EventHandler) MarkItem(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	participantID := chi.URLParam(r, "participantID")

	obligation, err := h.ledger.MarkItemBrought(r.Context(), eventID, participantID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"obligation": obligation,
	})
}

// GetArchive returns superseded obligations for audit.
func (h *EventHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	archived, err := h.ledger.Archived(eventID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), ledgerErrorStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"archived": archived,
	})
}
