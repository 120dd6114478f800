package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/schoolhub/backend/internal/models"
	"github.com/schoolhub/backend/internal/pix"
	"github.com/schoolhub/backend/internal/services"
)

type PixHandler struct {
	service   *services.PixService
	validator *services.ValidationHelper
}

func NewPixHandler(service *services.PixService) *PixHandler {
	return &PixHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateCode produces a BR Code payload and its QR image for an event's
// PIX identity. Amount is in minor units; zero yields a static code.
func (h *PixHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PixKey     string `json:"pixKey" validate:"required,max=100"`
		HolderName string `json:"holderName" validate:"required,max=100"`
		City       string `json:"city" validate:"required,max=100"`
		Amount     int64  `json:"amount" validate:"gte=0"`
		TxRef      string `json:"txRef,omitempty"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	amount, err := models.NewMoney(req.Amount, models.DefaultCurrency)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	identity := models.PixIdentity{Key: req.PixKey, HolderName: req.HolderName, City: req.City}
	code, err := h.service.GenerateCode(identity, amount, req.TxRef)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pix.ErrFieldLengthExceeded) || errors.Is(err, pix.ErrMalformedPayload) {
			status = http.StatusBadRequest
		}
		services.SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	image, err := h.service.GenerateQRImage(r.Context(), code)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"code":    code,
		"qrImage": image,
	})
}

// DecodeCode validates an externally supplied BR Code and returns its
// fields.
func (h *PixHandler) DecodeCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payload, err := pix.Decode(req.Code)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"payload": map[string]string{
			"pixKey":       payload.Key,
			"merchantName": payload.MerchantName,
			"merchantCity": payload.MerchantCity,
			"amount":       payload.Amount,
			"txId":         payload.TxID,
			"description":  payload.Description,
		},
	})
}
