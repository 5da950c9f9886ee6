package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jioearn/backend/internal/middleware"
	"github.com/jioearn/backend/internal/models"
)

// ActivationService exposes the activation request lifecycle over HTTP.
type ActivationService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

func NewActivationService(db *sql.DB, ledger *LedgerService) *ActivationService {
	return &ActivationService{
		db:        db,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

// PaymentInfo returns the activation fee and the wallet numbers that
// receive it
// @Summary Activation payment info
// @Description Fee amount and receiving wallet numbers for the activation payment
// @Tags activations
// @Produce json
// @Security BearerAuth
// @Param method query string false "Payment method (BKASH or NAGAD)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Router /activations/payment-info [get]
func (s *ActivationService) PaymentInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if method := r.URL.Query().Get("method"); method != "" {
		number := s.ledger.cfg.ReceivingNumber(method)
		if number == "" {
			SendServiceError(w, ErrInvalidMethod)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"activationFee":   s.ledger.cfg.ActivationFee,
			"method":          method,
			"receivingNumber": number,
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"activationFee": s.ledger.cfg.ActivationFee,
		"bkashNumber":   s.ledger.cfg.BkashNumber,
		"nagadNumber":   s.ledger.cfg.NagadNumber,
	})
}

// Submit files an activation request with payment proof
// @Summary Submit activation request
// @Description Submit payment proof for the one-time activation fee
// @Tags activations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{method=string,transactionId=string} true "Activation payment proof"
// @Success 201 {object} models.ActivationRequest
// @Failure 400 {object} ErrorResponse
// @Router /activations [post]
func (s *ActivationService) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Method        string `json:"method" validate:"required,oneof=BKASH NAGAD"`
		TransactionID string `json:"transactionId" validate:"required,min=4"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := s.ledger.RequestActivation(r.Context(), userID, models.PaymentMethod(req.Method), req.TransactionID)
	if err != nil {
		SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// List returns all activation requests, newest first
// @Summary List activation requests
// @Description Admin view of all activation requests
// @Tags activations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ActivationRequest
// @Failure 403 {object} ErrorResponse
// @Router /activations [get]
func (s *ActivationService) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	if err := s.ledger.AuthorizeAdmin(r.Context(), actorID); err != nil {
		SendServiceError(w, err)
		return
	}

	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, user_id, user_name, method, transaction_id, status, created_at, resolved_at
		 FROM activation_requests ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[ACTIVATION] Failed to list requests: %v", err)
		SendErrorResponse(w, "Failed to list requests", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	requests := []models.ActivationRequest{}
	for rows.Next() {
		var req models.ActivationRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.UserName, &req.Method,
			&req.TransactionID, &req.Status, &req.CreatedAt, &req.ResolvedAt); err != nil {
			log.Printf("[ACTIVATION] Failed to scan request row: %v", err)
			SendErrorResponse(w, "Failed to list requests", http.StatusInternalServerError, nil)
			return
		}
		requests = append(requests, req)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Approve resolves a pending activation request as approved
// @Summary Approve activation
// @Description Activate the member and credit the referrer's bonus
// @Tags activations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /activations/{id}/approve [post]
func (s *ActivationService) Approve(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, models.StatusApproved)
}

// Reject resolves a pending activation request as rejected
// @Summary Reject activation
// @Description Reject the payment proof and clear the pending flag
// @Tags activations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /activations/{id}/reject [post]
func (s *ActivationService) Reject(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, models.StatusRejected)
}

func (s *ActivationService) resolve(w http.ResponseWriter, r *http.Request, decision models.RequestStatus) {
	actorID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requestID := chi.URLParam(r, "id")

	var err error
	if decision == models.StatusApproved {
		err = s.ledger.ApproveActivation(r.Context(), requestID, actorID)
	} else {
		err = s.ledger.RejectActivation(r.Context(), requestID, actorID)
	}
	if err != nil {
		SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(decision)})
}
