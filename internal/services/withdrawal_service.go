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

// WithdrawalService exposes the withdrawal request lifecycle over HTTP.
type WithdrawalService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

func NewWithdrawalService(db *sql.DB, ledger *LedgerService) *WithdrawalService {
	return &WithdrawalService{
		db:        db,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

// Submit files a withdrawal request and reserves the amount
// @Summary Request withdrawal
// @Description Debit the balance and create a pending withdrawal request
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64,method=string,accountNumber=string} true "Withdrawal request"
// @Success 201 {object} models.WithdrawalRequest
// @Failure 400 {object} ErrorResponse
// @Router /withdrawals [post]
func (s *WithdrawalService) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount        int64  `json:"amount" validate:"required,gt=0"`
		Method        string `json:"method" validate:"required,oneof=BKASH NAGAD"`
		AccountNumber string `json:"accountNumber" validate:"required,min=6"`
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

	request, err := s.ledger.RequestWithdrawal(r.Context(), userID, req.Amount,
		models.PaymentMethod(req.Method), req.AccountNumber)
	if err != nil {
		SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// List returns all withdrawal requests, newest first
// @Summary List withdrawal requests
// @Description Admin view of all withdrawal requests
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.WithdrawalRequest
// @Failure 403 {object} ErrorResponse
// @Router /withdrawals [get]
func (s *WithdrawalService) List(w http.ResponseWriter, r *http.Request) {
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
		`SELECT id, user_id, user_name, amount, method, account_number, status, created_at, resolved_at
		 FROM withdrawal_requests ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[WITHDRAWAL] Failed to list requests: %v", err)
		SendErrorResponse(w, "Failed to list requests", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	requests := []models.WithdrawalRequest{}
	for rows.Next() {
		var req models.WithdrawalRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.UserName, &req.Amount, &req.Method,
			&req.AccountNumber, &req.Status, &req.CreatedAt, &req.ResolvedAt); err != nil {
			log.Printf("[WITHDRAWAL] Failed to scan request row: %v", err)
			SendErrorResponse(w, "Failed to list requests", http.StatusInternalServerError, nil)
			return
		}
		requests = append(requests, req)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Approve resolves a pending withdrawal as paid out
// @Summary Approve withdrawal
// @Description Confirm the payout; the reserved amount stays debited
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /withdrawals/{id}/approve [post]
func (s *WithdrawalService) Approve(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, models.StatusApproved)
}

// Reject resolves a pending withdrawal and refunds the reserved amount
// @Summary Reject withdrawal
// @Description Reject the request and refund the reserved amount
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /withdrawals/{id}/reject [post]
func (s *WithdrawalService) Reject(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, models.StatusRejected)
}

func (s *WithdrawalService) resolve(w http.ResponseWriter, r *http.Request, decision models.RequestStatus) {
	actorID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requestID := chi.URLParam(r, "id")

	if err := s.ledger.ResolveWithdrawal(r.Context(), requestID, decision, actorID); err != nil {
		SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(decision)})
}
