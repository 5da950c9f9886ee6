package models

import "time"

type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type PaymentMethod string

const (
	MethodBkash PaymentMethod = "BKASH"
	MethodNagad PaymentMethod = "NAGAD"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodBkash || m == MethodNagad
}

// ActivationRequest is a member's paid-activation proof awaiting an admin
// decision. TransactionID is the reference from the mobile wallet payment.
type ActivationRequest struct {
	ID            string        `json:"id" db:"id"`
	UserID        int           `json:"userId" db:"user_id"`
	UserName      string        `json:"userName" db:"user_name"`
	Method        PaymentMethod `json:"method" db:"method"`
	TransactionID string        `json:"transactionId" db:"transaction_id"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// WithdrawalRequest reserves funds at submission; the amount stays debited
// from the account while the request is PENDING.
type WithdrawalRequest struct {
	ID            string        `json:"id" db:"id"`
	UserID        int           `json:"userId" db:"user_id"`
	UserName      string        `json:"userName" db:"user_name"`
	Amount        int64         `json:"amount" db:"amount"`
	Method        PaymentMethod `json:"method" db:"method"`
	AccountNumber string        `json:"accountNumber" db:"account_number"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty" db:"resolved_at"`
}
