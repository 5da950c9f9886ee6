package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jioearn/backend/internal/config"
	"github.com/jioearn/backend/internal/models"
)

// LedgerService owns every mutation of the monetary fields on an account.
// Balance changes use server-side conditional increments inside a
// transaction, so concurrent task completions, referral payouts and
// withdrawal submissions on the same account cannot lose updates.
type LedgerService struct {
	db     *sql.DB
	events *EventBus
	cfg    *config.EarningConfig
}

func NewLedgerService(db *sql.DB, events *EventBus, cfg *config.EarningConfig) *LedgerService {
	return &LedgerService{
		db:     db,
		events: events,
		cfg:    cfg,
	}
}

// AuthorizeAdmin fails unless the actor holds the ADMIN role. Request
// resolution and task administration all pass through this gate.
func (s *LedgerService) AuthorizeAdmin(ctx context.Context, actorID int) error {
	var role models.Role
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, actorID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotAuthorized
	}
	if err != nil {
		return storeErr(err)
	}
	if role != models.RoleAdmin {
		return ErrNotAuthorized
	}
	return nil
}

func (s *LedgerService) fetchAccount(ctx context.Context, userID int) (*models.Account, error) {
	var acc models.Account
	var referredBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, balance, total_withdraw, referral_income, referral_count,
		        is_activated, is_activation_pending, ref_code, referred_by, version
		 FROM users WHERE id = $1`, userID).
		Scan(&acc.ID, &acc.Name, &acc.Role, &acc.Balance, &acc.TotalWithdraw,
			&acc.ReferralIncome, &acc.ReferralCount, &acc.IsActivated,
			&acc.IsActivationPending, &acc.RefCode, &referredBy, &acc.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	acc.ReferredBy = referredBy.String
	return &acc, nil
}

// RequestActivation records payment proof for the activation fee and marks
// the account pending. Fails while the account is activated or already has
// a request in flight.
func (s *LedgerService) RequestActivation(ctx context.Context, userID int, method models.PaymentMethod, transactionID string) (*models.ActivationRequest, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	acc, err := s.fetchAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acc.CanSubmitActivation() {
		if acc.IsActivated {
			return nil, ErrAlreadyActivated
		}
		return nil, ErrActivationPending
	}

	req := &models.ActivationRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		UserName:      acc.Name,
		Method:        method,
		TransactionID: transactionID,
		Status:        models.StatusPending,
		CreatedAt:     time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activation_requests (id, user_id, user_name, method, transaction_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.UserID, req.UserName, req.Method, req.TransactionID, req.Status, req.CreatedAt); err != nil {
		return nil, storeErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_activation_pending = TRUE, version = version + 1, updated_at = NOW() WHERE id = $1`,
		userID); err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}

	log.Printf("[LEDGER] Activation request %s submitted by user %d via %s", req.ID, userID, method)
	s.events.PublishAccountChanged(ctx, userID)
	s.events.PublishRequestsChanged(ctx, FeedActivations)
	return req, nil
}

// ApproveActivation flips the member to activated and resolves the request
// in one transaction. The PENDING guard makes a second approval attempt
// fail instead of double-crediting the referrer.
func (s *LedgerService) ApproveActivation(ctx context.Context, requestID string, actorID int) error {
	if err := s.AuthorizeAdmin(ctx, actorID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	var userID int
	var status models.RequestStatus
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status FROM activation_requests WHERE id = $1 FOR UPDATE`, requestID).
		Scan(&userID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyResolved
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_activated = TRUE, is_activation_pending = FALSE, version = version + 1, updated_at = NOW() WHERE id = $1`,
		userID); err != nil {
		return storeErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE activation_requests SET status = $1, resolved_at = NOW() WHERE id = $2`,
		models.StatusApproved, requestID); err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	log.Printf("[LEDGER] Activation request %s approved, user %d activated", requestID, userID)

	// Referral payout is best-effort: a stale code or a store hiccup here
	// must never fail the activation that triggered it.
	if err := s.applyReferralBonus(ctx, userID); err != nil {
		log.Printf("[LEDGER] Referral bonus for user %d not applied: %v", userID, err)
	}

	s.events.PublishAccountChanged(ctx, userID)
	s.events.PublishRequestsChanged(ctx, FeedActivations)
	return nil
}

// RejectActivation resolves the request and clears the pending flag so the
// member can resubmit with a corrected payment reference.
func (s *LedgerService) RejectActivation(ctx context.Context, requestID string, actorID int) error {
	if err := s.AuthorizeAdmin(ctx, actorID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	var userID int
	var status models.RequestStatus
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status FROM activation_requests WHERE id = $1 FOR UPDATE`, requestID).
		Scan(&userID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyResolved
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_activation_pending = FALSE, version = version + 1, updated_at = NOW() WHERE id = $1`,
		userID); err != nil {
		return storeErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE activation_requests SET status = $1, resolved_at = NOW() WHERE id = $2`,
		models.StatusRejected, requestID); err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	log.Printf("[LEDGER] Activation request %s rejected", requestID)
	s.events.PublishAccountChanged(ctx, userID)
	s.events.PublishRequestsChanged(ctx, FeedActivations)
	return nil
}

// applyReferralBonus credits the account whose ref_code matches the
// activated member's referred_by field. The single UPDATE keyed on the
// indexed code is both the lookup and the atomic increment; no match is a
// silent no-op.
func (s *LedgerService) applyReferralBonus(ctx context.Context, userID int) error {
	var referredBy sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT referred_by FROM users WHERE id = $1`, userID).Scan(&referredBy); err != nil {
		return storeErr(err)
	}
	if !referredBy.Valid || referredBy.String == "" {
		return nil
	}

	var referrerID int
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1, referral_income = referral_income + $1,
		        referral_count = referral_count + 1, version = version + 1, updated_at = NOW()
		 WHERE ref_code = $2 RETURNING id`,
		s.cfg.ReferralBonus, referredBy.String).Scan(&referrerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}

	log.Printf("[LEDGER] Referral bonus of %d credited to user %d", s.cfg.ReferralBonus, referrerID)
	s.events.PublishAccountChanged(ctx, referrerID)
	return nil
}

// creditReward increments the balance unconditionally. De-duplication is
// the caller's job; CompleteTask layers the completion record on top.
func (s *LedgerService) creditReward(ctx context.Context, tx *sql.Tx, userID int, amount int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1, version = version + 1, updated_at = NOW() WHERE id = $2 RETURNING balance`,
		amount, userID).Scan(&newBalance)
	if err != nil {
		return 0, storeErr(err)
	}
	return newBalance, nil
}

// CompleteTask credits the task's reward exactly once per account. The
// unique (user_id, task_id) completion record is the idempotency guard.
func (s *LedgerService) CompleteTask(ctx context.Context, userID int, taskID string) (int64, error) {
	acc, err := s.fetchAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !acc.IsActivated {
		return 0, ErrNotActivated
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, storeErr(err)
	}
	defer tx.Rollback()

	var reward int64
	err = tx.QueryRowContext(ctx, `SELECT reward FROM tasks WHERE id = $1`, taskID).Scan(&reward)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTaskNotFound
	}
	if err != nil {
		return 0, storeErr(err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO task_completions (user_id, task_id, reward, created_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, task_id) DO NOTHING`,
		userID, taskID, reward)
	if err != nil {
		return 0, storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr(err)
	}
	if affected == 0 {
		return 0, ErrTaskAlreadyComplete
	}

	newBalance, err := s.creditReward(ctx, tx, userID, reward)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr(err)
	}

	log.Printf("[LEDGER] Task %s completed by user %d, reward %d, balance %d", taskID, userID, reward, newBalance)
	s.events.PublishAccountChanged(ctx, userID)
	return newBalance, nil
}

// RequestWithdrawal reserves the amount at submission time. The
// conditional debit rejects concurrent submissions that would take the
// balance below zero.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userID int, amount int64, method models.PaymentMethod, accountNumber string) (*models.WithdrawalRequest, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	acc, err := s.fetchAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActivated {
		return nil, ErrNotActivated
	}
	if amount < s.cfg.MinWithdrawal {
		return nil, ErrBelowMinimum
	}
	if amount > acc.Balance {
		return nil, ErrInsufficientBalance
	}

	req := &models.WithdrawalRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		UserName:      acc.Name,
		Amount:        amount,
		Method:        method,
		AccountNumber: accountNumber,
		Status:        models.StatusPending,
		CreatedAt:     time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1, total_withdraw = total_withdraw + $1,
		        version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND balance >= $1`,
		amount, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr(err)
	}
	if affected == 0 {
		return nil, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO withdrawal_requests (id, user_id, user_name, amount, method, account_number, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.UserID, req.UserName, req.Amount, req.Method, req.AccountNumber, req.Status, req.CreatedAt); err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}

	log.Printf("[LEDGER] Withdrawal request %s for %d submitted by user %d", req.ID, amount, userID)
	s.events.PublishAccountChanged(ctx, userID)
	s.events.PublishRequestsChanged(ctx, FeedWithdrawals)
	return req, nil
}

// ResolveWithdrawal finalizes a pending withdrawal. Rejection refunds the
// reserved amount; approval leaves the debit in place and the payout
// happens off-platform via the chosen wallet.
func (s *LedgerService) ResolveWithdrawal(ctx context.Context, requestID string, decision models.RequestStatus, actorID int) error {
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return ErrInvalidDecision
	}
	if err := s.AuthorizeAdmin(ctx, actorID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	var userID int
	var amount int64
	var status models.RequestStatus
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, amount, status FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, requestID).
		Scan(&userID, &amount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyResolved
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE withdrawal_requests SET status = $1, resolved_at = NOW() WHERE id = $2`,
		decision, requestID); err != nil {
		return storeErr(err)
	}

	if decision == models.StatusRejected {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET balance = balance + $1, total_withdraw = total_withdraw - $1,
			        version = version + 1, updated_at = NOW()
			 WHERE id = $2`,
			amount, userID); err != nil {
			return storeErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	log.Printf("[LEDGER] Withdrawal request %s resolved as %s", requestID, decision)
	s.events.PublishAccountChanged(ctx, userID)
	s.events.PublishRequestsChanged(ctx, FeedWithdrawals)
	return nil
}
