package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jioearn/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalService_Submit(t *testing.T) {
	t.Run("successful submission reserves the amount", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAccountFetch(mock, 2, models.Account{ID: 2, Name: "Karim", IsActivated: true, Balance: 100})
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users SET balance = balance -").
			WithArgs(int64(30), 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO withdrawal_requests").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(map[string]any{
			"amount":        30,
			"method":        "NAGAD",
			"accountNumber": "01700000000",
		})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body)), 2)
		w := httptest.NewRecorder()

		service.Submit(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.WithdrawalRequest
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, int64(30), resp.Amount)
		assert.Equal(t, models.StatusPending, resp.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("below minimum is rejected before any write", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAccountFetch(mock, 2, models.Account{ID: 2, Name: "Karim", IsActivated: true, Balance: 100})

		body, _ := json.Marshal(map[string]any{
			"amount":        15,
			"method":        "BKASH",
			"accountNumber": "01700000000",
		})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body)), 2)
		w := httptest.NewRecorder()

		service.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAccountFetch(mock, 2, models.Account{ID: 2, Name: "Karim", IsActivated: true, Balance: 25})

		body, _ := json.Marshal(map[string]any{
			"amount":        50,
			"method":        "BKASH",
			"accountNumber": "01700000000",
		})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body)), 2)
		w := httptest.NewRecorder()

		service.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short account number fails validation", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		body, _ := json.Marshal(map[string]any{
			"amount":        30,
			"method":        "BKASH",
			"accountNumber": "017",
		})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body)), 2)
		w := httptest.NewRecorder()

		service.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWithdrawalService_List(t *testing.T) {
	t.Run("admin sees all requests", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAdminCheck(mock, 9, models.RoleAdmin)

		now := time.Now()
		mock.ExpectQuery("SELECT id, user_id, user_name, amount, method, account_number").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_name", "amount",
				"method", "account_number", "status", "created_at", "resolved_at"}).
				AddRow("wd-1", 2, "Karim", 30, "NAGAD", "01700000000", "PENDING", now, nil))

		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals", nil), 9)
		w := httptest.NewRecorder()

		service.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var requests []models.WithdrawalRequest
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&requests))
		assert.Len(t, requests, 1)
		assert.Equal(t, int64(30), requests[0].Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member is forbidden", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAdminCheck(mock, 2, models.RoleMember)

		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals", nil), 2)
		w := httptest.NewRecorder()

		service.List(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestWithdrawalService_Resolve(t *testing.T) {
	t.Run("rejection refunds over the router", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAdminCheck(mock, 9, models.RoleAdmin)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id, amount, status FROM withdrawal_requests").
			WithArgs("wd-1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount", "status"}).AddRow(2, 30, "PENDING"))
		mock.ExpectExec("UPDATE withdrawal_requests SET status").
			WithArgs("REJECTED", "wd-1").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE users SET balance = balance").
			WithArgs(int64(30), 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		router := chi.NewRouter()
		router.Post("/withdrawals/{id}/reject", service.Reject)

		req := withUser(httptest.NewRequest(http.MethodPost, "/withdrawals/wd-1/reject", nil), 9)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown request over the router", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db, NewEventBus(nil), testEarningConfig())
		service := NewWithdrawalService(db, ledger)

		expectAdminCheck(mock, 9, models.RoleAdmin)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id, amount, status FROM withdrawal_requests").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		router := chi.NewRouter()
		router.Post("/withdrawals/{id}/approve", service.Approve)

		req := withUser(httptest.NewRequest(http.MethodPost, "/withdrawals/missing/approve", nil), 9)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
