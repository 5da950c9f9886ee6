package models

import "time"

type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Account holds a member's profile and ledger fields. Balance, TotalWithdraw
// and ReferralIncome are in the smallest currency unit.
type Account struct {
	ID                  int       `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Email               string    `json:"email" db:"email"`
	PhoneNumber         string    `json:"phoneNumber" db:"phone_number"`
	Role                Role      `json:"role" db:"role"`
	Balance             int64     `json:"balance" db:"balance"`
	TotalWithdraw       int64     `json:"totalWithdraw" db:"total_withdraw"`
	ReferralIncome      int64     `json:"referralIncome" db:"referral_income"`
	ReferralCount       int       `json:"referralCount" db:"referral_count"`
	IsActivated         bool      `json:"isActivated" db:"is_activated"`
	IsActivationPending bool      `json:"isActivationPending" db:"is_activation_pending"`
	RefCode             string    `json:"refId" db:"ref_code"`
	ReferredBy          string    `json:"referredBy,omitempty" db:"referred_by"`
	Version             int       `json:"-" db:"version"` // for optimistic locking
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// CanSubmitActivation reports whether the account may submit a new
// activation request. Activated and pending accounts may not.
func (a *Account) CanSubmitActivation() bool {
	return !a.IsActivated && !a.IsActivationPending
}

// CanWithdraw reports whether the account may withdraw amount given the
// configured minimum. It does not mutate anything.
func (a *Account) CanWithdraw(amount, minWithdrawal int64) bool {
	return a.IsActivated && amount >= minWithdrawal && amount <= a.Balance
}
