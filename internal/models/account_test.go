package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_CanSubmitActivation(t *testing.T) {
	t.Run("fresh account", func(t *testing.T) {
		acc := &Account{}
		assert.True(t, acc.CanSubmitActivation())
	})

	t.Run("already activated", func(t *testing.T) {
		acc := &Account{IsActivated: true}
		assert.False(t, acc.CanSubmitActivation())
	})

	t.Run("pending activation", func(t *testing.T) {
		acc := &Account{IsActivationPending: true}
		assert.False(t, acc.CanSubmitActivation())
	})
}

func TestAccount_CanWithdraw(t *testing.T) {
	acc := &Account{IsActivated: true, Balance: 100}

	t.Run("within balance and above minimum", func(t *testing.T) {
		assert.True(t, acc.CanWithdraw(30, 20))
	})

	t.Run("below minimum", func(t *testing.T) {
		assert.False(t, acc.CanWithdraw(15, 20))
	})

	t.Run("exceeds balance", func(t *testing.T) {
		assert.False(t, acc.CanWithdraw(150, 20))
	})

	t.Run("exactly the balance", func(t *testing.T) {
		assert.True(t, acc.CanWithdraw(100, 20))
	})

	t.Run("not activated", func(t *testing.T) {
		inactive := &Account{Balance: 100}
		assert.False(t, inactive.CanWithdraw(30, 20))
	})
}

func TestRequestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, MethodBkash.Valid())
	assert.True(t, MethodNagad.Valid())
	assert.False(t, PaymentMethod("ROCKET").Valid())
}
