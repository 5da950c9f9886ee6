package config

import "github.com/spf13/viper"

// EarningConfig holds the monetary parameters of the platform. Amounts are
// in the smallest currency unit.
type EarningConfig struct {
	ActivationFee int64
	ReferralBonus int64
	MinWithdrawal int64
	BkashNumber   string
	NagadNumber   string
	BaseURL       string
}

func LoadEarningConfig() *EarningConfig {
	viper.SetDefault("earning.activation_fee", 15)
	viper.SetDefault("earning.referral_bonus", 2)
	viper.SetDefault("earning.min_withdrawal", 20)
	viper.SetDefault("earning.bkash_number", "01310101624")
	viper.SetDefault("earning.nagad_number", "01883336954")
	viper.SetDefault("earning.base_url", "https://jioearn.app")

	return &EarningConfig{
		ActivationFee: viper.GetInt64("earning.activation_fee"),
		ReferralBonus: viper.GetInt64("earning.referral_bonus"),
		MinWithdrawal: viper.GetInt64("earning.min_withdrawal"),
		BkashNumber:   viper.GetString("earning.bkash_number"),
		NagadNumber:   viper.GetString("earning.nagad_number"),
		BaseURL:       viper.GetString("earning.base_url"),
	}
}

// ReceivingNumber returns the wallet number members pay the activation fee
// to for the given method, or empty when the method is unknown.
func (c *EarningConfig) ReceivingNumber(method string) string {
	switch method {
	case "BKASH":
		return c.BkashNumber
	case "NAGAD":
		return c.NagadNumber
	}
	return ""
}
