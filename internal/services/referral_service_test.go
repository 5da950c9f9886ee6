package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestReferralService_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReferralService(db, nil, testEarningConfig())
	service.cfg.BaseURL = "https://jioearn.app"

	mock.ExpectQuery("SELECT ref_code, referral_count, referral_income FROM users").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"ref_code", "referral_count", "referral_income"}).
			AddRow("A1B2C3D4", 3, 6))

	stats, err := service.Stats(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "A1B2C3D4", stats.RefCode)
	assert.Equal(t, "https://jioearn.app/signup?ref=A1B2C3D4", stats.SignupLink)
	assert.Equal(t, 3, stats.ReferralCount)
	assert.Equal(t, int64(6), stats.ReferralIncome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralService_ShareQR(t *testing.T) {
	t.Run("renders a PNG without redis", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewReferralService(db, nil, testEarningConfig())
		service.cfg.BaseURL = "https://jioearn.app"

		mock.ExpectQuery("SELECT ref_code FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"ref_code"}).AddRow("A1B2C3D4"))

		encoded, err := service.ShareQR(context.Background(), 1)
		assert.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		assert.NoError(t, err)
		// PNG magic bytes
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
	})

	t.Run("serves the cached render", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		client, redisMock := redismock.NewClientMock()
		service := NewReferralService(db, client, testEarningConfig())

		mock.ExpectQuery("SELECT ref_code FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"ref_code"}).AddRow("A1B2C3D4"))
		redisMock.ExpectGet("refqr:A1B2C3D4").SetVal("cached-image")

		encoded, err := service.ShareQR(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, "cached-image", encoded)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("caches a fresh render", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		client, redisMock := redismock.NewClientMock()
		service := NewReferralService(db, client, testEarningConfig())
		service.cfg.BaseURL = "https://jioearn.app"

		mock.ExpectQuery("SELECT ref_code FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"ref_code"}).AddRow("A1B2C3D4"))
		redisMock.ExpectGet("refqr:A1B2C3D4").RedisNil()
		redisMock.Regexp().ExpectSet("refqr:A1B2C3D4", `.+`, 24*time.Hour).SetVal("OK")

		encoded, err := service.ShareQR(context.Background(), 1)
		assert.NoError(t, err)
		assert.NotEmpty(t, encoded)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
