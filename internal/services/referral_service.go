package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jioearn/backend/internal/config"
	"github.com/skip2/go-qrcode"
)

// ReferralService renders the member's shareable signup link as a QR code
// and reports referral earnings.
type ReferralService struct {
	db    *sql.DB
	redis *redis.Client
	cfg   *config.EarningConfig
}

// ReferralStats summarizes a member's referral earnings.
type ReferralStats struct {
	RefCode        string `json:"refId"`
	SignupLink     string `json:"signupLink"`
	ReferralCount  int    `json:"referralCount"`
	ReferralIncome int64  `json:"referralIncome"`
}

func NewReferralService(db *sql.DB, rdb *redis.Client, cfg *config.EarningConfig) *ReferralService {
	return &ReferralService{
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (s *ReferralService) signupLink(refCode string) string {
	return fmt.Sprintf("%s/signup?ref=%s", s.cfg.BaseURL, refCode)
}

// Stats returns the member's referral code, signup link and earnings.
func (s *ReferralService) Stats(ctx context.Context, userID int) (*ReferralStats, error) {
	var stats ReferralStats
	err := s.db.QueryRowContext(ctx,
		`SELECT ref_code, referral_count, referral_income FROM users WHERE id = $1`, userID).
		Scan(&stats.RefCode, &stats.ReferralCount, &stats.ReferralIncome)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	stats.SignupLink = s.signupLink(stats.RefCode)
	return &stats, nil
}

// ShareQR returns a base64 PNG of the member's signup link. Rendered codes
// are cached in Redis since the link never changes for a given member.
func (s *ReferralService) ShareQR(ctx context.Context, userID int) (string, error) {
	var refCode string
	err := s.db.QueryRowContext(ctx, `SELECT ref_code FROM users WHERE id = $1`, userID).Scan(&refCode)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", storeErr(err)
	}

	key := fmt.Sprintf("refqr:%s", refCode)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			return cached, nil
		}
	}

	qr, err := qrcode.New(s.signupLink(refCode), qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	if s.redis != nil {
		s.redis.Set(ctx, key, encoded, 24*time.Hour)
	}

	return encoded, nil
}
