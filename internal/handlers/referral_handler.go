package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jioearn/backend/internal/middleware"
	"github.com/jioearn/backend/internal/services"
)

type ReferralHandler struct {
	service *services.ReferralService
}

func NewReferralHandler(service *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{service: service}
}

// GetStats returns the member's referral code and earnings
// @Summary Referral stats
// @Description Referral code, signup link and cumulative earnings
// @Tags referral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ReferralStats
// @Failure 401 {object} services.ErrorResponse
// @Router /referral/stats [get]
func (h *ReferralHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetShareQR renders the member's signup link as a QR code
// @Summary Referral QR code
// @Description Base64 PNG of the member's shareable signup link
// @Tags referral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{qrImage=string}
// @Failure 401 {object} services.ErrorResponse
// @Router /referral/qr [get]
func (h *ReferralHandler) GetShareQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	qrImage, err := h.service.ShareQR(r.Context(), userID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"qrImage": qrImage,
	})
}
