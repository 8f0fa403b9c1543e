package handler

import (
	"net/http"

	"edupulse/internal/middleware"
	"edupulse/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	profileRepo  *repository.ProfileRepository
	referralRepo *repository.ReferralRepository
}

func NewReferralHandler(profileRepo *repository.ProfileRepository, referralRepo *repository.ReferralRepository) *ReferralHandler {
	return &ReferralHandler{profileRepo: profileRepo, referralRepo: referralRepo}
}

// Resolve checks a referral code before registration; public endpoint.
func (h *ReferralHandler) Resolve(c *gin.Context) {
	code := c.Param("code")
	profile, err := h.profileRepo.GetByReferralCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "referrer_id": profile.UserID})
}

// MyEarnings returns the user's referral ledger and totals.
func (h *ReferralHandler) MyEarnings(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.profileRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	earnings, err := h.referralRepo.ListByReferrer(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load earnings"})
		return
	}
	total, err := h.referralRepo.TotalByReferrer(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load earnings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referral_code": profile.ReferralCode,
		"total_earned":  total,
		"earnings":      earnings,
	})
}
