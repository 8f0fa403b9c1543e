package handler

import (
	"errors"
	"net/http"

	"edupulse/internal/middleware"
	"edupulse/internal/repository"
	"edupulse/internal/service"
	"edupulse/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	profileRepo    *repository.ProfileRepository
	withdrawalRepo *repository.WithdrawalRepository
	withdrawalSvc  *service.WithdrawalService
}

func NewWalletHandler(profileRepo *repository.ProfileRepository, withdrawalRepo *repository.WithdrawalRepository, withdrawalSvc *service.WithdrawalService) *WalletHandler {
	return &WalletHandler{profileRepo: profileRepo, withdrawalRepo: withdrawalRepo, withdrawalSvc: withdrawalSvc}
}

// GetBalance returns the user's wallet snapshot.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.profileRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"approved_balance":  profile.ApprovedBalance,
		"held_balance":      profile.HeldBalance,
		"total_earnings":    profile.TotalEarnings,
		"completed_surveys": profile.CompletedSurveys,
		"has_withdrawn":     profile.HasWithdrawn,
		"currency":          "KES",
	})
}

func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		PhoneNumber string          `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.withdrawalSvc.Request(userID, req.Amount, req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWithdrawAmount),
			errors.Is(err, service.ErrBelowFirstMinimum),
			errors.Is(err, payment.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal request failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": w, "message": "Withdrawal requested. You will be notified once it is processed."})
}

func (h *WalletHandler) MyWithdrawals(c *gin.Context) {
	userID := middleware.GetUserID(c)
	withdrawals, err := h.withdrawalRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}
