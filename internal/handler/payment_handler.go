package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"
	"edupulse/internal/service"
	"edupulse/pkg/payment"
	"edupulse/pkg/poller"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentSvc  *service.PaymentService
	authSvc     *service.AuthService
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	poll        *poller.Poller
}

func NewPaymentHandler(paymentSvc *service.PaymentService, authSvc *service.AuthService, userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository, poll *poller.Poller) *PaymentHandler {
	return &PaymentHandler{
		paymentSvc:  paymentSvc,
		authSvc:     authSvc,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		poll:        poll,
	}
}

// Initiate fires the STK push for a registration payment, then waits a
// bounded interval for confirmation. If the charge does not settle in time
// the client keeps polling Verify with the returned merchant reference.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req struct {
		Email        string `json:"email" binding:"required,email"`
		FullName     string `json:"full_name" binding:"required"`
		Password     string `json:"password" binding:"required,min=8"`
		PhoneNumber  string `json:"phone_number" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var referredBy *uint
	if req.ReferralCode != "" {
		profile, err := h.profileRepo.GetByReferralCode(req.ReferralCode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral code"})
			return
		}
		referredBy = &profile.UserID
	}

	record, err := h.paymentSvc.Initiate(c.Request.Context(), service.InitiateRequest{
		Email:       req.Email,
		FullName:    req.FullName,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		ReferredBy:  referredBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number; use format 07XXXXXXXX or 2547XXXXXXXX"})
		case errors.Is(err, service.ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"error": service.ErrEmailExists.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not initiate payment, please try again"})
		}
		return
	}

	// Wait server-side for the user to approve the STK prompt.
	status, err := h.poll.Run(c.Request.Context(), func(ctx context.Context) (payment.Status, error) {
		res, verr := h.paymentSvc.Verify(ctx, record.MerchantReference)
		if verr != nil {
			return payment.StatusPending, verr
		}
		return recordStatusToProvider(res.Status), nil
	})
	if err != nil && !errors.Is(err, poller.ErrExpired) {
		c.JSON(http.StatusAccepted, gin.H{
			"success":            true,
			"status":             domain.PaymentAwaitingConfirmation,
			"merchant_reference": record.MerchantReference,
			"payment_id":         record.LipanaTransactionID,
			"message":            "Payment is processing. Keep checking the status.",
		})
		return
	}

	switch status {
	case payment.StatusSuccess:
		h.respondCompleted(c, record.MerchantReference)
	case payment.StatusFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "status": domain.PaymentFailed, "message": "Payment failed. No money was deducted, please try again."})
	case payment.StatusCancelled:
		c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "status": domain.PaymentCancelled, "message": "Payment was cancelled."})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"success":            true,
			"status":             domain.PaymentAwaitingConfirmation,
			"merchant_reference": record.MerchantReference,
			"payment_id":         record.LipanaTransactionID,
			"message":            "Payment is still processing. Keep checking the status.",
		})
	}
}

// Verify is one client-driven verification attempt.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		MerchantReference string `json:"merchant_reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.paymentSvc.Verify(c.Request.Context(), req.MerchantReference)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed, please retry"})
		return
	}

	switch result.Status {
	case domain.PaymentCompleted:
		if result.User != nil {
			h.respondWithSession(c, result.User)
			return
		}
		h.respondCompleted(c, req.MerchantReference)
	case domain.PaymentFailed, domain.PaymentCancelled:
		c.JSON(http.StatusOK, gin.H{"success": false, "status": result.Status, "message": result.Reason})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "status": result.Status, "message": "Payment is still processing."})
	}
}

// respondCompleted loads the provisioned account by payment record and
// answers with a session when possible.
func (h *PaymentHandler) respondCompleted(c *gin.Context, merchantRef string) {
	record, err := h.paymentSvc.Record(merchantRef)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.PaymentCompleted, "auto_login_failed": true})
		return
	}
	user, err := h.userRepo.GetByEmail(record.Email)
	if err != nil {
		log.Printf("[PAYMENT] completed but user lookup failed ref=%s: %v", merchantRef, err)
		c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.PaymentCompleted, "auto_login_failed": true})
		return
	}
	h.respondWithSession(c, user)
}

func (h *PaymentHandler) respondWithSession(c *gin.Context, user *models.User) {
	session, err := h.authSvc.IssueSession(user)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.PaymentCompleted, "auto_login_failed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  domain.PaymentCompleted,
		"message": "Payment confirmed. Welcome to EduPulse!",
		"session": session,
	})
}

func recordStatusToProvider(recordStatus string) payment.Status {
	switch recordStatus {
	case domain.PaymentCompleted:
		return payment.StatusSuccess
	case domain.PaymentFailed:
		return payment.StatusFailed
	case domain.PaymentCancelled:
		return payment.StatusCancelled
	default:
		return payment.StatusPending
	}
}
