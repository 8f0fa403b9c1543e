package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/middleware"
	"edupulse/internal/models"
	"edupulse/internal/repository"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	userRepo       *repository.UserRepository
	profileRepo    *repository.ProfileRepository
	paymentRepo    *repository.PaymentRepository
	surveyRepo     *repository.SurveyRepository
	responseRepo   *repository.ResponseRepository
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
	auditRepo      *repository.AuditRepository
	surveySvc      *service.SurveyService
	withdrawalSvc  *service.WithdrawalService
}

func NewAdminHandler(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	paymentRepo *repository.PaymentRepository,
	surveyRepo *repository.SurveyRepository,
	responseRepo *repository.ResponseRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
	auditRepo *repository.AuditRepository,
	surveySvc *service.SurveyService,
	withdrawalSvc *service.WithdrawalService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		paymentRepo:    paymentRepo,
		surveyRepo:     surveyRepo,
		responseRepo:   responseRepo,
		withdrawalRepo: withdrawalRepo,
		settingRepo:    settingRepo,
		auditRepo:      auditRepo,
		surveySvc:      surveySvc,
		withdrawalSvc:  withdrawalSvc,
	}
}

// Dashboard returns headline counts for the admin home screen.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	users, _ := h.userRepo.Count()
	completed, _ := h.paymentRepo.CountByStatus(domain.PaymentCompleted)
	awaiting, _ := h.paymentRepo.CountByStatus(domain.PaymentAwaitingConfirmation)
	activeSurveys, _ := h.surveyRepo.CountActive()
	avgQuality, _ := h.profileRepo.AverageQualityScore()
	_, flagged, err := h.responseRepo.ListFlagged(0, 1)
	if err != nil {
		flagged = 0
	}
	pendingCount, pendingTotal, err := h.withdrawalRepo.PendingStats()
	if err != nil {
		pendingCount, pendingTotal = 0, decimal.Zero
	}
	c.JSON(http.StatusOK, gin.H{
		"total_users":               users,
		"completed_payments":        completed,
		"awaiting_payments":         awaiting,
		"active_surveys":            activeSurveys,
		"average_quality_score":     avgQuality,
		"flagged_responses":         flagged,
		"pending_withdrawals":       pendingCount,
		"pending_withdrawal_amount": pendingTotal,
	})
}

type surveyQuestionInput struct {
	QuestionText string `json:"question_text" binding:"required"`
	QuestionType string `json:"question_type" binding:"required,oneof=mcq checkbox rating likert text"`
	Options      string `json:"options"`
	OrderIndex   int    `json:"order_index"`
	Required     *bool  `json:"required"`
}

func (h *AdminHandler) CreateSurvey(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req struct {
		Title            string                `json:"title" binding:"required"`
		Description      string                `json:"description" binding:"required"`
		RewardAmount     decimal.Decimal       `json:"reward_amount" binding:"required"`
		TimeLimitMinutes int                   `json:"time_limit_minutes" binding:"required,min=1"`
		ExpiresAt        *time.Time            `json:"expires_at"`
		Questions        []surveyQuestionInput `json:"questions" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RewardAmount.LessThanOrEqual(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward amount must be positive"})
		return
	}

	survey := &models.Survey{
		Title:            req.Title,
		Description:      req.Description,
		RewardAmount:     req.RewardAmount,
		TimeLimitMinutes: req.TimeLimitMinutes,
		TotalQuestions:   len(req.Questions),
		IsActive:         true,
		ExpiresAt:        req.ExpiresAt,
		CreatedBy:        &adminID,
		Questions:        buildQuestions(req.Questions),
	}
	if err := h.surveyRepo.Create(survey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create survey"})
		return
	}
	c.JSON(http.StatusCreated, survey)
}

func (h *AdminHandler) UpdateSurvey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	survey, err := h.surveyRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}

	var req struct {
		Title            *string               `json:"title"`
		Description      *string               `json:"description"`
		RewardAmount     *decimal.Decimal      `json:"reward_amount"`
		TimeLimitMinutes *int                  `json:"time_limit_minutes"`
		IsActive         *bool                 `json:"is_active"`
		ExpiresAt        *time.Time            `json:"expires_at"`
		Questions        []surveyQuestionInput `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		survey.Title = *req.Title
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.RewardAmount != nil {
		survey.RewardAmount = *req.RewardAmount
	}
	if req.TimeLimitMinutes != nil {
		survey.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.IsActive != nil {
		survey.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		survey.ExpiresAt = req.ExpiresAt
	}
	if err := h.surveyRepo.Update(survey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update survey"})
		return
	}
	if req.Questions != nil {
		if err := h.surveyRepo.ReplaceQuestions(survey.ID, buildQuestions(req.Questions)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update questions"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "survey updated"})
}

func (h *AdminHandler) DeleteSurvey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	if err := h.surveyRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete survey"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "survey deleted"})
}

func (h *AdminHandler) ListSurveys(c *gin.Context) {
	offset, limit := pagination(c)
	surveys, total, err := h.surveyRepo.ListAll(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys, "total": total})
}

// FlaggedResponses lists responses awaiting manual review.
func (h *AdminHandler) FlaggedResponses(c *gin.Context) {
	offset, limit := pagination(c)
	responses, total, err := h.responseRepo.ListFlagged(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load responses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses, "total": total})
}

func (h *AdminHandler) ReviewResponse(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid response id"})
		return
	}
	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.surveySvc.Review(adminID, uint(id), *req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFlagged), errors.Is(err, service.ErrAlreadyReviewed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "review failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": resp})
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	offset, limit := pagination(c)
	status := c.Query("status")
	withdrawals, total, err := h.withdrawalRepo.List(status, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals, "total": total})
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	w, err := h.withdrawalSvc.Approve(adminID, uint(id))
	if err != nil {
		h.withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawalSvc.Reject(adminID, uint(id), req.Reason)
	if err != nil {
		h.withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *AdminHandler) withdrawalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrWithdrawalNotPending):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal update failed"})
	}
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	offset, limit := pagination(c)
	status := c.Query("status")
	payments, total, err := h.paymentRepo.List(status, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": total})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c)
	users, total, err := h.userRepo.List(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// RestrictUser toggles manual restriction of an account.
func (h *AdminHandler) RestrictUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Restricted *bool `json:"restricted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.profileRepo.GetByUserID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	profile.IsRestricted = *req.Restricted
	if err := h.profileRepo.Update(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Key == domain.SettingRegistrationFee {
		fee, err := decimal.NewFromString(req.Value)
		if err != nil || fee.LessThanOrEqual(decimal.Zero) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration fee must be a positive amount"})
			return
		}
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting saved"})
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	offset, limit := pagination(c)
	entries, total, err := h.auditRepo.List(c.Query("action"), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total})
}

func buildQuestions(inputs []surveyQuestionInput) []models.SurveyQuestion {
	questions := make([]models.SurveyQuestion, 0, len(inputs))
	for i, q := range inputs {
		required := true
		if q.Required != nil {
			required = *q.Required
		}
		order := q.OrderIndex
		if order == 0 {
			order = i
		}
		questions = append(questions, models.SurveyQuestion{
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.Options,
			OrderIndex:   order,
			Required:     required,
		})
	}
	return questions
}

func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
