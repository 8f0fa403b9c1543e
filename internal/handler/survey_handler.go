package handler

import (
	"errors"
	"net/http"
	"strconv"

	"edupulse/internal/middleware"
	"edupulse/internal/repository"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

type SurveyHandler struct {
	surveyRepo   *repository.SurveyRepository
	responseRepo *repository.ResponseRepository
	surveySvc    *service.SurveyService
}

func NewSurveyHandler(surveyRepo *repository.SurveyRepository, responseRepo *repository.ResponseRepository, surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyRepo: surveyRepo, responseRepo: responseRepo, surveySvc: surveySvc}
}

// ListActive returns surveys currently open for responses.
func (h *SurveyHandler) ListActive(c *gin.Context) {
	surveys, err := h.surveyRepo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// Get returns one survey with its questions in order.
func (h *SurveyHandler) Get(c *gin.Context) {
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
	c.JSON(http.StatusOK, survey)
}

func (h *SurveyHandler) Submit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var req struct {
		Answers          map[string]interface{} `json:"answers" binding:"required"`
		TimeTakenSeconds int                    `json:"time_taken_seconds" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.surveySvc.Submit(service.SubmitRequest{
		SurveyID:         uint(id),
		UserID:           userID,
		Answers:          req.Answers,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSurveyClosed),
			errors.Is(err, service.ErrAlreadyResponded),
			errors.Is(err, service.ErrDailyLimitReached),
			errors.Is(err, service.ErrMissingAnswers):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAccountRestricted):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
		}
		return
	}

	if resp.IsFlagged {
		c.JSON(http.StatusOK, gin.H{
			"response": resp,
			"message":  "Response received and queued for review. The reward is held until it is approved.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": resp, "message": "Response recorded. Reward credited to your balance."})
}

// MyResponses lists the authenticated user's past submissions.
func (h *SurveyHandler) MyResponses(c *gin.Context) {
	userID := middleware.GetUserID(c)
	responses, err := h.responseRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load responses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}
