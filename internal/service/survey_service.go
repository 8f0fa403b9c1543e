package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrSurveyNotFound    = errors.New("survey not found")
	ErrSurveyClosed      = errors.New("survey is no longer accepting responses")
	ErrAlreadyResponded  = errors.New("you have already responded to this survey")
	ErrDailyLimitReached = errors.New("daily survey limit reached")
	ErrAccountRestricted = errors.New("account is restricted from taking surveys")
	ErrMissingAnswers    = errors.New("required questions are missing answers")
	ErrAlreadyReviewed   = errors.New("response already reviewed")
	ErrNotFlagged        = errors.New("response is not awaiting review")
)

type SurveyStore interface {
	GetByID(id uint) (*models.Survey, error)
}

type ResponseStore interface {
	Create(resp *models.SurveyResponse) error
	GetByID(id uint) (*models.SurveyResponse, error)
	Update(resp *models.SurveyResponse) error
	ExistsByUserAndSurvey(userID, surveyID uint) (bool, error)
	CountToday(userID uint) (int64, error)
}

type WalletStore interface {
	GetByUserID(userID uint) (*models.Profile, error)
	Update(profile *models.Profile) error
	CreditApproved(userID uint, amount decimal.Decimal) error
	CreditHeld(userID uint, amount decimal.Decimal) error
	ReleaseHeld(userID uint, amount decimal.Decimal) error
	ForfeitHeld(userID uint, amount decimal.Decimal) error
}

type Notifier interface {
	Notify(userID uint, notifType, title, body string) error
}

type SurveyService struct {
	surveys   SurveyStore
	responses ResponseStore
	profiles  WalletStore
	notifier  Notifier
}

func NewSurveyService(surveys SurveyStore, responses ResponseStore, profiles WalletStore, notifier Notifier) *SurveyService {
	return &SurveyService{surveys: surveys, responses: responses, profiles: profiles, notifier: notifier}
}

type SubmitRequest struct {
	SurveyID         uint
	UserID           uint
	Answers          map[string]interface{} // question id -> answer
	TimeTakenSeconds int
}

// Submit records a response and credits the reward. Submissions faster
// than the minimum are flagged for admin review and the reward is held
// instead of credited.
func (s *SurveyService) Submit(req SubmitRequest) (*models.SurveyResponse, error) {
	survey, err := s.surveys.GetByID(req.SurveyID)
	if err != nil {
		return nil, ErrSurveyNotFound
	}
	if !survey.IsActive || (survey.ExpiresAt != nil && survey.ExpiresAt.Before(time.Now())) {
		return nil, ErrSurveyClosed
	}

	profile, err := s.profiles.GetByUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	if profile.IsRestricted {
		return nil, ErrAccountRestricted
	}

	exists, err := s.responses.ExistsByUserAndSurvey(req.UserID, req.SurveyID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyResponded
	}

	today, err := s.responses.CountToday(req.UserID)
	if err != nil {
		return nil, err
	}
	if today >= domain.MaxSurveysPerDay {
		return nil, ErrDailyLimitReached
	}

	if err := validateAnswers(survey, req.Answers); err != nil {
		return nil, err
	}
	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, err
	}

	resp := &models.SurveyResponse{
		SurveyID:         req.SurveyID,
		UserID:           req.UserID,
		Answers:          string(answersJSON),
		TimeTakenSeconds: req.TimeTakenSeconds,
	}
	if req.TimeTakenSeconds < domain.MinSurveySeconds {
		resp.IsFlagged = true
		resp.FlagReason = "Suspiciously fast completion"
	}
	if err := s.responses.Create(resp); err != nil {
		return nil, err
	}

	if resp.IsFlagged {
		// Reward is held until an admin reviews the response.
		if err := s.profiles.CreditHeld(req.UserID, survey.RewardAmount); err != nil {
			return nil, err
		}
		return resp, nil
	}

	if err := s.profiles.CreditApproved(req.UserID, survey.RewardAmount); err != nil {
		return nil, err
	}
	profile.CompletedSurveys++
	if err := s.profiles.Update(profile); err != nil {
		return nil, err
	}
	return resp, nil
}

// Review resolves a flagged response. Approval releases the held reward
// and nudges the quality score up; rejection forfeits it and pushes the
// score down, possibly restricting the account.
func (s *SurveyService) Review(adminID, responseID uint, approve bool) (*models.SurveyResponse, error) {
	resp, err := s.responses.GetByID(responseID)
	if err != nil {
		return nil, ErrNotFlagged
	}
	if !resp.IsFlagged {
		return nil, ErrNotFlagged
	}
	if resp.IsApproved != nil {
		return nil, ErrAlreadyReviewed
	}

	survey, err := s.surveys.GetByID(resp.SurveyID)
	if err != nil {
		return nil, ErrSurveyNotFound
	}
	profile, err := s.profiles.GetByUserID(resp.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp.IsApproved = &approve
	resp.ReviewedBy = &adminID
	resp.ReviewedAt = &now
	if err := s.responses.Update(resp); err != nil {
		return nil, err
	}

	var title, body string
	if approve {
		if err := s.profiles.ReleaseHeld(resp.UserID, survey.RewardAmount); err != nil {
			return nil, err
		}
		profile.CompletedSurveys++
		profile.QualityScore += domain.QualityScoreApproveBonus
		if profile.QualityScore > domain.QualityScoreStart {
			profile.QualityScore = domain.QualityScoreStart
		}
		title = "Response approved"
		body = fmt.Sprintf("Your response to %q was approved and KES %s released to your balance.", survey.Title, survey.RewardAmount.StringFixed(2))
	} else {
		if err := s.profiles.ForfeitHeld(resp.UserID, survey.RewardAmount); err != nil {
			return nil, err
		}
		profile.QualityScore -= domain.QualityScoreRejectPenalty
		if profile.QualityScore < 0 {
			profile.QualityScore = 0
		}
		title = "Response rejected"
		body = fmt.Sprintf("Your response to %q was rejected after review.", survey.Title)
	}
	profile.QualityStatus = domain.QualityStatusForScore(profile.QualityScore)
	profile.IsRestricted = profile.QualityStatus == domain.QualityRestricted
	if err := s.profiles.Update(profile); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(resp.UserID, domain.NotifTypeResponseReviewed, title, body)
	}
	return resp, nil
}

func validateAnswers(survey *models.Survey, answers map[string]interface{}) error {
	for _, q := range survey.Questions {
		if !q.Required {
			continue
		}
		key := strconv.FormatUint(uint64(q.ID), 10)
		v, ok := answers[key]
		if !ok || v == nil || v == "" {
			return ErrMissingAnswers
		}
	}
	return nil
}
