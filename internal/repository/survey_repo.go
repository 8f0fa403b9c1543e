package repository

import (
	"time"

	"edupulse/internal/models"

	"gorm.io/gorm"
)

type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) Create(survey *models.Survey) error {
	return r.db.Create(survey).Error
}

func (r *SurveyRepository) GetByID(id uint) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&survey, id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *SurveyRepository) Update(survey *models.Survey) error {
	return r.db.Save(survey).Error
}

func (r *SurveyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Survey{}, id).Error
}

// ListActive returns surveys open for responses: active and not expired.
func (r *SurveyRepository) ListActive() ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, time.Now()).
		Order("created_at DESC").
		Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Survey{}).
		Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, time.Now()).
		Count(&count).Error
	return count, err
}

func (r *SurveyRepository) ListAll(offset, limit int) ([]models.Survey, int64, error) {
	var surveys []models.Survey
	var total int64
	if err := r.db.Model(&models.Survey{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&surveys).Error
	return surveys, total, err
}

func (r *SurveyRepository) ReplaceQuestions(surveyID uint, questions []models.SurveyQuestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", surveyID).Delete(&models.SurveyQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].SurveyID = surveyID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Survey{}).Where("id = ?", surveyID).
			Update("total_questions", len(questions)).Error
	})
}

type ResponseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(resp *models.SurveyResponse) error {
	return r.db.Create(resp).Error
}

func (r *ResponseRepository) GetByID(id uint) (*models.SurveyResponse, error) {
	var resp models.SurveyResponse
	err := r.db.Preload("Survey").Preload("User").First(&resp, id).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ResponseRepository) Update(resp *models.SurveyResponse) error {
	return r.db.Save(resp).Error
}

func (r *ResponseRepository) ExistsByUserAndSurvey(userID, surveyID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SurveyResponse{}).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		Count(&count).Error
	return count > 0, err
}

// CountToday counts a user's responses since local midnight.
func (r *ResponseRepository) CountToday(userID uint) (int64, error) {
	year, month, day := time.Now().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	var count int64
	err := r.db.Model(&models.SurveyResponse{}).
		Where("user_id = ? AND created_at >= ?", userID, midnight).
		Count(&count).Error
	return count, err
}

func (r *ResponseRepository) ListByUser(userID uint) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.Preload("Survey").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&responses).Error
	return responses, err
}

// ListFlagged returns flagged responses awaiting review.
func (r *ResponseRepository) ListFlagged(offset, limit int) ([]models.SurveyResponse, int64, error) {
	var responses []models.SurveyResponse
	var total int64
	q := r.db.Model(&models.SurveyResponse{}).Where("is_flagged = ? AND is_approved IS NULL", true)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Preload("Survey").Preload("User").
		Where("is_flagged = ? AND is_approved IS NULL", true).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&responses).Error
	return responses, total, err
}

func (r *ResponseRepository) CountBySurvey(surveyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SurveyResponse{}).Where("survey_id = ?", surveyID).Count(&count).Error
	return count, err
}
