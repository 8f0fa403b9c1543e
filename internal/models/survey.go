package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Survey struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	RewardAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"reward_amount"`
	TimeLimitMinutes int             `gorm:"not null" json:"time_limit_minutes"`
	TotalQuestions   int             `gorm:"default:0" json:"total_questions"`
	IsActive         bool            `gorm:"default:true;index" json:"is_active"`
	ExpiresAt        *time.Time      `json:"expires_at"`
	CreatedBy        *uint           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	Questions []SurveyQuestion `gorm:"foreignKey:SurveyID" json:"questions,omitempty"`
}

func (Survey) TableName() string { return "surveys" }

type SurveyQuestion struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SurveyID     uint           `gorm:"not null;index" json:"survey_id"`
	QuestionText string         `gorm:"type:text;not null" json:"question_text"`
	QuestionType string         `gorm:"size:20;not null" json:"question_type"` // mcq, checkbox, rating, likert, text
	Options      string         `gorm:"type:text" json:"options"`              // JSON array
	OrderIndex   int            `gorm:"not null" json:"order_index"`
	Required     bool           `gorm:"default:true" json:"required"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SurveyQuestion) TableName() string { return "survey_questions" }

// SurveyResponse is one user's submission. IsApproved is nil until an admin
// reviews a flagged response.
type SurveyResponse struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SurveyID         uint           `gorm:"not null;index:idx_responses_survey_user,unique" json:"survey_id"`
	UserID           uint           `gorm:"not null;index:idx_responses_survey_user,unique;index" json:"user_id"`
	Answers          string         `gorm:"type:text;not null" json:"answers"` // JSON map question id -> answer
	TimeTakenSeconds int            `gorm:"not null" json:"time_taken_seconds"`
	IsFlagged        bool           `gorm:"default:false;index" json:"is_flagged"`
	FlagReason       string         `gorm:"size:255" json:"flag_reason,omitempty"`
	IsApproved       *bool          `json:"is_approved"`
	ReviewedBy       *uint          `json:"reviewed_by"`
	ReviewedAt       *time.Time     `json:"reviewed_at"`
	CreatedAt        time.Time      `json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Survey Survey `gorm:"foreignKey:SurveyID" json:"survey,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SurveyResponse) TableName() string { return "survey_responses" }
