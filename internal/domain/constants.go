package domain

import "github.com/shopspring/decimal"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Payment record statuses. Monotonic: once a record reaches a terminal
// status (completed, failed, cancelled) it never regresses.
const (
	PaymentPending              = "pending"
	PaymentAwaitingConfirmation = "awaiting_confirmation"
	PaymentCompleted            = "completed"
	PaymentFailed               = "failed"
	PaymentCancelled            = "cancelled"
)

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalHeld     = "held"
)

const (
	QualityGood       = "good"
	QualityCaution    = "caution"
	QualityRestricted = "restricted"
)

const (
	QuestionTypeMCQ      = "mcq"
	QuestionTypeCheckbox = "checkbox"
	QuestionTypeRating   = "rating"
	QuestionTypeLikert   = "likert"
	QuestionTypeText     = "text"
)

const (
	NotifTypeResponseReviewed    = "RESPONSE_REVIEWED"
	NotifTypeWithdrawalProcessed = "WITHDRAWAL_PROCESSED"
	NotifTypeReferralBonus       = "REFERRAL_BONUS"
)

// System setting keys (seeded on startup).
const (
	SettingRegistrationFee = "registration_fee"
)

const (
	// MaxSurveysPerDay caps responses per user per calendar day.
	MaxSurveysPerDay = 5
	// MinSurveySeconds: submissions faster than this are flagged for review.
	MinSurveySeconds = 10
	// MinFirstWithdrawalKES applies only until the user's first withdrawal request.
	MinFirstWithdrawalKES = 3100
)

// ReferralBonusRate is the share of the registration fee credited to the
// referrer when the referred user's payment completes.
var ReferralBonusRate = decimal.NewFromFloat(0.25)

// DefaultRegistrationFeeKES is used when the setting row is missing.
var DefaultRegistrationFeeKES = decimal.NewFromInt(100)

// Quality score thresholds; status derives from the score.
const (
	QualityScoreStart         = 100
	QualityScoreGoodMin       = 80
	QualityScoreCautionMin    = 50
	QualityScoreApproveBonus  = 5
	QualityScoreRejectPenalty = 20
)

// QualityStatusForScore maps a quality score to its display status.
func QualityStatusForScore(score int) string {
	switch {
	case score >= QualityScoreGoodMin:
		return QualityGood
	case score >= QualityScoreCautionMin:
		return QualityCaution
	default:
		return QualityRestricted
	}
}
