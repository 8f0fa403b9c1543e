package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQualityStatusForScore(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, QualityGood},
		{80, QualityGood},
		{79, QualityCaution},
		{50, QualityCaution},
		{49, QualityRestricted},
		{0, QualityRestricted},
	}
	for _, tc := range cases {
		if got := QualityStatusForScore(tc.score); got != tc.want {
			t.Errorf("QualityStatusForScore(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestReferralBonusMath(t *testing.T) {
	fee := decimal.NewFromInt(100)
	bonus := ReferralBonusRate.Mul(fee).Round(2)
	if !bonus.Equal(decimal.NewFromInt(25)) {
		t.Errorf("bonus on KES 100 = %s, want 25", bonus)
	}

	fee = decimal.NewFromFloat(150.50)
	bonus = ReferralBonusRate.Mul(fee).Round(2)
	if !bonus.Equal(decimal.NewFromFloat(37.63)) {
		t.Errorf("bonus on KES 150.50 = %s, want 37.63", bonus)
	}
}
