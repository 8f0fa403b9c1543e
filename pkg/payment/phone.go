package payment

import (
	"errors"
	"regexp"
	"strings"
)

// Kenyan mobile number: local 0XXXXXXXXX or international 254XXXXXXXXX,
// network prefix 1 or 7 after the trunk/country code.
var kenyanPhoneRe = regexp.MustCompile(`^(?:254|0)[17]\d{8}$`)

var ErrInvalidPhone = errors.New("invalid M-Pesa phone number (use 0712345678 or 254712345678)")

// ValidatePhone checks a raw phone number against the Kenyan mobile
// pattern. A leading + is tolerated.
func ValidatePhone(raw string) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	if !kenyanPhoneRe.MatchString(s) {
		return ErrInvalidPhone
	}
	return nil
}

// FormatPhone normalizes a valid Kenyan number to the provider-facing
// +254XXXXXXXXX form. 0712345678, 254712345678 and +254712345678 all
// normalize to the same string.
func FormatPhone(raw string) (string, error) {
	if err := ValidatePhone(raw); err != nil {
		return "", err
	}
	s := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if strings.HasPrefix(s, "0") {
		s = "254" + s[1:]
	}
	return "+" + s, nil
}
