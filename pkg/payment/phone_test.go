package payment

import "testing"

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"0712345678",
		"0112345678",
		"254712345678",
		"254112345678",
		"+254712345678",
		" 0712345678 ",
	}
	for _, p := range valid {
		if err := ValidatePhone(p); err != nil {
			t.Errorf("ValidatePhone(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{
		"",
		"0812345678",    // bad network prefix
		"071234567",     // too short
		"07123456789",   // too long
		"255712345678",  // wrong country code
		"712345678",     // missing trunk prefix
		"notaphone",
		"+1 555 0100",
	}
	for _, p := range invalid {
		if err := ValidatePhone(p); err == nil {
			t.Errorf("ValidatePhone(%q) = nil, want error", p)
		}
	}
}

func TestFormatPhoneCanonicalizes(t *testing.T) {
	want := "+254712345678"
	for _, p := range []string{"0712345678", "254712345678", "+254712345678"} {
		got, err := FormatPhone(p)
		if err != nil {
			t.Fatalf("FormatPhone(%q): %v", p, err)
		}
		if got != want {
			t.Errorf("FormatPhone(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestFormatPhoneRejectsInvalid(t *testing.T) {
	if _, err := FormatPhone("0812345678"); err == nil {
		t.Error("FormatPhone accepted an invalid number")
	}
}
