package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/iwvelando/loan-simulator/pkg/mathutil"
)

// Minimum lengths accepted for applicant contact details.
const (
	MinNameLength  = 2
	MinPhoneLength = 9
)

// ValidateMinimum checks that value is a finite number no smaller than min.
func ValidateMinimum(name string, value, min float64) error {
	if !mathutil.IsFinite(value) {
		return fmt.Errorf("%s: value is not a finite number", name)
	}
	if value < min {
		return fmt.Errorf("%s: must be at least %v, got %v", name, min, value)
	}
	return nil
}

// ValidateNonNegative checks that value is a finite number that is zero or more.
func ValidateNonNegative(name string, value float64) error {
	return ValidateMinimum(name, value, 0)
}

// ValidateIntRange checks that an integer lies within [min, max].
func ValidateIntRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s: must be between %d and %d, got %d", name, min, max, value)
	}
	return nil
}

// ValidateMinLength checks the trimmed length of a free-text field in characters.
func ValidateMinLength(name, value string, min int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		return fmt.Errorf("%s: must be at least %d characters", name, min)
	}
	return nil
}

// ValidateEmail checks that value is a single bare e-mail address.
func ValidateEmail(value string) error {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return fmt.Errorf("email: invalid address %q", value)
	}
	return nil
}

// ValidateContact checks the applicant contact details.
func ValidateContact(fullName, email, phoneNumber string) error {
	if err := ValidateMinLength("fullName", fullName, MinNameLength); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidateMinLength("phoneNumber", phoneNumber, MinPhoneLength)
}
