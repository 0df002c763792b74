package validation

import (
	"math"
	"testing"
)

func TestValidateMinimum(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		min       float64
		expectErr bool
	}{
		{"Above minimum", 50000, 1, false},
		{"Exactly minimum", 1, 1, false},
		{"Below minimum", 0.5, 1, true},
		{"Negative", -10, 0, true},
		{"NaN", math.NaN(), 0, true},
		{"Infinity", math.Inf(1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMinimum("amount", tt.value, tt.min)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateMinimum(%v, %v) error = %v, expectErr %v", tt.value, tt.min, err, tt.expectErr)
			}
		})
	}

	if err := ValidateNonNegative("otherIncome", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) unexpected error: %v", err)
	}
}

func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		value     int
		expectErr bool
	}{
		{0, true},
		{1, false},
		{600, false},
		{601, true},
		{40000, true},
	}

	for _, tt := range tests {
		err := ValidateIntRange("term", tt.value, 1, 600)
		if (err != nil) != tt.expectErr {
			t.Errorf("ValidateIntRange(%d) error = %v, expectErr %v", tt.value, err, tt.expectErr)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email     string
		expectErr bool
	}{
		{"ana@example.co.mz", false},
		{" ana@example.com ", false},
		{"not-an-email", true},
		{"Ana <ana@example.com>", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateEmail(%q) error = %v, expectErr %v", tt.email, err, tt.expectErr)
			}
		})
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		email     string
		phone     string
		expectErr bool
	}{
		{"Valid contact", "Ana Machava", "ana@example.com", "841234567", false},
		{"Short name", "A", "ana@example.com", "841234567", true},
		{"Blank name", "   ", "ana@example.com", "841234567", true},
		{"Bad email", "Ana", "ana", "841234567", true},
		{"Short phone", "Ana", "ana@example.com", "8412", true},
		{"Accented name counts characters", "Zé", "ze@example.com", "+258841234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContact(tt.fullName, tt.email, tt.phone)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateContact() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}
