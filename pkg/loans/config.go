package loans

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/mathutil"
)

// LoanConfig represents loan configuration parameters. Rates are whole-number
// percentages, e.g. 29.3 means 29.3%.
type LoanConfig struct {
	InterestRate          float64
	Term                  int // months
	Amount                float64
	ProcessingFee         float64
	OrganizationFee       float64
	StampDutyRate         float64 // on principal
	InterestStampDutyRate float64 // on total interest
	Insurance             float64
	Currency              string
	StartDate             time.Time
}

// Option sets an optional LoanConfig field.
type Option func(*LoanConfig)

// DefaultLoanConfig returns the values used for every field a caller does not
// set: no fees, no taxes, no insurance, the default currency and a start date
// of now.
func DefaultLoanConfig() LoanConfig {
	return LoanConfig{
		Currency:  constants.DefaultCurrency,
		StartDate: time.Now(),
	}
}

// NewLoanConfig builds a validated LoanConfig from the required fields, the
// defaults of DefaultLoanConfig and the given options.
func NewLoanConfig(amount, interestRate float64, term int, opts ...Option) (LoanConfig, error) {
	cfg := DefaultLoanConfig()
	cfg.Amount = amount
	cfg.InterestRate = interestRate
	cfg.Term = term
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return LoanConfig{}, err
	}
	return cfg, nil
}

// WithProcessingFee sets the processing fee.
func WithProcessingFee(fee float64) Option {
	return func(c *LoanConfig) { c.ProcessingFee = fee }
}

// WithOrganizationFee sets the organization fee.
func WithOrganizationFee(fee float64) Option {
	return func(c *LoanConfig) { c.OrganizationFee = fee }
}

// WithStampDuty sets the stamp duty rates on principal and on total interest.
func WithStampDuty(principalRate, interestRate float64) Option {
	return func(c *LoanConfig) {
		c.StampDutyRate = principalRate
		c.InterestStampDutyRate = interestRate
	}
}

// WithInsurance sets the total insurance premium.
func WithInsurance(amount float64) Option {
	return func(c *LoanConfig) { c.Insurance = amount }
}

// WithCurrency sets the currency code. An empty code keeps the default.
func WithCurrency(code string) Option {
	return func(c *LoanConfig) {
		if code != "" {
			c.Currency = code
		}
	}
}

// WithStartDate sets the date the first accrual period begins. A zero time
// keeps the default.
func WithStartDate(start time.Time) Option {
	return func(c *LoanConfig) {
		if !start.IsZero() {
			c.StartDate = start
		}
	}
}

// Validate checks every field that feeds a division or an exponent.
func (c LoanConfig) Validate() error {
	if c.Term < 1 || c.Term > constants.MaxTermMonths {
		return fmt.Errorf("%w: term must be between 1 and %d months, got %d",
			ErrInvalidLoanParameters, constants.MaxTermMonths, c.Term)
	}
	if !mathutil.IsFinite(c.Amount) || c.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidLoanParameters, c.Amount)
	}
	if !mathutil.IsFinite(c.InterestRate) || c.InterestRate < 0 {
		return fmt.Errorf("%w: interest rate must not be negative, got %v", ErrInvalidLoanParameters, c.InterestRate)
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"processing fee", c.ProcessingFee},
		{"organization fee", c.OrganizationFee},
		{"stamp duty rate", c.StampDutyRate},
		{"interest stamp duty rate", c.InterestStampDutyRate},
		{"insurance", c.Insurance},
	}
	for _, field := range nonNegative {
		if !mathutil.IsFinite(field.value) || field.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidLoanParameters, field.name, field.value)
		}
	}

	if c.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidLoanParameters)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidLoanParameters)
	}
	return nil
}
