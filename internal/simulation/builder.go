package simulation

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
	"github.com/iwvelando/loan-simulator/pkg/loans"
	"github.com/iwvelando/loan-simulator/pkg/mathutil"
	"github.com/iwvelando/loan-simulator/pkg/validation"
	"go.uber.org/zap"
)

// Request is the applicant input of one simulation.
type Request struct {
	FullName            string  `json:"fullName" yaml:"fullName"`
	Email               string  `json:"email" yaml:"email"`
	PhoneNumber         string  `json:"phoneNumber" yaml:"phoneNumber"`
	MonthlyIncome       float64 `json:"monthlyIncome" yaml:"monthlyIncome"`
	OtherIncome         float64 `json:"otherIncome,omitempty" yaml:"otherIncome,omitempty"`
	RequestedAmount     float64 `json:"requestedAmount" yaml:"requestedAmount"`
	ProductType         string  `json:"productType" yaml:"productType"`
	Term                int     `json:"term" yaml:"term"` // months
	IncludeInsurance    bool    `json:"includeInsurance" yaml:"includeInsurance"`
	InitialContribution float64 `json:"initialContribution,omitempty" yaml:"initialContribution,omitempty"`
	Currency            string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	StartDate           string  `json:"startDate,omitempty" yaml:"startDate,omitempty"` // YYYY-MM-DD, defaults to today
}

// Validate checks the numeric fields that feed the engine.
func (r Request) Validate() error {
	checks := []error{
		validation.ValidateMinimum("monthlyIncome", r.MonthlyIncome, 1),
		validation.ValidateNonNegative("otherIncome", r.OtherIncome),
		validation.ValidateMinimum("requestedAmount", r.RequestedAmount, 1),
		validation.ValidateIntRange("term", r.Term, 1, constants.MaxTermMonths),
		validation.ValidateNonNegative("initialContribution", r.InitialContribution),
	}
	for _, err := range checks {
		if err != nil {
			return fmt.Errorf("%w: %v", loans.ErrInvalidLoanParameters, err)
		}
	}
	return nil
}

// ValidateContact checks the applicant contact details required to forward a
// simulation.
func (r Request) ValidateContact() error {
	if err := validation.ValidateContact(r.FullName, r.Email, r.PhoneNumber); err != nil {
		return fmt.Errorf("%w: %v", loans.ErrInvalidLoanParameters, err)
	}
	return nil
}

// TotalIncome is the monthly income plus any other income.
func (r Request) TotalIncome() float64 {
	return r.MonthlyIncome + r.OtherIncome
}

// Summary is a loan summary enriched with the product and applicant income.
type Summary struct {
	loans.LoanSummary
	ProductType      ProductType `json:"productType"`
	ProductLabel     string      `json:"productLabel"`
	TotalIncome      float64     `json:"totalIncome"`
	DefaultedProduct bool        `json:"defaultedProduct,omitempty"`
}

// DefaultPolicy returns the current lending policy.
func DefaultPolicy() Policy {
	return Policy{
		Products: map[ProductType]ProductTerms{
			PersonalLoan: {InterestRate: 29.3, ProcessingMultiplier: 1.0},
			HomeLoan:     {InterestRate: 15.5, ProcessingMultiplier: 0.8},
			VehicleLoan:  {InterestRate: 18.75, ProcessingMultiplier: 1.2},
			BusinessLoan: {InterestRate: 16.25, ProcessingMultiplier: 1.1},
		},
		DefaultTerms: ProductTerms{
			InterestRate:         constants.DefaultInterestRate,
			ProcessingMultiplier: constants.DefaultProcessingMultiplier,
		},
		ProcessingFeeRate:     constants.ProcessingFeeRate,
		OrganizationFeeRate:   constants.OrganizationFeeRate,
		InsuranceAnnualRate:   constants.InsuranceAnnualRate,
		StampDutyRate:         constants.StampDutyRate,
		InterestStampDutyRate: constants.InterestStampDutyRate,
		EffortRateThreshold:   constants.EffortRateThreshold,
		DefaultCurrency:       constants.DefaultCurrency,
	}
}

// Builder maps simulation requests onto the amortization engine.
type Builder struct {
	logger    *zap.Logger
	policy    Policy
	generator *loans.ScheduleGenerator
	now       func() time.Time
}

// NewBuilder creates a builder applying the given policy.
func NewBuilder(logger *zap.Logger, policy Policy) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		logger:    logger,
		policy:    policy,
		generator: loans.NewScheduleGenerator(logger),
		now:       time.Now,
	}
}

// Policy returns the policy the builder applies.
func (b *Builder) Policy() Policy {
	return b.policy
}

// ProcessingFee is amount × base rate × product multiplier.
func (b *Builder) ProcessingFee(amount float64, terms ProductTerms) float64 {
	return mathutil.ApplyPercentage(amount, b.policy.ProcessingFeeRate) * terms.ProcessingMultiplier
}

// OrganizationFee is a flat share of the amount.
func (b *Builder) OrganizationFee(amount float64) float64 {
	return mathutil.ApplyPercentage(amount, b.policy.OrganizationFeeRate)
}

// Insurance is a flat monthly premium on the original principal, not on the
// declining balance, over the whole term.
func (b *Builder) Insurance(amount float64, term int) float64 {
	return mathutil.ApplyPercentage(amount, b.policy.InsuranceAnnualRate) * float64(term) / constants.MonthsPerYear
}

// LoanConfig derives the engine input for a request. The returned boolean
// reports whether the product fell back to the default terms.
func (b *Builder) LoanConfig(req Request) (loans.LoanConfig, ProductType, bool, error) {
	if err := req.Validate(); err != nil {
		return loans.LoanConfig{}, "", false, err
	}

	product, err := ParseProductType(req.ProductType)
	if err != nil && !b.policy.AllowUnknownProduct {
		return loans.LoanConfig{}, "", false, fmt.Errorf("%w: %w", loans.ErrInvalidLoanParameters, err)
	}
	if err != nil {
		product = ProductType(req.ProductType)
	}

	terms, defaulted, err := b.policy.Terms(product)
	if err != nil {
		return loans.LoanConfig{}, "", false, fmt.Errorf("%w: %w", loans.ErrInvalidLoanParameters, err)
	}
	if defaulted {
		b.logger.Warn(fmt.Sprintf("product type %q is not priced, applying default terms", req.ProductType),
			zap.String("op", "simulation.LoanConfig"),
			zap.Float64("interestRate", terms.InterestRate),
		)
	}

	startDate, err := datetime.ParseDate(req.StartDate)
	if err != nil {
		return loans.LoanConfig{}, "", false, fmt.Errorf("%w: startDate: %v", loans.ErrInvalidLoanParameters, err)
	}
	if startDate.IsZero() {
		startDate = b.now()
	}

	currency := req.Currency
	if currency == "" {
		currency = b.policy.DefaultCurrency
	}

	insurance := 0.0
	if req.IncludeInsurance {
		insurance = b.Insurance(req.RequestedAmount, req.Term)
	}

	cfg, err := loans.NewLoanConfig(req.RequestedAmount, terms.InterestRate, req.Term,
		loans.WithProcessingFee(b.ProcessingFee(req.RequestedAmount, terms)),
		loans.WithOrganizationFee(b.OrganizationFee(req.RequestedAmount)),
		loans.WithStampDuty(b.policy.StampDutyRate, b.policy.InterestStampDutyRate),
		loans.WithInsurance(insurance),
		loans.WithCurrency(currency),
		loans.WithStartDate(startDate),
	)
	if err != nil {
		return loans.LoanConfig{}, "", false, err
	}
	return cfg, product, defaulted, nil
}

// Build runs a full simulation: policy-derived inputs, the amortization
// engine, then the affordability metrics.
func (b *Builder) Build(req Request) (Summary, error) {
	cfg, product, defaulted, err := b.LoanConfig(req)
	if err != nil {
		return Summary{}, err
	}

	loanSummary, err := b.generator.GenerateSummary(cfg)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		LoanSummary:      loanSummary,
		ProductType:      product,
		ProductLabel:     product.Label(),
		DefaultedProduct: defaulted,
	}
	if err := b.augment(&summary, req.TotalIncome()); err != nil {
		return Summary{}, err
	}

	b.logger.Debug("simulation built",
		zap.String("op", "simulation.Build"),
		zap.String("product", string(product)),
		zap.Float64("amount", cfg.Amount),
		zap.Int("term", cfg.Term),
		zap.Float64("effortRate", summary.EffortRate),
		zap.Bool("hasCapacity", summary.HasCapacity),
	)
	return summary, nil
}

func (b *Builder) augment(summary *Summary, totalIncome float64) error {
	effortRate, err := loans.CalculateEffortRate(summary.MonthlyPayment, totalIncome)
	if err != nil {
		return err
	}
	summary.TotalIncome = totalIncome
	summary.EffortRate = effortRate
	summary.HasCapacity = effortRate <= b.policy.EffortRateThreshold
	summary.AvailableIncome = totalIncome - summary.MonthlyPayment
	return nil
}
