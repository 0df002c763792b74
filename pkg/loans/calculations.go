// Package loans provides the amortization engine: fixed annuity payments,
// month-by-month schedules, the effective annual cost rate and effort rates.
package loans

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
	"github.com/iwvelando/loan-simulator/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidLoanParameters is returned for inputs that would otherwise yield
// NaN or infinite results.
var ErrInvalidLoanParameters = errors.New("invalid loan parameters")

// PaymentScheduleEntry holds the values for a given period.
type PaymentScheduleEntry struct {
	Month                  int       `json:"month"`
	DueDate                time.Time `json:"dueDate"`
	RemainingCapital       float64   `json:"remainingCapital"`
	MonthlyInterest        float64   `json:"monthlyInterest"`
	Payment                float64   `json:"payment"`
	Amortization           float64   `json:"amortization"`
	Balance                float64   `json:"balance"`
	CumulativeInterest     float64   `json:"cumulativeInterest"`
	CumulativeAmortization float64   `json:"cumulativeAmortization"`
}

// LoanSummary is the result of a full simulation.
type LoanSummary struct {
	MonthlyPayment    float64                `json:"monthlyPayment"`
	TotalAmount       float64                `json:"totalAmount"`
	TotalInterest     float64                `json:"totalInterest"`
	TotalPaid         float64                `json:"totalPaid"`
	TotalCost         float64                `json:"totalCost"`
	EffectiveRate     float64                `json:"effectiveRate"`
	InterestRate      float64                `json:"interestRate"`
	Term              int                    `json:"term"`
	Currency          string                 `json:"currency"`
	Schedule          []PaymentScheduleEntry `json:"schedule"`
	ProcessingFee     float64                `json:"processingFee"`
	OrganizationFee   float64                `json:"organizationFee"`
	StampDuty         float64                `json:"stampDuty"`
	InterestStampDuty float64                `json:"interestStampDuty"`
	Insurance         float64                `json:"insurance"`
	EffortRate        float64                `json:"effortRate"`
	HasCapacity       bool                   `json:"hasCapacity"`
	AvailableIncome   float64                `json:"availableIncome"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(amount, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return amount / float64(termMonths)
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return amount * periodicInterestRate * power / (power - 1.00)
}

// MonthlyRate converts an annual percentage into a per-period fraction.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingCapital, annualInterestRate float64) float64 {
	return remainingCapital * MonthlyRate(annualInterestRate)
}

// CalculateEffectiveRate returns the effective annual cost rate (TAEG) as a
// percentage. The total cost of credit is annualized over the loan duration in
// years, which approximates rather than reproduces a regulatory TAEG.
func CalculateEffectiveRate(cfg LoanConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	totalFees := cfg.ProcessingFee + cfg.OrganizationFee + mathutil.ApplyPercentage(cfg.Amount, cfg.StampDutyRate)
	monthlyPayment := CalculateMonthlyPayment(cfg.Amount, cfg.InterestRate, cfg.Term)
	totalInterest := monthlyPayment*float64(cfg.Term) - cfg.Amount
	interestStampDuty := mathutil.ApplyPercentage(totalInterest, cfg.InterestStampDutyRate)
	totalCost := totalFees + totalInterest + interestStampDuty + cfg.Insurance

	years := float64(cfg.Term) / constants.MonthsPerYear
	taeg := math.Pow(totalCost/cfg.Amount+1, 1/years) - 1
	return taeg * constants.PercentageMultiplier, nil
}

// CalculateEffortRate returns the share of monthly income, in percent, taken
// by the monthly payment.
func CalculateEffortRate(monthlyPayment, monthlyIncome float64) (float64, error) {
	if !(monthlyIncome > 0) || !mathutil.IsFinite(monthlyIncome) {
		return 0, fmt.Errorf("%w: monthly income must be positive, got %v", ErrInvalidLoanParameters, monthlyIncome)
	}
	effortRate := mathutil.CalculatePercentage(monthlyPayment, monthlyIncome)
	if !mathutil.IsFinite(effortRate) {
		return 0, fmt.Errorf("%w: effort rate is not a finite number", ErrInvalidLoanParameters)
	}
	return effortRate, nil
}

// ScheduleGenerator provides utilities for generating loan amortization schedules
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan.
// Each period's interest depends on the previous period's closing balance, so
// the periods are computed strictly in order.
func (g *ScheduleGenerator) GenerateSchedule(cfg LoanConfig) ([]PaymentScheduleEntry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	monthlyPayment := CalculateMonthlyPayment(cfg.Amount, cfg.InterestRate, cfg.Term)
	if !mathutil.IsFinite(monthlyPayment) {
		return nil, fmt.Errorf("%w: monthly payment overflows for amount %v at %v%% over %d months",
			ErrInvalidLoanParameters, cfg.Amount, cfg.InterestRate, cfg.Term)
	}
	schedule := make([]PaymentScheduleEntry, 0, cfg.Term)

	remainingCapital := cfg.Amount
	cumulativeInterest := 0.0
	cumulativeAmortization := 0.0

	for month := 1; month <= cfg.Term; month++ {
		monthlyInterest := CalculateInterestPayment(remainingCapital, cfg.InterestRate)
		amortization := monthlyPayment - monthlyInterest
		cumulativeInterest += monthlyInterest
		cumulativeAmortization += amortization

		// The unclamped balance carries into the next period's interest.
		remainingCapital -= amortization

		schedule = append(schedule, PaymentScheduleEntry{
			Month:                  month,
			DueDate:                datetime.AddMonths(cfg.StartDate, month),
			RemainingCapital:       mathutil.Max(0, remainingCapital),
			MonthlyInterest:        monthlyInterest,
			Payment:                monthlyPayment,
			Amortization:           amortization,
			Balance:                remainingCapital,
			CumulativeInterest:     cumulativeInterest,
			CumulativeAmortization: cumulativeAmortization,
		})
	}

	return schedule, nil
}

// GenerateSummary computes the payment, the schedule, the stamp duties and the
// total cost of a loan. Total interest is taken from the schedule so that the
// summary and the schedule always agree.
func (g *ScheduleGenerator) GenerateSummary(cfg LoanConfig) (LoanSummary, error) {
	schedule, err := g.GenerateSchedule(cfg)
	if err != nil {
		return LoanSummary{}, err
	}

	last := schedule[len(schedule)-1]
	if !mathutil.IsZero(mathutil.Round(last.Balance)) ||
		!mathutil.WithinTolerance(last.CumulativeAmortization, cfg.Amount, constants.CurrencyTolerance) {
		g.logger.Warn("schedule does not close on the principal",
			zap.String("op", "loans.GenerateSummary"),
			zap.Float64("finalBalance", last.Balance),
			zap.Float64("amortized", last.CumulativeAmortization),
			zap.Float64("amount", cfg.Amount),
		)
	}

	monthlyPayment := CalculateMonthlyPayment(cfg.Amount, cfg.InterestRate, cfg.Term)
	totalInterest := last.CumulativeInterest
	stampDuty := mathutil.ApplyPercentage(cfg.Amount, cfg.StampDutyRate)
	interestStampDuty := mathutil.ApplyPercentage(totalInterest, cfg.InterestStampDutyRate)

	taeg, err := CalculateEffectiveRate(cfg)
	if err != nil {
		return LoanSummary{}, err
	}

	totalCost := cfg.Amount +
		totalInterest +
		cfg.ProcessingFee +
		cfg.OrganizationFee +
		stampDuty +
		interestStampDuty +
		cfg.Insurance
	for _, value := range []float64{totalInterest, interestStampDuty, totalCost, taeg} {
		if !mathutil.IsFinite(value) {
			return LoanSummary{}, fmt.Errorf("%w: loan totals are not finite numbers", ErrInvalidLoanParameters)
		}
	}

	summary := LoanSummary{
		MonthlyPayment: monthlyPayment,
		TotalAmount:    cfg.Amount,
		TotalInterest:  totalInterest,
		TotalPaid:      monthlyPayment * float64(cfg.Term),
		TotalCost:         totalCost,
		EffectiveRate:     taeg,
		InterestRate:      cfg.InterestRate,
		Term:              cfg.Term,
		Currency:          cfg.Currency,
		Schedule:          schedule,
		ProcessingFee:     cfg.ProcessingFee,
		OrganizationFee:   cfg.OrganizationFee,
		StampDuty:         stampDuty,
		InterestStampDuty: interestStampDuty,
		Insurance:         cfg.Insurance,
	}

	g.logger.Debug(fmt.Sprintf("generated %d-month schedule for %.2f %s at %.2f%%",
		cfg.Term, cfg.Amount, cfg.Currency, cfg.InterestRate),
		zap.String("op", "loans.GenerateSummary"),
		zap.Float64("monthlyPayment", monthlyPayment),
		zap.Float64("totalCost", summary.TotalCost),
	)

	return summary, nil
}
