package loans

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testStart = time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

func mustConfig(t *testing.T, amount, rate float64, term int, opts ...Option) LoanConfig {
	t.Helper()
	opts = append([]Option{WithStartDate(testStart)}, opts...)
	cfg, err := NewLoanConfig(amount, rate, term, opts...)
	if err != nil {
		t.Fatalf("NewLoanConfig() error = %v", err)
	}
	return cfg
}

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name               string
		amount             float64
		annualInterestRate float64
		termMonths         int
		expectedRange      []float64 // [min, max] expected range
	}{
		{
			name:               "One year at 12%",
			amount:             100000,
			annualInterestRate: 12.0,
			termMonths:         12,
			expectedRange:      []float64{8884.87, 8884.89},
		},
		{
			name:               "Personal loan default rate",
			amount:             50000,
			annualInterestRate: 29.3,
			termMonths:         24,
			expectedRange:      []float64{2750, 2850},
		},
		{
			name:               "Zero interest loan",
			amount:             12000,
			annualInterestRate: 0.0,
			termMonths:         60,
			expectedRange:      []float64{200, 200},
		},
		{
			name:               "Single period",
			amount:             1000,
			annualInterestRate: 12.0,
			termMonths:         1,
			expectedRange:      []float64{1009.99, 1010.01},
		},
		{
			name:               "Non-positive term",
			amount:             1000,
			annualInterestRate: 12.0,
			termMonths:         0,
			expectedRange:      []float64{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.amount, tt.annualInterestRate, tt.termMonths)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateMonthlyPayment() = %.4f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name               string
		remainingCapital   float64
		annualInterestRate float64
		expected           float64
	}{
		{"One percent per month", 100000, 12.0, 1000.0},
		{"Car loan interest", 15000, 4.5, 56.25},
		{"Zero interest", 10000, 0.0, 0.0},
		{"High interest", 5000, 24.0, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.remainingCapital, tt.annualInterestRate)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestGenerateScheduleProperties(t *testing.T) {
	generator := NewScheduleGenerator(zap.NewNop())

	configs := []LoanConfig{
		mustConfig(t, 100000, 12.0, 12),
		mustConfig(t, 50000, 29.3, 24),
		mustConfig(t, 2500000, 15.5, 240),
		mustConfig(t, 7500, 18.75, 5),
		mustConfig(t, 12000, 0, 36),
		mustConfig(t, 1000, 12.0, 1),
	}

	for _, cfg := range configs {
		schedule, err := generator.GenerateSchedule(cfg)
		if err != nil {
			t.Fatalf("GenerateSchedule() error = %v", err)
		}

		if len(schedule) != cfg.Term {
			t.Fatalf("expected %d entries, got %d", cfg.Term, len(schedule))
		}

		payment := CalculateMonthlyPayment(cfg.Amount, cfg.InterestRate, cfg.Term)
		sumAmortization := 0.0
		sumInterest := 0.0
		for i, entry := range schedule {
			if entry.Month != i+1 {
				t.Errorf("entry %d has month %d", i, entry.Month)
			}
			if entry.Payment != payment {
				t.Errorf("month %d payment %.6f differs from %.6f", entry.Month, entry.Payment, payment)
			}
			if entry.RemainingCapital < 0 {
				t.Errorf("month %d remaining capital is negative: %v", entry.Month, entry.RemainingCapital)
			}
			sumAmortization += entry.Amortization
			sumInterest += entry.MonthlyInterest
		}

		if math.Abs(sumAmortization-cfg.Amount) > 1e-6*cfg.Amount {
			t.Errorf("amortization sums to %.6f, expected %.2f", sumAmortization, cfg.Amount)
		}

		last := schedule[len(schedule)-1]
		if math.Abs(last.Balance) > 1e-6*cfg.Amount {
			t.Errorf("final balance %.8f, expected ~0", last.Balance)
		}
		if math.Abs(last.CumulativeInterest-sumInterest) > 1e-9 {
			t.Errorf("cumulative interest %.6f does not match the sum %.6f", last.CumulativeInterest, sumInterest)
		}
		if math.Abs(last.CumulativeAmortization-sumAmortization) > 1e-9 {
			t.Errorf("cumulative amortization %.6f does not match the sum %.6f", last.CumulativeAmortization, sumAmortization)
		}
	}
}

func TestGenerateScheduleDueDates(t *testing.T) {
	generator := NewScheduleGenerator(nil)
	schedule, err := generator.GenerateSchedule(mustConfig(t, 1200, 12.0, 3))
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	expected := []string{"2025-02-28", "2025-03-31", "2025-04-30"}
	for i, entry := range schedule {
		if got := entry.DueDate.Format("2006-01-02"); got != expected[i] {
			t.Errorf("month %d due %s, expected %s", entry.Month, got, expected[i])
		}
	}
}

func TestGenerateScheduleFirstPeriod(t *testing.T) {
	generator := NewScheduleGenerator(zap.NewNop())
	schedule, err := generator.GenerateSchedule(mustConfig(t, 100000, 12.0, 12))
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	first := schedule[0]
	if math.Abs(first.MonthlyInterest-1000) > 1e-9 {
		t.Errorf("first interest %.6f, expected 1000", first.MonthlyInterest)
	}
	if math.Abs(first.Amortization-(first.Payment-1000)) > 1e-9 {
		t.Errorf("first amortization %.6f, expected payment minus interest", first.Amortization)
	}
	if math.Abs(first.Balance-(100000-first.Amortization)) > 1e-9 {
		t.Errorf("first balance %.6f, expected principal minus amortization", first.Balance)
	}
}

func TestGenerateSummaryExampleScenario(t *testing.T) {
	generator := NewScheduleGenerator(zap.NewNop())
	summary, err := generator.GenerateSummary(mustConfig(t, 100000, 12.0, 12))
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}

	if math.Abs(summary.MonthlyPayment-8884.88) > 0.01 {
		t.Errorf("MonthlyPayment = %.4f, expected ~8884.88", summary.MonthlyPayment)
	}
	if math.Abs(summary.TotalPaid-106618.56) > 0.02 {
		t.Errorf("TotalPaid = %.4f, expected ~106618.56", summary.TotalPaid)
	}
	if math.Abs(summary.TotalInterest-6618.56) > 0.02 {
		t.Errorf("TotalInterest = %.4f, expected ~6618.56", summary.TotalInterest)
	}
	if summary.TotalAmount != 100000 {
		t.Errorf("TotalAmount = %.2f, expected 100000", summary.TotalAmount)
	}
	if summary.Currency != "MZN" {
		t.Errorf("Currency = %s, expected MZN", summary.Currency)
	}
	// Over exactly one year without fees the effective rate is total interest over principal.
	expectedTAEG := summary.TotalInterest / 100000 * 100
	if math.Abs(summary.EffectiveRate-expectedTAEG) > 0.01 {
		t.Errorf("EffectiveRate = %.4f, expected %.4f", summary.EffectiveRate, expectedTAEG)
	}
}

func TestGenerateSummaryTotalCost(t *testing.T) {
	generator := NewScheduleGenerator(zap.NewNop())
	cfg := mustConfig(t, 50000, 29.3, 24,
		WithProcessingFee(500),
		WithOrganizationFee(625),
		WithStampDuty(0.5, 2),
		WithInsurance(500),
		WithCurrency("USD"),
	)

	summary, err := generator.GenerateSummary(cfg)
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}

	if summary.TotalInterest != summary.Schedule[len(summary.Schedule)-1].CumulativeInterest {
		t.Errorf("TotalInterest %.6f differs from the schedule", summary.TotalInterest)
	}
	if math.Abs(summary.StampDuty-250) > 1e-9 {
		t.Errorf("StampDuty = %.6f, expected 250", summary.StampDuty)
	}
	if math.Abs(summary.InterestStampDuty-summary.TotalInterest*0.02) > 1e-9 {
		t.Errorf("InterestStampDuty = %.6f, expected 2%% of interest", summary.InterestStampDuty)
	}

	expected := summary.TotalAmount + summary.TotalInterest + summary.ProcessingFee +
		summary.OrganizationFee + summary.StampDuty + summary.InterestStampDuty + summary.Insurance
	if summary.TotalCost != expected {
		t.Errorf("TotalCost = %.6f, expected %.6f", summary.TotalCost, expected)
	}
	if summary.Currency != "USD" {
		t.Errorf("Currency = %s, expected USD", summary.Currency)
	}
	if summary.EffortRate != 0 || summary.HasCapacity || summary.AvailableIncome != 0 {
		t.Error("affordability fields should be empty before augmentation")
	}
}

func TestCalculateEffectiveRate(t *testing.T) {
	cfg := mustConfig(t, 100000, 12.0, 24,
		WithProcessingFee(1000),
		WithOrganizationFee(1250),
		WithStampDuty(0.5, 2),
	)

	taeg, err := CalculateEffectiveRate(cfg)
	if err != nil {
		t.Fatalf("CalculateEffectiveRate() error = %v", err)
	}

	payment := CalculateMonthlyPayment(100000, 12.0, 24)
	totalInterest := payment*24 - 100000
	totalCost := 1000 + 1250 + 500 + totalInterest + totalInterest*0.02
	expected := (math.Pow(totalCost/100000+1, 1/2.0) - 1) * 100
	if math.Abs(taeg-expected) > 1e-9 {
		t.Errorf("CalculateEffectiveRate() = %.6f, expected %.6f", taeg, expected)
	}

	// Fees make the effective rate grow.
	withoutFees, _ := CalculateEffectiveRate(mustConfig(t, 100000, 12.0, 24))
	if taeg <= withoutFees {
		t.Errorf("expected fees to raise the effective rate: %.4f <= %.4f", taeg, withoutFees)
	}
}

func TestCalculateEffectiveRateShortTerm(t *testing.T) {
	taeg, err := CalculateEffectiveRate(mustConfig(t, 10000, 18.75, 5))
	if err != nil {
		t.Fatalf("CalculateEffectiveRate() error = %v", err)
	}
	if math.IsNaN(taeg) || math.IsInf(taeg, 0) || taeg <= 0 {
		t.Errorf("expected a finite positive rate, got %v", taeg)
	}
}

func TestCalculateEffortRate(t *testing.T) {
	rate, err := CalculateEffortRate(3000, 10000)
	if err != nil {
		t.Fatalf("CalculateEffortRate() error = %v", err)
	}
	if math.Abs(rate-30) > 1e-9 {
		t.Errorf("CalculateEffortRate() = %.4f, expected 30", rate)
	}

	higherPayment, _ := CalculateEffortRate(3500, 10000)
	higherIncome, _ := CalculateEffortRate(3000, 12000)
	if higherPayment <= rate {
		t.Error("effort rate should increase with the payment")
	}
	if higherIncome >= rate {
		t.Error("effort rate should decrease with the income")
	}

	for _, income := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		if _, err := CalculateEffortRate(3000, income); !errors.Is(err, ErrInvalidLoanParameters) {
			t.Errorf("CalculateEffortRate(3000, %v) error = %v, expected ErrInvalidLoanParameters", income, err)
		}
	}
}

func TestZeroRateSummary(t *testing.T) {
	summary, err := NewScheduleGenerator(nil).GenerateSummary(mustConfig(t, 12000, 0, 12))
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if summary.MonthlyPayment != 1000 {
		t.Errorf("MonthlyPayment = %.4f, expected 1000", summary.MonthlyPayment)
	}
	if summary.TotalInterest != 0 {
		t.Errorf("TotalInterest = %.4f, expected 0", summary.TotalInterest)
	}
	if summary.Schedule[11].RemainingCapital != 0 {
		t.Errorf("final remaining capital = %.4f, expected 0", summary.Schedule[11].RemainingCapital)
	}
	if math.Abs(summary.EffectiveRate) > 1e-9 {
		t.Errorf("EffectiveRate = %.6f, expected 0", summary.EffectiveRate)
	}
}

func TestGenerateSummaryClosesSchedule(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		rate   float64
		term   int
	}{
		{"personal", 50000, 29.3, 24},
		{"long home loan", 5000000, 15.5, 480},
		{"zero rate", 1200, 0, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			generator := NewScheduleGenerator(zap.New(core))

			if _, err := generator.GenerateSummary(mustConfig(t, tt.amount, tt.rate, tt.term)); err != nil {
				t.Fatalf("GenerateSummary() error = %v", err)
			}
			if logs.Len() != 0 {
				t.Errorf("expected no warnings, got %v", logs.All())
			}
		})
	}
}

func TestGenerateSummaryRejectsNonFiniteResults(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		rate   float64
		term   int
		opts   []Option
	}{
		{"Payment overflows", 1e308, 29.3, 600, nil},
		{"Total cost overflows", 1.5e308, 0, 1, []Option{WithProcessingFee(1.5e308)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.amount, tt.rate, tt.term, tt.opts...)
			summary, err := NewScheduleGenerator(zap.NewNop()).GenerateSummary(cfg)
			if !errors.Is(err, ErrInvalidLoanParameters) {
				t.Fatalf("GenerateSummary() error = %v, expected ErrInvalidLoanParameters", err)
			}
			if summary.Schedule != nil {
				t.Errorf("expected an empty summary, got %d schedule entries", len(summary.Schedule))
			}
		})
	}
}

func TestGenerateSummaryFiniteAtMaximumTerm(t *testing.T) {
	cfg := mustConfig(t, 5000000, 29.3, 600,
		WithProcessingFee(50000), WithOrganizationFee(62500), WithStampDuty(0.5, 2), WithInsurance(125000))
	summary, err := NewScheduleGenerator(zap.NewNop()).GenerateSummary(cfg)
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}

	values := map[string]float64{
		"MonthlyPayment":    summary.MonthlyPayment,
		"TotalInterest":     summary.TotalInterest,
		"TotalPaid":         summary.TotalPaid,
		"TotalCost":         summary.TotalCost,
		"EffectiveRate":     summary.EffectiveRate,
		"InterestStampDuty": summary.InterestStampDuty,
	}
	for name, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Errorf("%s = %v, expected a finite number", name, value)
		}
	}
	if len(summary.Schedule) != 600 {
		t.Errorf("expected 600 entries, got %d", len(summary.Schedule))
	}
}

func TestCalculateEffortRateOverflow(t *testing.T) {
	if _, err := CalculateEffortRate(math.MaxFloat64, 1); !errors.Is(err, ErrInvalidLoanParameters) {
		t.Errorf("CalculateEffortRate() error = %v, expected ErrInvalidLoanParameters", err)
	}
}
