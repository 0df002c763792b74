// Package output provides utilities for formatting and displaying simulation results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
	"github.com/iwvelando/loan-simulator/pkg/format"
	"github.com/iwvelando/loan-simulator/pkg/loans"
)

// Totals sums the schedule columns shown in the table footer.
type Totals struct {
	Interest     float64
	Payment      float64
	Amortization float64
}

// ScheduleTotals sums interest, payments and amortization over a schedule.
func ScheduleTotals(schedule []loans.PaymentScheduleEntry) Totals {
	var totals Totals
	for _, entry := range schedule {
		totals.Interest += entry.MonthlyInterest
		totals.Payment += entry.Payment
		totals.Amortization += entry.Amortization
	}
	return totals
}

// PrettyFormat outputs a human-readable rather than machine-readable summary
// followed by the amortization table.
func PrettyFormat(w io.Writer, summary simulation.Summary, l *format.Localizer) error {
	currency := summary.Currency
	lines := []string{
		fmt.Sprintf("--- Loan simulation: %s ---", summary.ProductLabel),
		fmt.Sprintf("Amount:            %s", l.Currency(summary.TotalAmount, currency)),
		fmt.Sprintf("Term:              %s months", l.Integer(summary.Term)),
		fmt.Sprintf("Interest rate:     %s", l.Percent(summary.InterestRate)),
		fmt.Sprintf("TAEG:              %s", l.Percent(summary.EffectiveRate)),
		fmt.Sprintf("Monthly payment:   %s", l.Currency(summary.MonthlyPayment, currency)),
		fmt.Sprintf("Total interest:    %s", l.Currency(summary.TotalInterest, currency)),
		fmt.Sprintf("Processing fee:    %s", l.Currency(summary.ProcessingFee, currency)),
		fmt.Sprintf("Organization fee:  %s", l.Currency(summary.OrganizationFee, currency)),
		fmt.Sprintf("Stamp duty:        %s", l.Currency(summary.StampDuty+summary.InterestStampDuty, currency)),
		fmt.Sprintf("Insurance:         %s", l.Currency(summary.Insurance, currency)),
		fmt.Sprintf("Total cost:        %s", l.Currency(summary.TotalCost, currency)),
		fmt.Sprintf("Effort rate:       %s", l.Percent(summary.EffortRate)),
		fmt.Sprintf("Available income:  %s", l.Currency(summary.AvailableIncome, currency)),
		fmt.Sprintf("Capacity:          %s", capacityLabel(summary.HasCapacity)),
	}
	if summary.DefaultedProduct {
		lines = append(lines, "Note: product not priced, default terms applied")
	}
	lines = append(lines,
		"",
		fmt.Sprintf("%-5s | %-10s | %16s | %14s | %14s | %14s", "Month", "Due date", "Remaining", "Interest", "Payment", "Amortization"),
		fmt.Sprintf("%-5s | %-10s | %16s | %14s | %14s | %14s", "_____", "__________", "_________", "________", "_______", "____________"),
	)
	for _, entry := range summary.Schedule {
		lines = append(lines, fmt.Sprintf("%5d | %-10s | %16s | %14s | %14s | %14s",
			entry.Month,
			datetime.FormatDueDate(entry.DueDate),
			l.Amount(entry.RemainingCapital),
			l.Amount(entry.MonthlyInterest),
			l.Amount(entry.Payment),
			l.Amount(entry.Amortization),
		))
	}
	totals := ScheduleTotals(summary.Schedule)
	lines = append(lines, fmt.Sprintf("%-5s | %-10s | %16s | %14s | %14s | %14s",
		"Total", "", "",
		l.Amount(totals.Interest),
		l.Amount(totals.Payment),
		l.Amount(totals.Amortization),
	))

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func capacityLabel(hasCapacity bool) string {
	if hasCapacity {
		return "yes"
	}
	return "no"
}

// CsvFormat outputs the amortization table in comma-separated value format,
// closed by a totals row.
func CsvFormat(w io.Writer, summary simulation.Summary) error {
	_, err := io.WriteString(w, CsvString(summary))
	return err
}

// CsvString renders the amortization table as CSV.
func CsvString(summary simulation.Summary) string {
	var b strings.Builder
	b.WriteString(`"month","due date","remaining capital","monthly interest","payment","amortization"` + "\n")
	for _, entry := range summary.Schedule {
		fmt.Fprintf(&b, `"%d","%s","%s","%s","%s","%s"`+"\n",
			entry.Month,
			datetime.FormatDueDate(entry.DueDate),
			format.Amount(entry.RemainingCapital),
			format.Amount(entry.MonthlyInterest),
			format.Amount(entry.Payment),
			format.Amount(entry.Amortization),
		)
	}
	totals := ScheduleTotals(summary.Schedule)
	fmt.Fprintf(&b, `"total","","","%s","%s","%s"`+"\n",
		format.Amount(totals.Interest),
		format.Amount(totals.Payment),
		format.Amount(totals.Amortization),
	)
	return b.String()
}
