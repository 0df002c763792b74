// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/loan-simulator/pkg/loans"
)

// FindEntry finds the schedule entry of a given month.
// Returns a pointer to the entry if found, nil otherwise.
func FindEntry(schedule []loans.PaymentScheduleEntry, month int) *loans.PaymentScheduleEntry {
	for i := range schedule {
		if schedule[i].Month == month {
			return &schedule[i]
		}
	}
	return nil
}

// AlmostEqual reports whether two amounts differ by no more than tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
