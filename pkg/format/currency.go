// Package format renders monetary amounts and rates for tables and exports.
package format

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/loan-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount returns value rounded half away from zero to two decimals with a dot
// separator and no grouping (e.g., "-1234.56"), for machine-readable output.
func Amount(value float64) string {
	if !mathutil.IsFinite(value) {
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
	return decimal.NewFromFloat(value).StringFixed(2)
}

// Percent returns a two-decimal percentage (e.g., "29.30%").
func Percent(value float64) string {
	return Amount(value) + "%"
}

// Localizer renders numbers with the separators of a language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer parses a BCP 47 tag such as "pt-PT" or "en".
func NewLocalizer(locale string) (*Localizer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag)}, nil
}

// Tag returns the language the localizer formats for.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Amount returns a grouped two-decimal number, e.g. "1.234,56" for pt-PT or
// "1,234.56" for English.
func (l *Localizer) Amount(value float64) string {
	return l.printer.Sprintf("%.2f", rounded(value))
}

// Currency returns a localized amount followed by the currency code.
func (l *Localizer) Currency(value float64, code string) string {
	return l.Amount(value) + " " + code
}

// Percent returns a localized two-decimal percentage.
func (l *Localizer) Percent(value float64) string {
	return l.Amount(value) + "%"
}

// Integer returns a grouped integer.
func (l *Localizer) Integer(value int) string {
	return l.printer.Sprintf("%d", value)
}

// rounded avoids rendering float noise such as -0.00 for tiny negative residues.
func rounded(value float64) float64 {
	if !mathutil.IsFinite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}
