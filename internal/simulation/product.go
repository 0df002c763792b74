// Package simulation turns applicant simulation requests into loan
// configurations, runs the amortization engine and adds affordability
// metrics to the result.
package simulation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProductType is returned for product types outside the catalogue.
var ErrUnknownProductType = errors.New("unknown product type")

// ProductType identifies a loan product.
type ProductType string

// Loan products offered by the simulator.
const (
	PersonalLoan ProductType = "personalLoan"
	HomeLoan     ProductType = "homeLoan"
	VehicleLoan  ProductType = "vehicleLoan"
	BusinessLoan ProductType = "businessLoan"
)

// ProductTypes lists every known product in display order.
func ProductTypes() []ProductType {
	return []ProductType{PersonalLoan, HomeLoan, VehicleLoan, BusinessLoan}
}

// ParseProductType matches a product identifier case-insensitively.
func ParseProductType(value string) (ProductType, error) {
	trimmed := strings.TrimSpace(value)
	for _, product := range ProductTypes() {
		if strings.EqualFold(trimmed, string(product)) {
			return product, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProductType, value)
}

// Label returns the customer-facing name of the product.
func (p ProductType) Label() string {
	switch p {
	case PersonalLoan:
		return "Crédito Pessoal"
	case HomeLoan:
		return "Crédito Habitação"
	case VehicleLoan:
		return "Leasing Mobiliário"
	case BusinessLoan:
		return "Leasing Imobiliário"
	default:
		return string(p)
	}
}

// ProductTerms are the pricing parameters of one product.
type ProductTerms struct {
	InterestRate         float64 `mapstructure:"interestRate" yaml:"interestRate" json:"interestRate"`
	ProcessingMultiplier float64 `mapstructure:"processingMultiplier" yaml:"processingMultiplier" json:"processingMultiplier"`
}

// Policy holds the business rules applied to every simulation.
type Policy struct {
	Products              map[ProductType]ProductTerms
	DefaultTerms          ProductTerms
	ProcessingFeeRate     float64
	OrganizationFeeRate   float64
	InsuranceAnnualRate   float64
	StampDutyRate         float64
	InterestStampDutyRate float64
	EffortRateThreshold   float64
	DefaultCurrency       string
	AllowUnknownProduct   bool
}

// Terms returns the pricing of a product. Unknown products resolve to the
// default terms only when the policy allows it; the boolean reports whether
// the fallback was used.
func (p Policy) Terms(product ProductType) (ProductTerms, bool, error) {
	if terms, ok := p.Products[product]; ok {
		return terms, false, nil
	}
	if p.AllowUnknownProduct {
		return p.DefaultTerms, true, nil
	}
	return ProductTerms{}, false, fmt.Errorf("%w: %q", ErrUnknownProductType, string(product))
}

// Catalogue returns the priced products in display order.
func (p Policy) Catalogue() []ProductType {
	var products []ProductType
	for _, product := range ProductTypes() {
		if _, ok := p.Products[product]; ok {
			products = append(products, product)
		}
	}
	return products
}
