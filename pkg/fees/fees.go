// Package fees computes mobile-money cashout fees from per-country range tables.
//
// CalculateFee is permissive: an unsupported country, an empty
// country or an amount outside every range all yield 0. A zero from
// CalculateFee therefore means "fee unknown" as often as "no fee". Use
// LookupFee when the caller needs to tell those apart.
package fees

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedCountry = errors.New("country has no cashout fee table")
	ErrNoMatchingRange    = errors.New("amount is outside every fee range")
	ErrNoBreakdown        = errors.New("country fee has no itemized breakdown")
)

// CashoutFeeResult itemizes a compound fee
type CashoutFeeResult struct {
	WithdrawFee float64 `json:"withdrawFee"`
	TaxAmount   float64 `json:"taxAmount"`
	Total       float64 `json:"total"`
}

func lookup(country string) (countryTable, bool) {
	t, ok := tables[strings.ToLower(strings.TrimSpace(country))]
	return t, ok
}

// SupportsCashoutFees reports whether a fee table exists for country
func SupportsCashoutFees(country string) bool {
	_, ok := lookup(country)
	return ok
}

// SupportedCountries returns the display names of countries with a fee table
func SupportedCountries() []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// CalculateFee returns the cashout fee for amount in the country's local
// currency, or 0 when the country or amount is not covered.
func CalculateFee(amount float64, country string) float64 {
	fee, err := LookupFee(amount, country)
	if err != nil {
		return 0
	}
	return fee
}

// LookupFee is CalculateFee with the reason for a missing fee made explicit
func LookupFee(amount float64, country string) (float64, error) {
	t, ok := lookup(country)
	if !ok {
		return 0, ErrUnsupportedCountry
	}
	res, err := t.calculate(amount)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// GetBreakdown itemizes the fee for compound-model countries. Total always
// equals CalculateFee(amount, country).
func GetBreakdown(amount float64, country string) (CashoutFeeResult, error) {
	t, ok := lookup(country)
	if !ok {
		return CashoutFeeResult{}, ErrUnsupportedCountry
	}
	if t.Model != ModelCompound {
		return CashoutFeeResult{}, ErrNoBreakdown
	}
	res, err := t.calculate(amount)
	if errors.Is(err, ErrNoMatchingRange) {
		return CashoutFeeResult{}, nil
	}
	return res, err
}

// UgandaBreakdown itemizes the Uganda withdraw fee and tax
func UgandaBreakdown(amount float64) CashoutFeeResult {
	res, _ := GetBreakdown(amount, "uganda")
	return res
}

func (t countryTable) calculate(amount float64) (CashoutFeeResult, error) {
	if math.IsInf(amount, 0) {
		return CashoutFeeResult{}, ErrNoMatchingRange
	}
	fee, ok := matchRange(t.Ranges, amount)
	if !ok {
		return CashoutFeeResult{}, ErrNoMatchingRange
	}
	if t.Model != ModelCompound {
		return CashoutFeeResult{WithdrawFee: fee, Total: fee}, nil
	}

	tax := roundTax(amount, t.TaxRate)
	return CashoutFeeResult{
		WithdrawFee: fee,
		TaxAmount:   tax,
		Total:       fee + tax,
	}, nil
}

// matchRange returns the fee of the first range containing amount
func matchRange(ranges []FeeRange, amount float64) (float64, bool) {
	for _, r := range ranges {
		if amount >= r.Min && amount <= r.Max {
			return r.Fee, true
		}
	}
	return 0, false
}

// roundTax computes round(amount * rate) in decimal to keep 0.5 boundaries exact
func roundTax(amount, rate float64) float64 {
	tax := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(0)
	return tax.InexactFloat64()
}
