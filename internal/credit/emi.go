// Package credit holds the pure lending rules: installment arithmetic, the
// credit score and the eligibility policy. Nothing in here touches storage.
package credit

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks out-of-range numeric input
var ErrInvalidInput = errors.New("invalid input")

// CurrencyPlaces is the precision every money amount is rounded to
const CurrencyPlaces = 2

// MaxTenure keeps end dates within a century
const MaxTenure = 1200

// Upper bounds matching the numeric columns of the loans table
var (
	maxLoanAmount   = decimal.RequireFromString("999999999999.99")
	maxInterestRate = decimal.RequireFromString("999.99")
	maxInstallment  = decimal.RequireFromString("9999999999.99")
)

var (
	monthsPerYearPercent = decimal.NewFromInt(1200)
	one                  = decimal.NewFromInt(1)
)

// ValidateTerms rejects amounts, rates and tenures outside what a loan can be
// stored with: amount and rate carry at most CurrencyPlaces decimals
func ValidateTerms(amount, annualRate decimal.Decimal, tenureMonths int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: loan amount must be positive, got %s", ErrInvalidInput, amount)
	}
	if amount.GreaterThan(maxLoanAmount) {
		return fmt.Errorf("%w: loan amount must be at most %s, got %s", ErrInvalidInput, maxLoanAmount, amount)
	}
	if !amount.Equal(amount.Round(CurrencyPlaces)) {
		return fmt.Errorf("%w: loan amount has more than %d decimal places, got %s", ErrInvalidInput, CurrencyPlaces, amount)
	}
	if tenureMonths <= 0 || tenureMonths > MaxTenure {
		return fmt.Errorf("%w: tenure must be between 1 and %d months, got %d", ErrInvalidInput, MaxTenure, tenureMonths)
	}
	if annualRate.IsNegative() || annualRate.GreaterThan(maxInterestRate) {
		return fmt.Errorf("%w: interest rate must be between 0 and %s, got %s", ErrInvalidInput, maxInterestRate, annualRate)
	}
	if !annualRate.Equal(annualRate.Round(CurrencyPlaces)) {
		return fmt.Errorf("%w: interest rate has more than %d decimal places, got %s", ErrInvalidInput, CurrencyPlaces, annualRate)
	}
	return nil
}

// ComputeEMI returns the fixed monthly installment for a reducing-balance loan.
// An installment that rounds to zero or overflows its column is invalid.
func ComputeEMI(principal, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if err := ValidateTerms(principal, annualRate, tenureMonths); err != nil {
		return decimal.Zero, err
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	var emi decimal.Decimal
	if annualRate.IsZero() {
		emi = principal.Div(n)
	} else {
		r := annualRate.Div(monthsPerYearPercent)
		growth := one.Add(r).Pow(n)
		emi = principal.Mul(r).Mul(growth).Div(growth.Sub(one))
	}

	emi = emi.Round(CurrencyPlaces)
	if !emi.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: installment for %s over %d months rounds to zero", ErrInvalidInput, principal, tenureMonths)
	}
	if emi.GreaterThan(maxInstallment) {
		return decimal.Zero, fmt.Errorf("%w: installment %s exceeds %s", ErrInvalidInput, emi, maxInstallment)
	}
	return emi, nil
}
