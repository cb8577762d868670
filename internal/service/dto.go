package service

import "github.com/shopspring/decimal"

// RegisterRequest represents the data needed to register a customer
type RegisterRequest struct {
	FirstName     string          `json:"first_name" validate:"required,max=100"`
	LastName      string          `json:"last_name" validate:"required,max=100"`
	Age           int             `json:"age" validate:"required,gte=18"`
	MonthlyIncome decimal.Decimal `json:"monthly_income" validate:"required,gte=1"`
	PhoneNumber   int64           `json:"phone_number" validate:"required,gt=0"`
}

// LoanRequest is a loan application. It is only persisted once approved.
// InterestRate is a pointer so that a missing rate is told apart from 0%.
// The upper bounds match the loans table columns.
type LoanRequest struct {
	CustomerID   int64            `json:"customer_id" validate:"required,gt=0"`
	LoanAmount   decimal.Decimal  `json:"loan_amount" validate:"required,gt=0,lte=999999999999.99"`
	InterestRate *decimal.Decimal `json:"interest_rate" validate:"required,gte=0,lte=999.99"`
	Tenure       int              `json:"tenure" validate:"required,gt=0,lte=1200"`
}

// rate is the requested interest rate; only call it after validation
func (r LoanRequest) rate() decimal.Decimal {
	if r.InterestRate == nil {
		return decimal.Zero
	}
	return *r.InterestRate
}

// RegisterResult is returned after a successful registration
type RegisterResult struct {
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	ApprovedLimit decimal.Decimal `json:"approved_limit"`
	PhoneNumber   int64           `json:"phone_number"`
}

// EligibilityResult is the outcome of an eligibility check
type EligibilityResult struct {
	CustomerID            int64           `json:"customer_id"`
	Approved              bool            `json:"approval"`
	InterestRate          decimal.Decimal `json:"interest_rate"`
	CorrectedInterestRate decimal.Decimal `json:"corrected_interest_rate"`
	Tenure                int             `json:"tenure"`
	MonthlyInstallment    decimal.Decimal `json:"monthly_installment"`
	CreditScore           int             `json:"credit_score"`
	Reason                string          `json:"reason,omitempty"`
}

// CreateLoanResult is the outcome of a loan application
type CreateLoanResult struct {
	LoanID                *int64          `json:"loan_id"`
	CustomerID            int64           `json:"customer_id"`
	Approved              bool            `json:"loan_approved"`
	InterestRate          decimal.Decimal `json:"interest_rate"`
	CorrectedInterestRate decimal.Decimal `json:"corrected_interest_rate"`
	Tenure                int             `json:"tenure"`
	MonthlyInstallment    decimal.Decimal `json:"monthly_installment"`
	Message               string          `json:"message"`
	Reason                string          `json:"reason,omitempty"`
}

// CustomerSummary is the customer part of a loan view
type CustomerSummary struct {
	ID          int64  `json:"customer_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber int64  `json:"phone_number"`
	Age         int    `json:"age"`
}

// LoanDetails is a single loan with its borrower
type LoanDetails struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

// LoanSummary is one row of a customer's active loans
type LoanSummary struct {
	LoanID             int64           `json:"loan_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	RepaymentsLeft     int             `json:"repayments_left"`
}
