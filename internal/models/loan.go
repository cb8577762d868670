package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a loan in the system. Historic loans arrive through
// ingestion; new ones are created by the loan commit.
type Loan struct {
	ID                 int64           `json:"loan_id"`
	CustomerID         int64           `json:"customer_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	Tenure             int             `json:"tenure"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	EMIsPaidOnTime     int             `json:"emis_paid_on_time"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	CreatedAt          time.Time       `json:"created_at"`
}

// IsActive reports whether the loan is still running on the given day
func (l *Loan) IsActive(now time.Time) bool {
	return l.EndDate.After(now)
}

// RepaymentsLeft is the number of installments not yet paid on time
func (l *Loan) RepaymentsLeft() int {
	left := l.Tenure - l.EMIsPaidOnTime
	if left < 0 {
		return 0
	}
	return left
}
