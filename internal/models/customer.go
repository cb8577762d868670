package models

import "github.com/shopspring/decimal"

// Customer represents a borrower. CurrentDebt and TotalCurrentEMI are the
// aggregates of the customer's active loans and are only moved by the loan
// commit in the repository.
type Customer struct {
	ID              int64           `json:"customer_id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Age             int             `json:"age"`
	PhoneNumber     int64           `json:"phone_number"`
	MonthlySalary   decimal.Decimal `json:"monthly_income"`
	ApprovedLimit   decimal.Decimal `json:"approved_limit"`
	CurrentDebt     decimal.Decimal `json:"current_debt"`
	TotalCurrentEMI decimal.Decimal `json:"total_current_emi"`
}

// FullName returns "first last"
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
