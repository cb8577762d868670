package credit

import (
	"github.com/Dan9191/credit-service/internal/models"
	"github.com/shopspring/decimal"
)

// Reason explains a rejection
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonEMIBurden     Reason = "EMI burden exceeds 50% of salary"
	ReasonLimitExceeded Reason = "requested loan exceeds approved limit"
	ReasonLowScore      Reason = "credit score too low"
)

// Tier is one row of the score policy. A score belongs to the tier when
// Lower < score <= Upper.
type Tier struct {
	Lower   int
	Upper   int
	MinRate decimal.Decimal
}

func (t Tier) contains(score int) bool {
	return score > t.Lower && score <= t.Upper
}

// tiers is evaluated in order; a score that matches none is rejected.
var tiers = []Tier{
	{Lower: 50, Upper: MaxScore, MinRate: decimal.Zero},
	{Lower: 30, Upper: 50, MinRate: decimal.NewFromInt(12)},
	{Lower: 10, Upper: 30, MinRate: decimal.NewFromInt(16)},
}

// maxEMIShareOfSalary caps the customer's running EMIs as a share of salary
var maxEMIShareOfSalary = decimal.RequireFromString("0.5")

// Decision is the outcome of an eligibility check
type Decision struct {
	Approved           bool
	Score              Score
	RequestedRate      decimal.Decimal
	CorrectedRate      decimal.Decimal
	MonthlyInstallment decimal.Decimal
	Reason             Reason
}

// Decide applies the eligibility policy. A rejection is a regular Decision;
// the error is only set for invalid amounts, rate or tenure.
func Decide(score Score, customer *models.Customer, requestedRate, requestedAmount decimal.Decimal, tenure int) (Decision, error) {
	if err := ValidateTerms(requestedAmount, requestedRate, tenure); err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Score:              score,
		RequestedRate:      requestedRate,
		CorrectedRate:      requestedRate,
		MonthlyInstallment: decimal.Zero,
	}

	if customer.TotalCurrentEMI.GreaterThan(customer.MonthlySalary.Mul(maxEMIShareOfSalary)) {
		decision.Reason = ReasonEMIBurden
		return decision, nil
	}
	if score.LimitExceeded {
		decision.Reason = ReasonLimitExceeded
		return decision, nil
	}

	tier, ok := tierFor(score.Value)
	if !ok {
		decision.Reason = ReasonLowScore
		return decision, nil
	}

	if requestedRate.LessThan(tier.MinRate) {
		decision.CorrectedRate = tier.MinRate
	}

	emi, err := ComputeEMI(requestedAmount, decision.CorrectedRate, tenure)
	if err != nil {
		return Decision{}, err
	}

	decision.Approved = true
	decision.MonthlyInstallment = emi
	return decision, nil
}

// PolicyTiers returns a copy of the score tiers in evaluation order
func PolicyTiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

func tierFor(score int) (Tier, bool) {
	for _, tier := range tiers {
		if tier.contains(score) {
			return tier, true
		}
	}
	return Tier{}, false
}
