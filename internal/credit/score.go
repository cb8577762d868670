package credit

import (
	"time"

	"github.com/Dan9191/credit-service/internal/models"
	"github.com/shopspring/decimal"
)

// Score weights. The weighted parts sum to 100.
const (
	WithinLimitPoints = 10
	OnTimePoints      = 40
	LoanCountPoints   = 20
	ActivityPoints    = 15
	VolumePoints      = 15

	pointsPerClosedLoan = 5
	partialVolumePoints = 5

	MaxScore = 100
	MinScore = 0
)

var (
	fullVolumeRatio    = decimal.NewFromInt(1)
	partialVolumeRatio = decimal.RequireFromString("0.25")
	halfRatio          = decimal.RequireFromString("0.5")
)

// Score is a creditworthiness value in [0, 100]. LimitExceeded is set when the
// value was forced to zero because the requested loan would push the customer
// past the approved limit.
type Score struct {
	Value         int  `json:"value"`
	LimitExceeded bool `json:"limit_exceeded"`
}

// ComputeScore scores a customer against a pending request of requestedAmount.
// history is every loan on record for the customer; now fixes "today".
func ComputeScore(customer *models.Customer, history []models.Loan, requestedAmount decimal.Decimal, now time.Time) Score {
	if customer.CurrentDebt.Add(requestedAmount).GreaterThan(customer.ApprovedLimit) {
		return Score{Value: 0, LimitExceeded: true}
	}

	total := WithinLimitPoints +
		onTimeScore(history) +
		loanCountScore(history, now) +
		activityScore(history, now) +
		volumeScore(history, customer.ApprovedLimit)

	return Score{Value: clamp(total)}
}

func onTimeScore(history []models.Loan) int {
	paid, due := 0, 0
	for _, loan := range history {
		paid += loan.EMIsPaidOnTime
		due += loan.Tenure
	}
	if due <= 0 {
		return 0
	}
	ratio := decimal.NewFromInt(int64(paid)).Div(decimal.NewFromInt(int64(due)))
	if ratio.GreaterThan(one) {
		ratio = one
	}
	return int(ratio.Mul(decimal.NewFromInt(OnTimePoints)).Round(0).IntPart())
}

// loanCountScore rewards loans that have run their full course
func loanCountScore(history []models.Loan, now time.Time) int {
	closed := 0
	for _, loan := range history {
		if !loan.IsActive(now) {
			closed++
		}
	}
	return min(closed*pointsPerClosedLoan, LoanCountPoints)
}

// activityScore withholds its points when any loan opened this calendar year
// has paid fewer than half of the installments that have fallen due.
func activityScore(history []models.Loan, now time.Time) int {
	for _, loan := range history {
		if loan.StartDate.Year() != now.Year() {
			continue
		}
		elapsed := monthsBetween(loan.StartDate, now)
		if elapsed <= 0 {
			continue
		}
		ratio := decimal.NewFromInt(int64(loan.EMIsPaidOnTime)).Div(decimal.NewFromInt(int64(elapsed)))
		if ratio.LessThan(halfRatio) {
			return 0
		}
	}
	return ActivityPoints
}

func volumeScore(history []models.Loan, approvedLimit decimal.Decimal) int {
	if !approvedLimit.IsPositive() {
		return 0
	}
	volume := decimal.Zero
	for _, loan := range history {
		volume = volume.Add(loan.LoanAmount)
	}
	ratio := volume.Div(approvedLimit)
	switch {
	case ratio.GreaterThanOrEqual(fullVolumeRatio):
		return VolumePoints
	case ratio.GreaterThanOrEqual(partialVolumeRatio):
		return partialVolumePoints
	default:
		return 0
	}
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func clamp(score int) int {
	return max(MinScore, min(score, MaxScore))
}
