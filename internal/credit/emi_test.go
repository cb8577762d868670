package credit

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEMI(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		tenure    int
		expected  string
	}{
		{name: "8 percent one year", principal: "100000", rate: "8", tenure: 12, expected: "8698.84"},
		{name: "12 percent one year", principal: "100000", rate: "12", tenure: 12, expected: "8884.88"},
		{name: "16 percent one year", principal: "100000", rate: "16", tenure: 12, expected: "9073.09"},
		{name: "fractional rate", principal: "500000", rate: "10.5", tenure: 24, expected: "23188.02"},
		{name: "zero rate", principal: "100000", rate: "0", tenure: 12, expected: "8333.33"},
		{name: "single month zero rate", principal: "2500", rate: "0", tenure: 1, expected: "2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeEMI(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.tenure)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestComputeEMIInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		tenure    int
	}{
		{name: "zero principal", principal: decimal.Zero, rate: decimal.NewFromInt(8), tenure: 12},
		{name: "negative principal", principal: decimal.NewFromInt(-1), rate: decimal.NewFromInt(8), tenure: 12},
		{name: "zero tenure", principal: decimal.NewFromInt(1000), rate: decimal.NewFromInt(8), tenure: 0},
		{name: "negative tenure", principal: decimal.NewFromInt(1000), rate: decimal.NewFromInt(8), tenure: -3},
		{name: "negative rate", principal: decimal.NewFromInt(1000), rate: decimal.NewFromFloat(-0.5), tenure: 12},
		{name: "sub-cent principal", principal: decimal.RequireFromString("0.001"), rate: decimal.NewFromInt(8), tenure: 12},
		{name: "three decimal principal", principal: decimal.RequireFromString("1000.005"), rate: decimal.NewFromInt(8), tenure: 12},
		{name: "principal above column range", principal: decimal.RequireFromString("1000000000000"), rate: decimal.NewFromInt(8), tenure: 12},
		{name: "rate above column range", principal: decimal.NewFromInt(1000), rate: decimal.NewFromInt(1000), tenure: 12},
		{name: "three decimal rate", principal: decimal.NewFromInt(1000), rate: decimal.RequireFromString("8.125"), tenure: 12},
		{name: "tenure above maximum", principal: decimal.NewFromInt(1000), rate: decimal.NewFromInt(8), tenure: MaxTenure + 1},
		{name: "installment rounds to zero", principal: decimal.RequireFromString("0.01"), rate: decimal.Zero, tenure: 12},
		{name: "installment above column range", principal: maxLoanAmount, rate: maxInterestRate, tenure: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeEMI(tt.principal, tt.rate, tt.tenure)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
		})
	}
}

func TestComputeEMIMonotonic(t *testing.T) {
	principals := []int64{1000, 50000, 100000, 2500000}
	tenures := []int{1, 6, 12, 36, 120}

	for _, tenure := range tenures {
		for _, p := range principals {
			prev := decimal.Zero
			for rate := int64(0); rate <= 30; rate += 2 {
				got, err := ComputeEMI(decimal.NewFromInt(p), decimal.NewFromInt(rate), tenure)
				require.NoError(t, err)
				assert.True(t, got.IsPositive())
				assert.True(t, got.GreaterThanOrEqual(prev), "rate %d tenure %d: %s < %s", rate, tenure, got, prev)
				prev = got
			}
		}

		prev := decimal.Zero
		for _, p := range principals {
			got, err := ComputeEMI(decimal.NewFromInt(p), decimal.NewFromInt(9), tenure)
			require.NoError(t, err)
			assert.True(t, got.GreaterThanOrEqual(prev))
			prev = got
		}
	}
}

func TestComputeEMIBounds(t *testing.T) {
	got, err := ComputeEMI(decimal.RequireFromString("0.01"), decimal.Zero, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.StringFixed(2))

	got, err = ComputeEMI(decimal.NewFromInt(100000), maxInterestRate, 12)
	require.NoError(t, err)
	assert.True(t, got.IsPositive())

	got, err = ComputeEMI(decimal.NewFromInt(1200000), decimal.NewFromInt(8), MaxTenure)
	require.NoError(t, err)
	assert.True(t, got.IsPositive())

	assert.NoError(t, ValidateTerms(maxLoanAmount, decimal.RequireFromString("8.25"), 12))
}
