package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestCalculatorCompute checks commission amounts at the default 10% rate.
func TestCalculatorCompute(t *testing.T) {
	calc, err := NewCalculator(DefaultRateBps)
	require.NoError(t, err)

	tests := []struct {
		name       string
		fee        int64
		commission int64
	}{
		{"standard fee 500.00", 50000, 5000},
		{"fee 1000.00", 100000, 10000},
		{"zero fee", 0, 0},
		{"commission floors to the cent", 5, 0},
		{"fee 0.99", 99, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := calc.Compute(tt.fee)
			assert.Equal(t, tt.fee, s.FeeCharged)
			assert.Equal(t, tt.commission, s.Commission)
			assert.Equal(t, DefaultRateBps, s.RateBps)
		})
	}
}

// TestNewCalculatorValidation rejects rates outside [0, 10000] bps.
func TestNewCalculatorValidation(t *testing.T) {
	_, err := NewCalculator(-1)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewCalculator(10001)
	assert.ErrorIs(t, err, ErrInvalidRate)

	calc, err := NewCalculator(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), calc.Compute(50000).Commission)
}

// TestSplitHalves verifies the two shares always sum to the fee and the odd
// cent lands on the first share.
func TestSplitHalves(t *testing.T) {
	first, second := SplitHalves(501)
	assert.Equal(t, int64(251), first)
	assert.Equal(t, int64(250), second)

	rapid.Check(t, func(t *rapid.T) {
		fee := rapid.Int64Range(0, 1_000_000_00).Draw(t, "fee")
		a, b := SplitHalves(fee)
		if a+b != fee {
			t.Fatalf("halves do not sum to fee: %d + %d != %d", a, b, fee)
		}
		if a-b != 0 && a-b != 1 {
			t.Fatalf("shares differ by more than the odd cent: %d vs %d", a, b)
		}
	})
}

// TestCommissionNeverExceedsFee holds for any valid rate.
func TestCommissionNeverExceedsFee(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.IntRange(0, 10000).Draw(t, "rate")
		fee := rapid.Int64Range(0, 1_000_000_00).Draw(t, "fee")

		calc, err := NewCalculator(rate)
		if err != nil {
			t.Fatalf("unexpected error for rate %d: %v", rate, err)
		}
		s := calc.Compute(fee)
		if s.Commission < 0 || s.Commission > fee {
			t.Fatalf("commission %d out of range for fee %d at %d bps", s.Commission, fee, rate)
		}
	})
}
