package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFeeTanzania(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   float64
	}{
		{name: "first band", amount: 500, want: 185},
		{name: "first band upper bound", amount: 999, want: 185},
		{name: "second band lower bound", amount: 1000, want: 360},
		{name: "top band lower bound", amount: 3000001, want: 12000},
		{name: "beyond top bound saturates", amount: 10000000, want: 12000},
		{name: "zero", amount: 0, want: 185},
		{name: "negative", amount: -100, want: 0},
		{name: "not a number", amount: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateFee(tt.amount, "Tanzania"))
		})
	}
}

func TestCalculateFeeRangeBoundaries(t *testing.T) {
	for _, country := range SupportedCountries() {
		ranges, ok := Ranges(country)
		require.True(t, ok)
		tbl, _ := lookup(country)

		for _, r := range ranges {
			bounds := []float64{r.Min}
			if !math.IsInf(r.Max, 1) {
				bounds = append(bounds, r.Max)
			}
			for _, amount := range bounds {
				want := r.Fee
				if tbl.Model == ModelCompound {
					want += math.Round(amount * tbl.TaxRate)
				}
				assert.Equal(t, want, CalculateFee(amount, country), "%s amount %.0f", country, amount)
			}
		}
	}
}

func TestRangesAreContiguous(t *testing.T) {
	for _, country := range SupportedCountries() {
		ranges, _ := Ranges(country)
		require.NotEmpty(t, ranges)

		assert.Equal(t, float64(0), ranges[0].Min, country)
		assert.True(t, math.IsInf(ranges[len(ranges)-1].Max, 1), country)
		for i := 1; i < len(ranges); i++ {
			assert.Equal(t, ranges[i-1].Max+1, ranges[i].Min, "%s band %d", country, i)
			assert.Less(t, ranges[i].Min, ranges[i].Max, "%s band %d", country, i)
		}
	}
}

func TestCalculateFeeUnsupportedCountry(t *testing.T) {
	for _, country := range []string{"", "Kenya", "nigeria", "tanzania-mainland"} {
		for _, amount := range []float64{-100, 0, 500, 1e9} {
			assert.Zero(t, CalculateFee(amount, country), "%q %v", country, amount)
		}
	}
}

func TestSupportsCashoutFees(t *testing.T) {
	tests := []struct {
		country string
		want    bool
	}{
		{"TANZANIA", true},
		{"tanzania", true},
		{"Tanzania", true},
		{" Uganda ", true},
		{"UGANDA", true},
		{"Kenya", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, SupportsCashoutFees(tt.country))
		})
	}
}

func TestUgandaBreakdown(t *testing.T) {
	amounts := []float64{700, 2500, 10000, 60001, 100000, 125000, 4000001, 9000000}

	for _, amount := range amounts {
		b := UgandaBreakdown(amount)
		assert.Equal(t, math.Round(amount*UgandaTaxRate), b.TaxAmount, "amount %.0f", amount)
		assert.Equal(t, b.WithdrawFee+b.TaxAmount, b.Total, "amount %.0f", amount)
		assert.Equal(t, CalculateFee(amount, "Uganda"), b.Total, "amount %.0f", amount)
	}

	b := UgandaBreakdown(100000)
	assert.Equal(t, CashoutFeeResult{WithdrawFee: 1925, TaxAmount: 500, Total: 2425}, b)
}

func TestUgandaNegativeAmountYieldsZero(t *testing.T) {
	assert.Zero(t, CalculateFee(-100, "Uganda"))
	assert.Equal(t, CashoutFeeResult{}, UgandaBreakdown(-100))
}

func TestGetBreakdownErrors(t *testing.T) {
	_, err := GetBreakdown(500, "Tanzania")
	assert.ErrorIs(t, err, ErrNoBreakdown)

	_, err = GetBreakdown(500, "Kenya")
	assert.ErrorIs(t, err, ErrUnsupportedCountry)
}

func TestLookupFeeDistinguishesMissingFee(t *testing.T) {
	_, err := LookupFee(500, "Kenya")
	assert.ErrorIs(t, err, ErrUnsupportedCountry)

	_, err = LookupFee(-1, "Tanzania")
	assert.ErrorIs(t, err, ErrNoMatchingRange)

	_, err = LookupFee(math.Inf(1), "Uganda")
	assert.ErrorIs(t, err, ErrNoMatchingRange)

	fee, err := LookupFee(1000, "tanzania")
	require.NoError(t, err)
	assert.Equal(t, float64(360), fee)
}

func TestRangesReturnsCopy(t *testing.T) {
	r, ok := Ranges("Tanzania")
	require.True(t, ok)
	r[0].Fee = 1

	assert.Equal(t, float64(185), CalculateFee(500, "Tanzania"))

	_, ok = Ranges("Kenya")
	assert.False(t, ok)
}

func TestSupportedCountries(t *testing.T) {
	assert.Equal(t, []string{"Tanzania", "Uganda"}, SupportedCountries())
}

func TestCurrency(t *testing.T) {
	c, ok := Currency("TANZANIA")
	assert.True(t, ok)
	assert.Equal(t, "TZS", c)

	c, ok = Currency("uganda")
	assert.True(t, ok)
	assert.Equal(t, "UGX", c)

	_, ok = Currency("kenya")
	assert.False(t, ok)
}
