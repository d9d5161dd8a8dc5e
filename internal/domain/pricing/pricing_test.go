package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/domain/pricing"
)

func TestQuote_ThreeNightsWithTenPercentFee(t *testing.T) {
	b, err := pricing.Quote(10000, "usd", 3, pricing.DefaultCommissionBP)
	require.NoError(t, err)

	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, int64(10000), b.Nightly.Amount)
	assert.Equal(t, int64(30000), b.Subtotal.Amount)
	assert.Equal(t, int64(3000), b.ServiceFee.Amount)
	assert.Equal(t, int64(33000), b.Total.Amount)
	assert.Equal(t, int64(33000), b.TotalCents())
	assert.Equal(t, "USD", b.Total.Currency)
}

func TestQuote_FeeRoundsHalfUpOnCents(t *testing.T) {
	// 1 night at 10.05: fee is 1.005, which rounds up to 1.01.
	b, err := pricing.Quote(1005, "usd", 1, pricing.DefaultCommissionBP)
	require.NoError(t, err)
	assert.Equal(t, int64(101), b.ServiceFee.Amount)
	assert.Equal(t, int64(1106), b.Total.Amount)

	// 1 night at 10.04: fee is 1.004, which rounds down to 1.00.
	b, err = pricing.Quote(1004, "usd", 1, pricing.DefaultCommissionBP)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.ServiceFee.Amount)
	assert.Equal(t, int64(1104), b.Total.Amount)
}

func TestQuote_TotalIsExactSumOfLines(t *testing.T) {
	cases := []struct {
		rate   int64
		nights int
	}{
		{999, 1}, {1005, 7}, {12345, 13}, {100, 30},
	}
	for _, tc := range cases {
		b, err := pricing.Quote(tc.rate, "eur", tc.nights, pricing.DefaultCommissionBP)
		require.NoError(t, err)
		assert.Equal(t, b.Subtotal.Amount+b.ServiceFee.Amount, b.Total.Amount)
		assert.Equal(t, b.Nightly.Amount*int64(tc.nights), b.Subtotal.Amount)
	}
}

func TestQuote_RejectsInvalidInput(t *testing.T) {
	_, err := pricing.Quote(10000, "usd", 0, pricing.DefaultCommissionBP)
	assert.ErrorIs(t, err, pricing.ErrInvalidNights)

	_, err = pricing.Quote(10000, "usd", -2, pricing.DefaultCommissionBP)
	assert.ErrorIs(t, err, pricing.ErrInvalidNights)

	_, err = pricing.Quote(0, "usd", 3, pricing.DefaultCommissionBP)
	assert.ErrorIs(t, err, pricing.ErrInvalidRate)

	_, err = pricing.Quote(-100, "usd", 3, pricing.DefaultCommissionBP)
	assert.ErrorIs(t, err, pricing.ErrInvalidRate)
}
