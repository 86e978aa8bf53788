package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConverter() *Converter {
	return NewConverter(map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("0.92"),
		"jpy": decimal.RequireFromString("149.50"),
	})
}

func TestConvert_Success(t *testing.T) {
	c := newTestConverter()

	got, err := c.Convert(decimal.RequireFromString("20.00"), "EUR")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("18.40").Equal(got), "got %s", got)
}

func TestConvert_BaseCurrencyIsIdentity(t *testing.T) {
	c := newTestConverter()

	got, err := c.Convert(decimal.RequireFromString("13.37"), "USD")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("13.37").Equal(got))
}

func TestConvert_CaseInsensitive(t *testing.T) {
	c := newTestConverter()

	got, err := c.Convert(decimal.RequireFromString("1.00"), "jPy")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("149.50").Equal(got))
}

func TestConvert_RoundsHalfUp(t *testing.T) {
	c := NewConverter(map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("0.925"),
	})

	// 1.30 * 0.925 = 1.2025 -> 1.20; 0.30 * 0.925 = 0.2775 -> 0.28
	got, err := c.Convert(decimal.RequireFromString("0.30"), "EUR")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.28").Equal(got), "got %s", got)
}

func TestConvert_UnknownCurrency(t *testing.T) {
	c := newTestConverter()

	_, err := c.Convert(decimal.RequireFromString("10.00"), "GBP")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestSupported(t *testing.T) {
	c := newTestConverter()

	assert.True(t, c.Supported("eur"))
	assert.True(t, c.Supported("USD"))
	assert.False(t, c.Supported("GBP"))
}
