package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]string{
		"$71,333,575":  "71333575",
		"71,333,575":   "71333575",
		"71333575":     "71333575",
		"$71.3M":       "71300000",
		"71.3M":        "71300000",
		"$91.9m":       "91900000",
		"$ 59,497,000": "59497000",
		"$0":           "0",
		"$12,345.67":   "12345",
	}
	for in, want := range cases {
		got, err := NormalizeCurrency(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestNormalizeCurrencyExactMillions(t *testing.T) {
	// Decimal arithmetic keeps .3M exact; float math would drift
	got, err := NormalizeCurrency("$71.3M")
	require.NoError(t, err)
	assert.Equal(t, "71300000", got)
}

func TestNormalizeCurrencyRejectsNonCurrency(t *testing.T) {
	for _, in := range []string{"", "-", "N/A", "total payroll"} {
		_, err := NormalizeCurrency(in)
		assert.Error(t, err, "input %q", in)
	}
}
