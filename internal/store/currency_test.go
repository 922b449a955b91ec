package store

import (
	"testing"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		code   models.Currency
		amount string
		want   string
	}{
		{models.CurrencyUSD, "1234.5", "$1,234.50"},
		{models.CurrencyLKR, "1234.5", "Rs.1,234.50"},
		{models.CurrencyEUR, "1234.5", "€1,234.50"},
		{models.CurrencyGBP, "1234.5", "£1,234.50"},
		{models.CurrencyUSD, "12.50", "$12.50"},
		{models.CurrencyUSD, "0", "$0.00"},
		{models.CurrencyUSD, "999", "$999.00"},
		{models.CurrencyUSD, "1000", "$1,000.00"},
		{models.CurrencyUSD, "1234567.891", "$1,234,567.89"},
		{models.CurrencyUSD, "0.005", "$0.01"},
		{models.CurrencyUSD, "-1", "-$1.00"},
		{models.Currency("JPY"), "1234.5", "$1,234.50"},
		{models.Currency(""), "5", "$5.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code)+" "+tt.amount, func(t *testing.T) {
			got := FormatAmount(tt.code, decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount_RoundTrip(t *testing.T) {
	amounts := []string{"0", "0.01", "12.5", "999.99", "1000", "1234.5", "98765432.1", "-42.25"}

	for _, code := range models.AllCurrencies() {
		for _, raw := range amounts {
			amount := decimal.RequireFromString(raw)
			formatted := FormatAmount(code, amount)

			parsed, err := ParseAmount(formatted)
			require.NoError(t, err, formatted)
			assert.True(t, amount.Equal(parsed), "%s: got %s want %s", formatted, parsed, amount)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, s := range []string{"", "$", "Rs.", "abc", "$1.2.3"} {
		_, err := ParseAmount(s)
		assert.Error(t, err, s)
	}
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol(models.CurrencyUSD))
	assert.Equal(t, "Rs.", CurrencySymbol(models.CurrencyLKR))
	assert.Equal(t, "$", CurrencySymbol("XYZ"))
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"1":       "1",
		"123":     "123",
		"1234":    "1,234",
		"123456":  "123,456",
		"1234567": "1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, groupThousands(in), in)
	}
}
