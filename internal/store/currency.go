package store

import (
	"fmt"
	"strings"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// SymbolPosition places the currency symbol relative to the number
type SymbolPosition int

const (
	SymbolBefore SymbolPosition = iota
	SymbolAfter
)

// CurrencyFormat describes how amounts are rendered for one currency
type CurrencyFormat struct {
	Symbol   string
	Position SymbolPosition
	Decimals int32
}

var currencyFormats = map[models.Currency]CurrencyFormat{
	models.CurrencyUSD: {Symbol: "$", Position: SymbolBefore, Decimals: 2},
	models.CurrencyLKR: {Symbol: "Rs.", Position: SymbolBefore, Decimals: 2},
	models.CurrencyEUR: {Symbol: "€", Position: SymbolBefore, Decimals: 2},
	models.CurrencyGBP: {Symbol: "£", Position: SymbolBefore, Decimals: 2},
}

// FormatFor returns the descriptor for code, falling back to USD
func FormatFor(code models.Currency) CurrencyFormat {
	if f, ok := currencyFormats[code]; ok {
		return f
	}
	return currencyFormats[models.CurrencyUSD]
}

// FormatAmount renders amount under code's descriptor. No conversion is
// performed; only the label and layout change.
func FormatAmount(code models.Currency, amount decimal.Decimal) string {
	f := FormatFor(code)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(f.Decimals)
	whole, frac, _ := strings.Cut(fixed, ".")
	number := groupThousands(whole)
	if frac != "" {
		number += "." + frac
	}

	if f.Position == SymbolAfter {
		return sign + number + f.Symbol
	}
	return sign + f.Symbol + number
}

// ParseAmount recovers the magnitude from a string produced by FormatAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	text := strings.TrimSpace(s)
	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")

	// Longer symbols first so "Rs." is not mistaken for a bare number
	for _, code := range []models.Currency{models.CurrencyLKR, models.CurrencyUSD, models.CurrencyEUR, models.CurrencyGBP} {
		symbol := currencyFormats[code].Symbol
		if strings.HasPrefix(text, symbol) {
			text = strings.TrimPrefix(text, symbol)
			break
		}
		if strings.HasSuffix(text, symbol) {
			text = strings.TrimSuffix(text, symbol)
			break
		}
	}

	text = strings.ReplaceAll(text, ",", "")
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// CurrencySymbol returns the display symbol for code
func CurrencySymbol(code models.Currency) string {
	return FormatFor(code).Symbol
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
