package models

import (
	"fmt"
	"strings"
)

// Theme is the display theme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggled returns the opposite theme
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme parses a theme name
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("unknown theme %q (use light or dark)", s)
}

// Currency is a display currency code. It controls formatting only.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyLKR Currency = "LKR"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// AllCurrencies returns the selectable currencies in display order
func AllCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyLKR, CurrencyEUR, CurrencyGBP}
}

// ParseCurrency parses a currency code, case-insensitively
func ParseCurrency(s string) (Currency, error) {
	code := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range AllCurrencies() {
		if c == code {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// Preference holds the viewer's display settings, independent of any account
type Preference struct {
	Theme    Theme    `json:"theme"`
	Currency Currency `json:"currency"`
}

// DefaultPreference is applied on first run
func DefaultPreference() Preference {
	return Preference{Theme: ThemeLight, Currency: CurrencyUSD}
}

// Normalize replaces unknown values with defaults, so a damaged snapshot
// still yields exactly one active theme and currency
func (p Preference) Normalize() Preference {
	def := DefaultPreference()
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		p.Theme = def.Theme
	}
	if _, err := ParseCurrency(string(p.Currency)); err != nil {
		p.Currency = def.Currency
	}
	return p
}
