package main

import (
	"fmt"
	"strings"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/store"
	"github.com/shopspring/decimal"
)

func (a *app) themeCommand(cmd *Command, args []string) error {
	prefs := a.handler.Preferences()
	if len(args) == 0 || args[0] == "show" {
		a.printf("Theme: %s\n", a.palette.Heading(string(prefs.Preference().Theme)))
		return nil
	}

	var theme models.Theme
	switch args[0] {
	case "toggle":
		theme = prefs.ToggleTheme()
	default:
		t, err := models.ParseTheme(args[0])
		if err != nil {
			return err
		}
		prefs.SetTheme(t)
		theme = prefs.Preference().Theme
	}
	a.printf("%s Theme set to %s\n", a.palette.Success("✓"), a.palette.Heading(string(theme)))
	return nil
}

func (a *app) currencyCommand(cmd *Command, args []string) error {
	prefs := a.handler.Preferences()
	if len(args) == 0 {
		current := prefs.Preference().Currency
		a.printf("Currency: %s (%s)\n", a.palette.Heading(string(current)), prefs.CurrencySymbol())
		codes := make([]string, 0, len(models.AllCurrencies()))
		for _, c := range models.AllCurrencies() {
			codes = append(codes, fmt.Sprintf("%s %s", c, store.CurrencySymbol(c)))
		}
		a.printf("%s\n", a.palette.Muted("Available: "+strings.Join(codes, ", ")))
		return nil
	}

	code, err := models.ParseCurrency(args[0])
	if err != nil {
		return err
	}
	prefs.SetCurrency(code)
	sample := prefs.FormatCurrency(decimal.RequireFromString("1234.5"))
	a.printf("%s Currency set to %s, amounts now look like %s\n", a.palette.Success("✓"), code, a.palette.Amount(sample))
	return nil
}
