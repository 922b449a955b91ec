package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

func (a *app) dashboardCommand(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	rangeName := fs.String("range", string(models.Range7Days), "Reporting window: 7days, 30days, 90days or year")
	local := fs.Bool("local", false, "Compute from the downloaded expense list instead of the server")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	r, err := models.ParseStatsRange(*rangeName)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	h := a.handler

	var stats models.DashboardStats
	if *local {
		if _, err := h.LoadExpenses(ctx, models.ExpenseFilter{}); err != nil {
			return err
		}
		if _, err := h.LoadCategories(ctx); err != nil {
			return err
		}
		stats, err = h.LocalSummary(r)
	} else {
		stats, err = h.Dashboard(ctx, r)
	}
	if err != nil {
		return err
	}

	a.printStats(r, stats)
	return nil
}

func (a *app) printStats(r models.StatsRange, stats models.DashboardStats) {
	prefs := a.handler.Preferences()
	a.printf("%s\n\n", a.palette.Heading(fmt.Sprintf("Last %d days", r.Days())))
	a.printf("  Total spent:   %s\n", a.palette.Amount(prefs.FormatCurrency(stats.TotalExpenses)))
	a.printf("  Transactions:  %d\n", stats.TransactionCount)
	a.printf("  Change:        %s%% vs previous period\n", signed(stats.MonthlyChange))

	if len(stats.CategoryBreakdown) > 0 {
		a.printf("\n%s\n", a.palette.Heading("By category"))
		table := NewTableWriter("CATEGORY", "COUNT", "AMOUNT", "SHARE")
		for _, c := range stats.CategoryBreakdown {
			share := decimal.Zero
			if stats.TotalExpenses.IsPositive() {
				share = c.Value.Div(stats.TotalExpenses).Mul(decimal.NewFromInt(100))
			}
			table.AddRow(c.Name, strconv.Itoa(c.Count), prefs.FormatCurrency(c.Value), share.StringFixed(1)+"%")
		}
		table.Print(a.stdout, a.palette.Heading)
	}

	if len(stats.SourceBreakdown) > 0 {
		parts := make([]string, 0, len(stats.SourceBreakdown))
		for _, s := range stats.SourceBreakdown {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ToUpper(s.Name), s.Value))
		}
		a.printf("\n%s %s\n", a.palette.Heading("By source:"), strings.Join(parts, " · "))
	}

	if len(stats.RecentTransactions) > 0 {
		a.printf("\n%s\n", a.palette.Heading("Recent"))
		for _, t := range stats.RecentTransactions {
			a.printf("  %s  %-24s %s\n", t.Date.Local().Format(time.DateOnly), t.Merchant, a.palette.Amount(prefs.FormatCurrency(t.Amount)))
		}
	}
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(1)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}
