package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/capture"
	"github.com/findosh/moneymanager/internal/store"
	"github.com/shopspring/decimal"
)

func (a *app) expensesCommand(cmd *Command, args []string) error {
	sub, rest, err := subcommand(cmd, args, "list", "add", "edit", "rm", "import")
	if err != nil {
		return err
	}
	switch sub {
	case "import":
		return a.importExpenses(cmd, rest)
	case "add":
		return a.addExpense(cmd, rest)
	case "edit":
		return a.editExpense(cmd, rest)
	case "rm":
		return a.removeExpense(cmd, rest)
	}
	return a.listExpenses(cmd, rest)
}

func (a *app) listExpenses(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	category := fs.String("category", "", "Only this category")
	source := fs.String("source", "", "Only this source (sms, receipt, voice, manual)")
	search := fs.String("search", "", "Match merchant or description")
	from := fs.String("from", "", "Start date (YYYY-MM-DD)")
	to := fs.String("to", "", "End date (YYYY-MM-DD)")
	limit := fs.Int("limit", 0, "Maximum number of expenses")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	filter := models.ExpenseFilter{
		Category: *category,
		Source:   models.Source(*source),
		Search:   *search,
		Limit:    *limit,
	}
	if *source != "" && *source != "all" && !filter.Source.Valid() {
		return models.NewValidationError("source", "must be one of sms, receipt, voice, manual")
	}
	if *from != "" {
		start, err := parseDate(*from)
		if err != nil {
			return err
		}
		filter.StartDate = &start
	}
	if *to != "" {
		end, err := parseDate(*to)
		if err != nil {
			return err
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	expenses, err := a.handler.LoadExpenses(ctx, filter)
	if err != nil {
		return err
	}

	if len(expenses) == 0 {
		a.printf("No expenses found.\n")
		return nil
	}

	prefs := a.handler.Preferences()
	total := decimal.Zero
	table := NewTableWriter("ID", "DATE", "MERCHANT", "CATEGORY", "SOURCE", "AMOUNT")
	for _, e := range expenses {
		total = total.Add(e.Amount)
		table.AddRow(e.ID, e.Date.Local().Format(time.DateOnly), e.Merchant, e.Category, string(e.Source), prefs.FormatCurrency(e.Amount))
	}
	table.Print(a.stdout, a.palette.Heading)
	a.printf("%d expenses, total %s\n", len(expenses), a.palette.Amount(prefs.FormatCurrency(total)))
	return nil
}

// expenseFlags are the editable expense fields shared by add, edit and capture
type expenseFlags struct {
	merchant    *string
	amount      *string
	category    *string
	date        *string
	description *string
}

func newExpenseFlags(fs *flag.FlagSet) *expenseFlags {
	return &expenseFlags{
		merchant:    fs.String("merchant", "", "Merchant name"),
		amount:      fs.String("amount", "", "Amount, e.g. 12.50 or $1,234.50"),
		category:    fs.String("category", "", "Category name"),
		date:        fs.String("date", "", "Date (YYYY-MM-DD, default today)"),
		description: fs.String("description", "", "Optional note"),
	}
}

func parseAmountFlag(s string) (decimal.Decimal, error) {
	amount, err := store.ParseAmount(s)
	if err != nil {
		return decimal.Zero, models.NewValidationError("amount", "is not a valid number")
	}
	return amount, nil
}

// applyTo overrides the draft fields given on the command line
func (f *expenseFlags) applyTo(in *models.ExpenseInput, set map[string]bool) error {
	if set["merchant"] {
		in.Merchant = *f.merchant
	}
	if set["amount"] {
		amount, err := parseAmountFlag(*f.amount)
		if err != nil {
			return err
		}
		in.Amount = amount
	}
	if set["category"] {
		in.Category = *f.category
	}
	if set["date"] {
		date, err := parseDate(*f.date)
		if err != nil {
			return err
		}
		in.Date = date
	}
	if set["description"] {
		in.Description = *f.description
	}
	return nil
}

func (a *app) addExpense(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	flags := newExpenseFlags(fs)
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	set := setFlags(fs)

	var in models.ExpenseInput
	if err := flags.applyTo(&in, set); err != nil {
		return err
	}
	if !set["amount"] {
		return models.NewValidationError("amount", "is required")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	in.Source = models.SourceManual

	ctx, cancel := a.requestContext()
	defer cancel()
	expense, err := a.handler.CreateExpense(ctx, in)
	if err != nil {
		return err
	}
	a.printExpenseSaved("Added", expense)
	return nil
}

func (a *app) editExpense(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	flags := newExpenseFlags(fs)
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if len(rest) != 1 {
		return fmt.Errorf("usage: moneymanager expenses edit [flags] <id>")
	}

	var patch models.ExpensePatch
	if set["merchant"] {
		patch.Merchant = flags.merchant
	}
	if set["amount"] {
		amount, err := parseAmountFlag(*flags.amount)
		if err != nil {
			return err
		}
		patch.Amount = &amount
	}
	if set["category"] {
		patch.Category = flags.category
	}
	if set["date"] {
		date, err := parseDate(*flags.date)
		if err != nil {
			return err
		}
		patch.Date = &date
	}
	if set["description"] {
		patch.Description = flags.description
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	expense, err := a.handler.UpdateExpense(ctx, rest[0], patch)
	if err != nil {
		return err
	}
	a.printExpenseSaved("Updated", expense)
	return nil
}

func (a *app) removeExpense(cmd *Command, args []string) error {
	rest, err := parseFlags(cmd.NewFlagSet(a.stderr), args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: moneymanager expenses rm <id>")
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	if err := a.handler.DeleteExpense(ctx, rest[0]); err != nil {
		return err
	}
	a.printf("%s Deleted expense %s\n", a.palette.Success("✓"), rest[0])
	return nil
}

func (a *app) importExpenses(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	yes := fs.Bool("yes", false, "Import without asking for confirmation")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: moneymanager expenses import [--yes] <statement.csv>")
	}

	f, err := os.Open(filepath.Clean(rest[0]))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", rest[0], err)
	}
	defer f.Close()

	result, err := a.handler.ParseStatement(f)
	if result != nil {
		for _, msg := range result.Errors {
			a.printf("%s %s\n", a.palette.Failure("skipped"), msg)
		}
	}
	if err != nil {
		return err
	}

	prefs := a.handler.Preferences()
	table := NewTableWriter("LINE", "DATE", "MERCHANT", "CATEGORY", "AMOUNT")
	for _, row := range result.Rows {
		in := row.Input
		table.AddRow(strconv.Itoa(row.Line), in.Date.Format(time.DateOnly), in.Merchant, in.Category, prefs.FormatCurrency(in.Amount))
	}
	table.Print(a.stdout, a.palette.Heading)
	a.printf("%s totalling %s (%s)\n", plural(len(result.Rows), "expense"), a.palette.Amount(prefs.FormatCurrency(result.Total())), result.Format)

	if !*yes {
		ok, err := a.confirm("Import these expenses?")
		if err != nil {
			return err
		}
		if !ok {
			a.printf("Discarded.\n")
			return nil
		}
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	created, err := a.handler.ImportStatement(ctx, result)
	if len(created) > 0 {
		a.printf("%s Imported %s\n", a.palette.Success("✓"), plural(len(created), "expense"))
	}
	return err
}

func (a *app) printExpenseSaved(verb string, e models.Expense) {
	amount := a.handler.Preferences().FormatCurrency(e.Amount)
	a.printf("%s %s %s at %s (%s, %s) [%s]\n",
		a.palette.Success("✓"), verb, a.palette.Amount(amount), e.Merchant, e.Category,
		e.Date.Local().Format(time.DateOnly), e.ID)
}

func (a *app) captureCommand(cmd *Command, args []string) error {
	sub, rest, err := subcommand(cmd, args, "sms", "receipt", "voice")
	if err != nil {
		return err
	}

	fs := cmd.NewFlagSet(a.stderr)
	flags := newExpenseFlags(fs)
	yes := fs.Bool("yes", false, "Save without asking for confirmation")
	if rest, err = parseFlags(fs, rest); err != nil {
		return err
	}
	set := setFlags(fs)
	if len(rest) != 1 {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}

	ctx, cancel := a.requestContext()
	defer cancel()

	var draft capture.Draft
	switch sub {
	case "sms":
		draft, err = a.handler.CaptureSMS(ctx, rest[0])
	case "receipt", "voice":
		draft, err = a.captureFile(ctx, sub, rest[0])
	}
	if err != nil {
		return err
	}
	if err := flags.applyTo(&draft.Input, set); err != nil {
		return err
	}

	a.printDraft(draft)
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("draft needs editing (use --merchant, --amount, --category, --date): %w", err)
	}
	if !*yes {
		ok, err := a.confirm("Save this expense?")
		if err != nil {
			return err
		}
		if !ok {
			a.printf("Discarded.\n")
			return nil
		}
	}

	expense, err := a.handler.ConfirmDraft(ctx, draft)
	if err != nil {
		return err
	}
	a.printExpenseSaved("Added", expense)
	return nil
}

func (a *app) captureFile(ctx context.Context, kind, path string) (capture.Draft, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return capture.Draft{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if kind == "voice" {
		return a.handler.CaptureVoice(ctx, f.Name(), f)
	}
	return a.handler.CaptureReceipt(ctx, f.Name(), f)
}

func (a *app) printDraft(d capture.Draft) {
	in := d.Input
	prefs := a.handler.Preferences()
	a.printf("%s\n", a.palette.Heading("Parsed "+string(in.Source)))
	a.printf("  Merchant:    %s\n", in.Merchant)
	a.printf("  Amount:      %s\n", a.palette.Amount(prefs.FormatCurrency(in.Amount)))
	a.printf("  Category:    %s\n", in.Category)
	a.printf("  Date:        %s\n", in.Date.Local().Format(time.DateOnly))
	if in.Description != "" {
		a.printf("  Description: %s\n", in.Description)
	}
	if p := in.Payload; p != nil {
		if p.Transcript != "" {
			a.printf("  Transcript:  %s\n", a.palette.Muted(p.Transcript))
		}
		for _, item := range p.Items {
			a.printf("  • %s %s\n", item.Name, prefs.FormatCurrency(item.Price))
		}
	}
	a.printf("  Confidence:  %.0f%%\n", d.Confidence*100)
}
