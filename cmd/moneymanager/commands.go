package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

func registerCommands(r *CommandRegistry, a *app) {
	add := func(cmd *Command, run func(cmd *Command, args []string) error, needsState bool) {
		fn := func(args []string) error { return run(cmd, args) }
		if needsState {
			fn = a.withState(fn)
		}
		cmd.Run = fn
		r.Register(cmd)
	}

	add(&Command{
		Name:        "login",
		Description: "Log in to your account",
		Usage:       "moneymanager login [--password <password>] <email>",
		Examples: []string{
			"moneymanager login ada@example.com",
			"moneymanager login --password password123 user@demo.com",
		},
	}, a.loginCommand, true)

	add(&Command{
		Name:        "register",
		Description: "Create an account",
		Usage:       "moneymanager register --name <name> [--phone <phone>] [--password <password>] <email>",
		Examples: []string{
			"moneymanager register --name \"Ada Lovelace\" ada@example.com",
		},
	}, a.registerCommand, true)

	add(&Command{
		Name:        "logout",
		Description: "Log out and forget the stored session",
		Usage:       "moneymanager logout",
	}, a.logoutCommand, true)

	add(&Command{
		Name:        "whoami",
		Description: "Show the logged in account",
		Usage:       "moneymanager whoami",
	}, a.whoamiCommand, true)

	add(&Command{
		Name:        "expenses",
		Description: "List, add, edit, delete and import expenses",
		Usage:       "moneymanager expenses <list|add|edit|rm|import> [flags]",
		Examples: []string{
			"moneymanager expenses list --category \"Food & Dining\" --from 2024-01-01",
			"moneymanager expenses add --merchant Starbucks --amount 12.50 --category \"Food & Dining\"",
			"moneymanager expenses edit --amount 15 <id>",
			"moneymanager expenses rm <id>",
			"moneymanager expenses import --yes ./statement.csv",
		},
	}, a.expensesCommand, true)

	add(&Command{
		Name:        "categories",
		Description: "List, add, edit and delete categories",
		Usage:       "moneymanager categories <list|add|edit|rm> [flags]",
		Examples: []string{
			"moneymanager categories list",
			"moneymanager categories add --color \"#f97316\" --icon 🍔 \"Food & Dining\"",
			"moneymanager categories rm <id>",
		},
	}, a.categoriesCommand, true)

	add(&Command{
		Name:        "capture",
		Description: "Create an expense from an SMS, receipt image or voice memo",
		Usage:       "moneymanager capture <sms|receipt|voice> [flags] <text|file>",
		Examples: []string{
			"moneymanager capture sms \"Your card was charged $45.99 at Starbucks\"",
			"moneymanager capture receipt --category Groceries ./receipt.jpg",
			"moneymanager capture voice --yes ./memo.m4a",
		},
	}, a.captureCommand, true)

	add(&Command{
		Name:        "dashboard",
		Description: "Show spending statistics",
		Usage:       "moneymanager dashboard [--range 7days|30days|90days|year] [--local]",
		Examples: []string{
			"moneymanager dashboard",
			"moneymanager dashboard --range 30days --local",
		},
	}, a.dashboardCommand, true)

	add(&Command{
		Name:        "theme",
		Description: "Show or change the display theme",
		Usage:       "moneymanager theme [show|light|dark|toggle]",
	}, a.themeCommand, true)

	add(&Command{
		Name:        "currency",
		Description: "Show or change the display currency",
		Usage:       "moneymanager currency [USD|LKR|EUR|GBP]",
	}, a.currencyCommand, true)

	add(&Command{
		Name:        "profile",
		Description: "Manage your profile and password",
		Usage:       "moneymanager profile <show|update|password|delete> [flags]",
		Examples: []string{
			"moneymanager profile update --name \"Ada King\" --phone +441234567",
			"moneymanager profile password",
		},
	}, a.profileCommand, true)

	add(&Command{
		Name:        "admin",
		Description: "Administer users and system settings",
		Usage:       "moneymanager admin <dashboard|users|user|user-add|user-edit|user-rm|user-expenses|settings|settings-set|settings-reset> [flags]",
		Examples: []string{
			"moneymanager admin users --status active --search ada",
			"moneymanager admin user-edit --status suspended <id>",
			"moneymanager admin settings-set maintenanceMode=true apiRateLimit=500",
		},
	}, a.adminCommand, true)

	add(&Command{
		Name:        "version",
		Description: "Show version information",
		Usage:       "moneymanager version",
	}, func(cmd *Command, args []string) error {
		a.printf("moneymanager %s (commit %s, built %s)\n", r.version.Version, r.version.Commit, r.version.Date)
		return nil
	}, false)
}

// requestContext bounds one command's network calls
func (a *app) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*a.cfg.RequestTimeout+5*time.Second)
}

// subcommand splits "<sub> [args]" and reports a usage error when missing
func subcommand(cmd *Command, args []string, known ...string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%s: missing subcommand (usage: %s)", cmd.Name, cmd.Usage)
	}
	for _, k := range known {
		if args[0] == k {
			return args[0], args[1:], nil
		}
	}
	return "", nil, fmt.Errorf("%s: unknown subcommand %q (usage: %s)", cmd.Name, args[0], cmd.Usage)
}

// parseFlags parses args, returning the positional arguments
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

// setFlags returns the names of the flags given on the command line
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}
