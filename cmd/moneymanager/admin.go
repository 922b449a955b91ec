package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"gopkg.in/yaml.v3"
)

func (a *app) adminCommand(cmd *Command, args []string) error {
	sub, rest, err := subcommand(cmd, args,
		"dashboard", "users", "user", "user-add", "user-edit", "user-rm", "user-expenses",
		"settings", "settings-set", "settings-reset")
	if err != nil {
		return err
	}

	fs := cmd.NewFlagSet(a.stderr)
	name := fs.String("name", "", "User name")
	email := fs.String("email", "", "User email")
	phone := fs.String("phone", "", "User phone")
	role := fs.String("role", "", "Role: user or admin")
	status := fs.String("status", "", "Status: active, inactive or suspended")
	password := fs.String("password", "", "Password for a new user (prompted when omitted)")
	search := fs.String("search", "", "Match name or email")
	skip := fs.Int("skip", 0, "Skip this many results")
	limit := fs.Int("limit", 0, "Maximum number of results")
	if rest, err = parseFlags(fs, rest); err != nil {
		return err
	}
	set := setFlags(fs)

	ctx, cancel := a.requestContext()
	defer cancel()
	h := a.handler

	needID := func() (string, error) {
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: moneymanager admin %s [flags] <user-id>", sub)
		}
		return rest[0], nil
	}

	switch sub {
	case "dashboard":
		d, err := h.AdminDashboard(ctx)
		if err != nil {
			return err
		}
		prefs := h.Preferences()
		a.printf("%s\n", a.palette.Heading("System overview"))
		a.printf("  Users:     %d (%d active, %s%% growth)\n", d.TotalUsers, d.ActiveUsers, signed(d.UserGrowth))
		a.printf("  Expenses:  %d (%s%% growth)\n", d.TotalExpenses, signed(d.ExpenseGrowth))
		a.printf("  Volume:    %s\n", a.palette.Amount(prefs.FormatCurrency(d.TotalAmount)))
		return nil

	case "users":
		users, err := h.Users(ctx, models.AdminUserFilter{
			Status: models.UserStatus(*status),
			Search: *search,
			Skip:   *skip,
			Limit:  *limit,
		})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			a.printf("No users found.\n")
			return nil
		}
		prefs := h.Preferences()
		table := NewTableWriter("ID", "NAME", "EMAIL", "ROLE", "STATUS", "EXPENSES", "TOTAL", "JOINED")
		for _, u := range users {
			table.AddRow(u.ID, u.Name, u.Email, string(u.Role), string(u.Status),
				strconv.Itoa(u.Expenses), prefs.FormatCurrency(u.TotalAmount), u.JoinDate.Local().Format(time.DateOnly))
		}
		table.Print(a.stdout, a.palette.Heading)
		return nil

	case "user":
		id, err := needID()
		if err != nil {
			return err
		}
		u, err := h.User(ctx, id)
		if err != nil {
			return err
		}
		a.printf("%s <%s>\n", a.palette.Heading(u.Name), u.Email)
		a.printf("  Role:     %s\n", u.Role)
		a.printf("  Status:   %s\n", u.Status)
		a.printf("  Phone:    %s\n", orDash(u.Phone))
		a.printf("  Expenses: %s totalling %s\n", plural(u.Expenses, "expense"), h.Preferences().FormatCurrency(u.TotalAmount))
		if u.LastActive != nil {
			a.printf("  Active:   %s\n", u.LastActive.Local().Format("2006-01-02 15:04"))
		}
		return nil

	case "user-add":
		in := models.AdminUserInput{
			Name:     *name,
			Email:    *email,
			Phone:    *phone,
			Password: *password,
			Role:     models.Role(*role),
			Status:   models.UserStatus(*status),
		}
		if in.Password == "" {
			if in.Password, err = a.readPassword("Password for new user: "); err != nil {
				return err
			}
		}
		p, err := h.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		a.printf("%s Created %s <%s> as %s [%s]\n", a.palette.Success("✓"), p.Name, p.Email, p.Role, p.ID)
		return nil

	case "user-edit":
		id, err := needID()
		if err != nil {
			return err
		}
		var patch models.AdminUserPatch
		if set["name"] {
			patch.Name = name
		}
		if set["email"] {
			patch.Email = email
		}
		if set["phone"] {
			patch.Phone = phone
		}
		if set["role"] {
			r := models.Role(*role)
			patch.Role = &r
		}
		if set["status"] {
			s := models.UserStatus(*status)
			patch.Status = &s
		}
		p, err := h.UpdateUser(ctx, id, patch)
		if err != nil {
			return err
		}
		a.printf("%s Updated %s (%s, %s)\n", a.palette.Success("✓"), p.Name, p.Role, p.Status)
		return nil

	case "user-rm":
		id, err := needID()
		if err != nil {
			return err
		}
		if err := h.DeleteUser(ctx, id); err != nil {
			return err
		}
		a.printf("%s Deleted user %s\n", a.palette.Success("✓"), id)
		return nil

	case "user-expenses":
		id, err := needID()
		if err != nil {
			return err
		}
		list, err := h.UserExpenses(ctx, id, *skip, *limit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			a.printf("No expenses.\n")
			return nil
		}
		prefs := h.Preferences()
		table := NewTableWriter("ID", "DATE", "MERCHANT", "CATEGORY", "SOURCE", "AMOUNT")
		for _, e := range list {
			table.AddRow(e.ID, e.Date.Local().Format(time.DateOnly), e.Merchant, e.Category, string(e.Source), prefs.FormatCurrency(e.Amount))
		}
		table.Print(a.stdout, a.palette.Heading)
		return nil

	case "settings-set":
		patch, err := parseSettings(rest)
		if err != nil {
			return err
		}
		settings, err := h.UpdateSettings(ctx, patch)
		if err != nil {
			return err
		}
		a.printSettings(settings)
		return nil

	case "settings-reset":
		settings, err := h.ResetSettings(ctx)
		if err != nil {
			return err
		}
		a.printf("%s Settings restored to defaults.\n", a.palette.Success("✓"))
		a.printSettings(settings)
		return nil
	}

	settings, err := h.Settings(ctx)
	if err != nil {
		return err
	}
	a.printSettings(settings)
	return nil
}

// parseSettings turns key=value pairs into a settings patch. Values are
// read as YAML scalars so true, 500 and "text" get their natural types.
func parseSettings(pairs []string) (models.SystemSettingsPatch, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("usage: moneymanager admin settings-set key=value [key=value...]")
	}
	patch := make(models.SystemSettingsPatch, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q (use key=value)", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if value == nil {
			value = ""
		}
		patch[key] = value
	}
	return patch, nil
}

func (a *app) printSettings(s models.SystemSettings) {
	rows := map[string]string{
		"siteName":                 s.SiteName,
		"supportEmail":             s.SupportEmail,
		"allowRegistration":        strconv.FormatBool(s.AllowRegistration),
		"requireEmailVerification": strconv.FormatBool(s.RequireEmailVerification),
		"enableSMSParser":          strconv.FormatBool(s.EnableSMSParser),
		"enableReceiptOCR":         strconv.FormatBool(s.EnableReceiptOCR),
		"enableVoiceInput":         strconv.FormatBool(s.EnableVoiceInput),
		"maxFileSize":              strconv.Itoa(s.MaxFileSize) + " MB",
		"sessionTimeout":           strconv.Itoa(s.SessionTimeout) + " min",
		"passwordMinLength":        strconv.Itoa(s.PasswordMinLength),
		"enableTwoFactor":          strconv.FormatBool(s.EnableTwoFactor),
		"maintenanceMode":          strconv.FormatBool(s.MaintenanceMode),
		"apiRateLimit":             strconv.Itoa(s.APIRateLimit) + " /hour",
		"databaseBackupInterval":   strconv.Itoa(s.DatabaseBackupInterval) + " h",
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := NewTableWriter("SETTING", "VALUE")
	for _, k := range keys {
		table.AddRow(k, rows[k])
	}
	table.Print(a.stdout, a.palette.Heading)
}
