package main

import (
	"fmt"

	"github.com/findosh/moneymanager/internal/models"
)

func (a *app) profileCommand(cmd *Command, args []string) error {
	sub, rest, err := subcommand(cmd, args, "show", "update", "password", "delete")
	if err != nil {
		return err
	}

	fs := cmd.NewFlagSet(a.stderr)
	name := fs.String("name", "", "New display name")
	phone := fs.String("phone", "", "New phone number")
	avatar := fs.String("avatar", "", "Avatar shown in this client only")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if _, err := parseFlags(fs, rest); err != nil {
		return err
	}
	set := setFlags(fs)

	ctx, cancel := a.requestContext()
	defer cancel()
	h := a.handler

	switch sub {
	case "update":
		var update models.ProfileUpdate
		if set["name"] {
			update.Name = name
		}
		if set["phone"] {
			update.Phone = phone
		}
		if set["avatar"] {
			update.Avatar = avatar
		}
		if update == (models.ProfileUpdate{}) {
			return models.NewValidationError("", "nothing to update (use --name, --phone or --avatar)")
		}
		p, err := h.UpdateProfile(ctx, update)
		if err != nil {
			return err
		}
		a.printf("%s Profile updated for %s\n", a.palette.Success("✓"), p.Name)
		return nil

	case "password":
		var change models.PasswordChange
		if change.CurrentPassword, err = a.readPassword("Current password: "); err != nil {
			return err
		}
		if change.NewPassword, err = a.readPassword("New password: "); err != nil {
			return err
		}
		if change.ConfirmPassword, err = a.readPassword("Confirm new password: "); err != nil {
			return err
		}
		if err := h.ChangePassword(ctx, change); err != nil {
			return err
		}
		a.printf("%s Password changed.\n", a.palette.Success("✓"))
		return nil

	case "delete":
		if !*yes {
			ok, err := a.confirm("Permanently delete your account and all of its expenses?")
			if err != nil {
				return err
			}
			if !ok {
				a.printf("Cancelled.\n")
				return nil
			}
		}
		if err := h.DeleteAccount(ctx); err != nil {
			return err
		}
		a.printf("%s Account deleted.\n", a.palette.Success("✓"))
		return nil
	}

	p, err := h.Profile(ctx)
	if err != nil {
		return err
	}
	a.printf("%s\n", a.palette.Heading(p.Name))
	a.printf("  Email:   %s\n", p.Email)
	a.printf("  Phone:   %s\n", orDash(p.Phone))
	a.printf("  Role:    %s\n", p.Role)
	if p.Avatar != "" {
		a.printf("  Avatar:  %s\n", p.Avatar)
	}
	if !p.CreatedAt.IsZero() {
		a.printf("  Joined:  %s\n", p.CreatedAt.Local().Format("January 2, 2006"))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
