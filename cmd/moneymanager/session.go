package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
)

func (a *app) loginCommand(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	password := fs.String("password", "", "Password (prompted when omitted)")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}
	email := strings.TrimSpace(rest[0])

	if *password == "" {
		if *password, err = a.readPassword("Password: "); err != nil {
			return err
		}
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	profile, err := a.handler.Login(ctx, email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.printf("%s Logged in as %s <%s>\n", a.palette.Success("✓"), profile.Name, profile.Email)
	if claims, err := a.handler.Sessions().Session().Claims(); err == nil && claims.Demo {
		a.printf("%s\n", a.palette.Muted("Server unreachable: using an offline demo account. Changes cannot be saved."))
	}
	return nil
}

func (a *app) registerCommand(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet(a.stderr)
	name := fs.String("name", "", "Full name")
	phone := fs.String("phone", "", "Phone number")
	password := fs.String("password", "", "Password (prompted when omitted)")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}

	if *password == "" {
		if *password, err = a.readPassword("Password: "); err != nil {
			return err
		}
		confirm, err := a.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != *password {
			return models.NewValidationError("password", "passwords do not match")
		}
	}

	ctx, cancel := a.requestContext()
	defer cancel()
	profile, err := a.handler.Register(ctx, models.RegisterInput{
		Name:     strings.TrimSpace(*name),
		Email:    strings.TrimSpace(rest[0]),
		Password: *password,
		Phone:    strings.TrimSpace(*phone),
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	a.printf("%s Welcome, %s! You are now logged in.\n", a.palette.Success("✓"), profile.Name)
	return nil
}

func (a *app) logoutCommand(cmd *Command, args []string) error {
	if _, err := parseFlags(cmd.NewFlagSet(a.stderr), args); err != nil {
		return err
	}
	if !a.handler.Sessions().IsAuthenticated() {
		a.printf("Not logged in.\n")
		return nil
	}
	a.handler.Logout()
	a.printf("%s Logged out.\n", a.palette.Success("✓"))
	return nil
}

func (a *app) whoamiCommand(cmd *Command, args []string) error {
	if _, err := parseFlags(cmd.NewFlagSet(a.stderr), args); err != nil {
		return err
	}

	session := a.handler.Sessions().Session()
	if !session.IsAuthenticated() {
		a.printf("Not logged in.\n")
		return nil
	}

	p := session.Profile
	a.printf("%s\n", a.palette.Heading(p.Name))
	a.printf("  Email:  %s\n", p.Email)
	a.printf("  Role:   %s\n", p.Role)
	if p.Phone != "" {
		a.printf("  Phone:  %s\n", p.Phone)
	}
	if p.Avatar != "" {
		a.printf("  Avatar: %s\n", p.Avatar)
	}

	claims, err := session.Claims()
	if err != nil {
		return nil
	}
	if claims.Demo {
		status := "offline demo session"
		if a.demo != nil {
			if _, err := a.demo.ValidateToken(session.Token); err != nil {
				status += " (" + err.Error() + ")"
			}
		}
		a.printf("  Mode:   %s\n", a.palette.Muted(status))
	}
	if claims.ExpiresAt != nil {
		label := "expires"
		if claims.Expired(time.Now()) {
			label = "expired"
		}
		a.printf("  Token:  %s %s\n", label, claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
