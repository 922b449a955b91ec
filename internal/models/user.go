// Package models defines core domain types
package models

import (
	"net/mail"
	"strings"
	"time"
)

// Role is the authorization level of a principal
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus is the account state managed by administrators
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Valid reports whether s is a known status
func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Profile is the identity of the authenticated principal as returned by the API
type Profile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Phone      string     `json:"phone,omitempty"`
	Avatar     string     `json:"avatar,omitempty"`
	Status     UserStatus `json:"status,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// IsAdmin returns true if the profile carries the admin role
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileUpdate is a partial, server-confirmed change to a profile.
// Email is immutable by policy and therefore absent.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"-"`
}

// Apply merges the non-nil fields of u into p
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	return p
}

// Validate checks a profile update before it is sent to the API
func (u ProfileUpdate) Validate() error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if len(name) < 2 || len(name) > 100 {
			return NewValidationError("name", "must be between 2 and 100 characters")
		}
	}
	return nil
}

// Session represents the currently authenticated principal
type Session struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// IsAuthenticated is true if and only if a bearer token is held
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// RegisterInput contains registration data
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Validate performs the client-side field checks done before calling the API
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return NewValidationError("password", "is required")
	}
	if len(in.Password) < MinPasswordLength {
		return NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

// MinPasswordLength is the shortest password the API accepts
const MinPasswordLength = 6

// PasswordChange contains a password change request
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"-"`
}

// Validate checks the password change fields
func (c PasswordChange) Validate() error {
	if c.CurrentPassword == "" || c.NewPassword == "" || c.ConfirmPassword == "" {
		return NewValidationError("password", "all password fields are required")
	}
	if c.NewPassword != c.ConfirmPassword {
		return NewValidationError("confirm_password", "new passwords do not match")
	}
	if len(c.NewPassword) < MinPasswordLength {
		return NewValidationError("new_password", "must be at least 6 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email", "is not a valid address")
	}
	return nil
}
