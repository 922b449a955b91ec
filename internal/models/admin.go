package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AdminDashboard holds system-wide counters
type AdminDashboard struct {
	TotalUsers    int             `json:"totalUsers"`
	ActiveUsers   int             `json:"activeUsers"`
	TotalExpenses int             `json:"totalExpenses"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	UserGrowth    decimal.Decimal `json:"userGrowth"`
	ExpenseGrowth decimal.Decimal `json:"expenseGrowth"`
}

// AdminUser is a user row in the admin console
type AdminUser struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Status      UserStatus      `json:"status"`
	Role        Role            `json:"role"`
	Expenses    int             `json:"expenses"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	JoinDate    time.Time       `json:"joinDate"`
	LastActive  *time.Time      `json:"lastActive,omitempty"`
	Avatar      string          `json:"avatar,omitempty"`
}

// AdminUserFilter narrows the admin user listing
type AdminUserFilter struct {
	Status UserStatus
	Search string
	Skip   int
	Limit  int
}

// AdminUserInput creates a user from the admin console
type AdminUserInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Password string     `json:"password"`
	Role     Role       `json:"role"`
	Status   UserStatus `json:"status"`
}

// Validate checks the new user fields
func (in AdminUserInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 100 {
		return NewValidationError("name", "must be between 2 and 100 characters")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < MinPasswordLength {
		return NewValidationError("password", "must be at least 6 characters")
	}
	if in.Role != "" && !in.Role.Valid() {
		return NewValidationError("role", "must be user or admin")
	}
	if in.Status != "" && !in.Status.Valid() {
		return NewValidationError("status", "must be active, inactive or suspended")
	}
	return nil
}

// AdminUserPatch updates a user from the admin console
type AdminUserPatch struct {
	Name   *string     `json:"name,omitempty"`
	Email  *string     `json:"email,omitempty"`
	Phone  *string     `json:"phone,omitempty"`
	Status *UserStatus `json:"status,omitempty"`
	Role   *Role       `json:"role,omitempty"`
}

// Validate checks the fields that are set
func (p AdminUserPatch) Validate() error {
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "must be active, inactive or suspended")
	}
	if p.Role != nil && !p.Role.Valid() {
		return NewValidationError("role", "must be user or admin")
	}
	return nil
}

// SystemSettings is the admin-managed application configuration
type SystemSettings struct {
	SiteName                 string `json:"siteName"`
	SupportEmail             string `json:"supportEmail"`
	AllowRegistration        bool   `json:"allowRegistration"`
	RequireEmailVerification bool   `json:"requireEmailVerification"`
	EnableSMSParser          bool   `json:"enableSMSParser"`
	EnableReceiptOCR         bool   `json:"enableReceiptOCR"`
	EnableVoiceInput         bool   `json:"enableVoiceInput"`
	MaxFileSize              int    `json:"maxFileSize"`    // MB
	SessionTimeout           int    `json:"sessionTimeout"` // minutes
	PasswordMinLength        int    `json:"passwordMinLength"`
	EnableTwoFactor          bool   `json:"enableTwoFactor"`
	MaintenanceMode          bool   `json:"maintenanceMode"`
	APIRateLimit             int    `json:"apiRateLimit"`           // requests per hour
	DatabaseBackupInterval   int    `json:"databaseBackupInterval"` // hours
}

// DefaultSystemSettings mirrors the backend defaults
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		SiteName:                 "Smart Money Manager",
		SupportEmail:             "support@moneymanager.com",
		AllowRegistration:        true,
		RequireEmailVerification: true,
		EnableSMSParser:          true,
		EnableReceiptOCR:         true,
		EnableVoiceInput:         true,
		MaxFileSize:              10,
		SessionTimeout:           30,
		PasswordMinLength:        8,
		MaintenanceMode:          false,
		APIRateLimit:             1000,
		DatabaseBackupInterval:   24,
	}
}

// SystemSettingsPatch is a partial settings update, keyed by the API field names
type SystemSettingsPatch map[string]any
