package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Category defaults applied when the user leaves a field blank
const (
	DefaultCategoryColor = "#0ea5e9"
	DefaultCategoryIcon  = "📦"
	// UncategorizedColor is used for breakdowns of names with no matching category
	UncategorizedColor = "#6b7280"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category is a user-defined expense classification
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	Count     int       `json:"count"` // informational only
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// RecordID returns the canonical identifier
func (c Category) RecordID() string {
	return c.ID
}

// CategoryInput contains the fields of a new category
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// WithDefaults fills blank presentation hints
func (in CategoryInput) WithDefaults() CategoryInput {
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
	if in.Icon == "" {
		in.Icon = DefaultCategoryIcon
	}
	return in
}

// Validate checks the category fields
func (in CategoryInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if utf8.RuneCountInString(name) > 50 {
		return NewValidationError("name", "must be at most 50 characters")
	}
	if in.Color != "" && !colorPattern.MatchString(in.Color) {
		return NewValidationError("color", "must be a hex color like #0ea5e9")
	}
	if utf8.RuneCountInString(in.Icon) > 10 {
		return NewValidationError("icon", "must be at most 10 characters")
	}
	return nil
}

// CategoryPatch is a shallow update to a category
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// Apply shallow-merges the non-nil fields of p into c
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	return c
}

// Validate checks the fields that are set
func (p CategoryPatch) Validate() error {
	in := CategoryInput{Name: "-"}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Color != nil {
		if *p.Color == "" {
			return NewValidationError("color", "cannot be empty")
		}
		in.Color = *p.Color
	}
	if p.Icon != nil {
		in.Icon = *p.Icon
	}
	return in.Validate()
}
