package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies how an expense was captured
type Source string

const (
	SourceSMS     Source = "sms"
	SourceReceipt Source = "receipt"
	SourceVoice   Source = "voice"
	SourceManual  Source = "manual"
)

// AllSources returns every capture source
func AllSources() []Source {
	return []Source{SourceSMS, SourceReceipt, SourceVoice, SourceManual}
}

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	for _, known := range AllSources() {
		if s == known {
			return true
		}
	}
	return false
}

// ReceiptItem is one itemized line read from a receipt
type ReceiptItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

// SourcePayload holds what the capture source produced. Only present for
// non-manual expenses.
type SourcePayload struct {
	RawText    string        `json:"raw_text,omitempty"`   // SMS body
	Items      []ReceiptItem `json:"items,omitempty"`      // receipt lines
	Transcript string        `json:"transcript,omitempty"` // voice memo
}

// IsZero reports whether the payload carries nothing
func (p *SourcePayload) IsZero() bool {
	return p == nil || (p.RawText == "" && len(p.Items) == 0 && p.Transcript == "")
}

// Expense is a single tracked transaction
type Expense struct {
	ID          string          `json:"id"`
	Merchant    string          `json:"merchant"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"` // Category name, advisory only
	Date        time.Time       `json:"date"`
	Source      Source          `json:"source"`
	Description string          `json:"description,omitempty"`
	Payload     *SourcePayload  `json:"payload,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// RecordID returns the canonical identifier
func (e Expense) RecordID() string {
	return e.ID
}

// Limits enforced by the API on expense fields
const (
	MaxMerchantLength    = 200
	MaxDescriptionLength = 500
)

// ExpenseInput contains the fields of a new expense
type ExpenseInput struct {
	Merchant    string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Source      Source
	Description string
	Payload     *SourcePayload
}

// Validate performs client-side checks before the create call
func (in ExpenseInput) Validate() error {
	merchant := strings.TrimSpace(in.Merchant)
	if merchant == "" {
		return NewValidationError("merchant", "is required")
	}
	if len(merchant) > MaxMerchantLength {
		return NewValidationError("merchant", "must be at most 200 characters")
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewValidationError("category", "is required")
	}
	if in.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if !in.Source.Valid() {
		return NewValidationError("source", "must be one of sms, receipt, voice, manual")
	}
	if len(in.Description) > MaxDescriptionLength {
		return NewValidationError("description", "must be at most 500 characters")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// ParseAmountInput parses a user-typed amount, rejecting malformed numbers
func ParseAmountInput(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("amount", "is required")
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", "is not a valid number")
	}
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ExpensePatch is a shallow update to an expense. Source is deliberately
// absent: it is immutable after creation.
type ExpensePatch struct {
	Merchant    *string
	Amount      *decimal.Decimal
	Category    *string
	Date        *time.Time
	Description *string
}

// Apply shallow-merges the non-nil fields of p into e
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Merchant != nil {
		e.Merchant = *p.Merchant
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e
}

// IsEmpty reports whether the patch changes nothing
func (p ExpensePatch) IsEmpty() bool {
	return p.Merchant == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.Description == nil
}

// Validate checks the fields that are set
func (p ExpensePatch) Validate() error {
	if p.Merchant != nil {
		merchant := strings.TrimSpace(*p.Merchant)
		if merchant == "" || len(merchant) > MaxMerchantLength {
			return NewValidationError("merchant", "must be between 1 and 200 characters")
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return NewValidationError("category", "cannot be empty")
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLength {
		return NewValidationError("description", "must be at most 500 characters")
	}
	return nil
}

// ExpenseFilter narrows an expense listing
type ExpenseFilter struct {
	Category  string
	Source    Source
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Skip      int
	Limit     int
}

// Query encodes the filter as API query parameters
func (f ExpenseFilter) Query() url.Values {
	q := url.Values{}
	if f.Category != "" && f.Category != "all" {
		q.Set("category", f.Category)
	}
	if f.Source != "" && f.Source != "all" {
		q.Set("source", string(f.Source))
	}
	if f.StartDate != nil {
		q.Set("start_date", f.StartDate.Format(time.RFC3339))
	}
	if f.EndDate != nil {
		q.Set("end_date", f.EndDate.Format(time.RFC3339))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ParsedExpense is what the backend extracted from an SMS, receipt, or voice memo
type ParsedExpense struct {
	Merchant    string
	Amount      *decimal.Decimal
	Category    string
	Date        *time.Time
	Description string
	Confidence  float64
	Items       []ReceiptItem
	Transcript  string
}
