package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// The backend serializes ids as either "id" or "_id" depending on the
// endpoint. Every wire record carries both and is mapped to the single
// canonical ID on decode, so nothing past this package sees the difference.

func canonicalID(id, alt string) string {
	if id != "" {
		return id
	}
	return alt
}

// timeLayouts covers RFC 3339 and the zone-less ISO form the backend emits
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// wireTime parses backend timestamps; zone-less values are taken as UTC
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	var s string
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t *wireTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type wireProfile struct {
	ID         string            `json:"id"`
	AltID      string            `json:"_id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       models.Role       `json:"role"`
	Phone      string            `json:"phone"`
	Avatar     string            `json:"avatar"`
	Status     models.UserStatus `json:"status"`
	CreatedAt  wireTime          `json:"created_at"`
	LastActive *wireTime         `json:"last_active"`
}

func (w wireProfile) model() models.Profile {
	role := w.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.Profile{
		ID:         canonicalID(w.ID, w.AltID),
		Name:       w.Name,
		Email:      w.Email,
		Role:       role,
		Phone:      w.Phone,
		Avatar:     w.Avatar,
		Status:     w.Status,
		CreatedAt:  w.CreatedAt.Time,
		LastActive: w.LastActive.ptr(),
	}
}

// ErrMalformedAuthResponse is returned when a successful auth response lacks
// its token or profile
var ErrMalformedAuthResponse = errors.New("authentication response is missing token or profile")

type authResponse struct {
	AccessToken string       `json:"access_token"`
	Token       string       `json:"token"`
	User        *wireProfile `json:"user"`
	Profile     *wireProfile `json:"profile"`
}

func (r authResponse) session() (models.Session, error) {
	token := r.AccessToken
	if token == "" {
		token = r.Token
	}
	profile := r.User
	if profile == nil {
		profile = r.Profile
	}
	if token == "" || profile == nil {
		return models.Session{}, ErrMalformedAuthResponse
	}
	return models.Session{Token: token, Profile: profile.model()}, nil
}

type wireReceiptItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func receiptItems(in []wireReceiptItem) []models.ReceiptItem {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.ReceiptItem, len(in))
	for i, item := range in {
		out[i] = models.ReceiptItem(item)
	}
	return out
}

type wireExpense struct {
	ID          string            `json:"id"`
	AltID       string            `json:"_id"`
	Merchant    string            `json:"merchant"`
	Amount      decimal.Decimal   `json:"amount"`
	Category    string            `json:"category"`
	Date        wireTime          `json:"date"`
	Source      models.Source     `json:"source"`
	Description string            `json:"description"`
	RawText     string            `json:"raw_text"`
	Items       []wireReceiptItem `json:"items"`
	Transcript  string            `json:"transcript"`
	UserID      string            `json:"user_id"`
	CreatedAt   wireTime          `json:"created_at"`
	UpdatedAt   *wireTime         `json:"updated_at"`
}

func (w wireExpense) model() models.Expense {
	source := w.Source
	if source == "" {
		source = models.SourceManual
	}
	e := models.Expense{
		ID:          canonicalID(w.ID, w.AltID),
		Merchant:    w.Merchant,
		Amount:      w.Amount,
		Category:    w.Category,
		Date:        w.Date.Time,
		Source:      source,
		Description: w.Description,
		UserID:      w.UserID,
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.ptr(),
	}
	payload := &models.SourcePayload{
		RawText:    w.RawText,
		Items:      receiptItems(w.Items),
		Transcript: w.Transcript,
	}
	if !payload.IsZero() {
		e.Payload = payload
	}
	return e
}

func expenses(in []wireExpense) []models.Expense {
	out := make([]models.Expense, len(in))
	for i, w := range in {
		out[i] = w.model()
	}
	return out
}

// expenseBody is the outbound create shape. Amounts go out as exact JSON
// numbers rather than through float64.
type expenseBody struct {
	Merchant    string        `json:"merchant"`
	Amount      json.Number   `json:"amount"`
	Category    string        `json:"category"`
	Date        string        `json:"date"`
	Description string        `json:"description,omitempty"`
	Source      models.Source `json:"source"`
	RawText     string        `json:"raw_text,omitempty"`
	Items       []wireItemOut `json:"items,omitempty"`
	Transcript  string        `json:"transcript,omitempty"`
}

type wireItemOut struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity,omitempty"`
	Price    json.Number `json:"price"`
}

func newExpenseBody(in models.ExpenseInput) expenseBody {
	body := expenseBody{
		Merchant:    in.Merchant,
		Amount:      json.Number(in.Amount.String()),
		Category:    in.Category,
		Date:        in.Date.UTC().Format(time.RFC3339),
		Description: in.Description,
		Source:      in.Source,
	}
	if p := in.Payload; !p.IsZero() {
		body.RawText = p.RawText
		body.Transcript = p.Transcript
		for _, item := range p.Items {
			body.Items = append(body.Items, wireItemOut{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    json.Number(item.Price.String()),
			})
		}
	}
	return body
}

type expensePatchBody struct {
	Merchant    *string      `json:"merchant,omitempty"`
	Amount      *json.Number `json:"amount,omitempty"`
	Category    *string      `json:"category,omitempty"`
	Date        *string      `json:"date,omitempty"`
	Description *string      `json:"description,omitempty"`
}

func newExpensePatchBody(p models.ExpensePatch) expensePatchBody {
	body := expensePatchBody{
		Merchant:    p.Merchant,
		Category:    p.Category,
		Description: p.Description,
	}
	if p.Amount != nil {
		n := json.Number(p.Amount.String())
		body.Amount = &n
	}
	if p.Date != nil {
		d := p.Date.UTC().Format(time.RFC3339)
		body.Date = &d
	}
	return body
}

type wireCategory struct {
	ID        string   `json:"id"`
	AltID     string   `json:"_id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	Icon      string   `json:"icon"`
	Count     int      `json:"count"`
	UserID    string   `json:"user_id"`
	CreatedAt wireTime `json:"created_at"`
}

func (w wireCategory) model() models.Category {
	c := models.Category{
		ID:        canonicalID(w.ID, w.AltID),
		Name:      w.Name,
		Color:     w.Color,
		Icon:      w.Icon,
		Count:     w.Count,
		UserID:    w.UserID,
		CreatedAt: w.CreatedAt.Time,
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = models.DefaultCategoryIcon
	}
	return c
}

type wireParsed struct {
	Merchant    string            `json:"merchant"`
	Amount      *decimal.Decimal  `json:"amount"`
	Category    string            `json:"category"`
	Date        *wireTime         `json:"date"`
	Description string            `json:"description"`
	Confidence  float64           `json:"confidence"`
	Items       []wireReceiptItem `json:"items"`
	Transcript  string            `json:"transcript"`
}

func (w wireParsed) model() models.ParsedExpense {
	return models.ParsedExpense{
		Merchant:    w.Merchant,
		Amount:      w.Amount,
		Category:    w.Category,
		Date:        w.Date.ptr(),
		Description: w.Description,
		Confidence:  w.Confidence,
		Items:       receiptItems(w.Items),
		Transcript:  w.Transcript,
	}
}

type wireRecent struct {
	ID       string          `json:"id"`
	AltID    string          `json:"_id"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     wireTime        `json:"date"`
	Source   models.Source   `json:"source"`
}

type wireStats struct {
	TotalExpenses      decimal.Decimal       `json:"totalExpenses"`
	MonthlyChange      decimal.Decimal       `json:"monthlyChange"`
	TransactionCount   int                   `json:"transactionCount"`
	CategoryBreakdown  []models.CategoryStat `json:"categoryBreakdown"`
	SourceBreakdown    []models.SourceStat   `json:"sourceBreakdown"`
	TrendData          []models.TrendPoint   `json:"trendData"`
	RecentTransactions []wireRecent          `json:"recentTransactions"`
}

func (w wireStats) model() models.DashboardStats {
	stats := models.DashboardStats{
		TotalExpenses:     w.TotalExpenses,
		MonthlyChange:     w.MonthlyChange,
		TransactionCount:  w.TransactionCount,
		CategoryBreakdown: w.CategoryBreakdown,
		SourceBreakdown:   w.SourceBreakdown,
		TrendData:         w.TrendData,
	}
	for _, r := range w.RecentTransactions {
		stats.RecentTransactions = append(stats.RecentTransactions, models.RecentTransaction{
			ID:       canonicalID(r.ID, r.AltID),
			Merchant: r.Merchant,
			Amount:   r.Amount,
			Category: r.Category,
			Date:     r.Date.Time,
			Source:   r.Source,
		})
	}
	return stats
}

type wireAdminUser struct {
	ID          string            `json:"id"`
	AltID       string            `json:"_id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Status      models.UserStatus `json:"status"`
	Role        models.Role       `json:"role"`
	Expenses    int               `json:"expenses"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	JoinDate    wireTime          `json:"joinDate"`
	LastActive  *wireTime         `json:"lastActive"`
	Avatar      string            `json:"avatar"`
}

func (w wireAdminUser) model() models.AdminUser {
	return models.AdminUser{
		ID:          canonicalID(w.ID, w.AltID),
		Name:        w.Name,
		Email:       w.Email,
		Phone:       w.Phone,
		Status:      w.Status,
		Role:        w.Role,
		Expenses:    w.Expenses,
		TotalAmount: w.TotalAmount,
		JoinDate:    w.JoinDate.Time,
		LastActive:  w.LastActive.ptr(),
		Avatar:      w.Avatar,
	}
}
