// Package apitest provides an in-memory fake of the expense tracking backend
// for tests. It mirrors the real service's wire format, including "_id" keys
// and zone-less timestamps.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/go-chi/chi/v5"
)

const timeLayout = "2006-01-02T15:04:05"

type account struct {
	ID         string
	Name       string
	Email      string
	Password   string
	Phone      string
	Avatar     string
	Role       models.Role
	Status     models.UserStatus
	CreatedAt  time.Time
	LastActive *time.Time
}

type expense struct {
	ID          string
	UserID      string
	Merchant    string
	Amount      float64
	Category    string
	Date        time.Time
	Source      string
	Description string
	RawText     string
	Items       []any
	Transcript  string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type category struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
}

type failure struct {
	status int
	detail string
}

type ctxKey struct{}

// Server is a running fake backend. Its API root is APIURL().
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	seq        int
	accounts   map[string]*account // by email
	tokens     map[string]string   // token -> email
	expenses   []*expense
	categories []*category
	settings   map[string]any
	failures   map[string]failure
	requests   []string
	lastHeader http.Header
}

// New starts a fake backend; it is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		failures: make(map[string]failure),
	}
	s.resetSettings()
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL clients should be configured with
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/stats", s.handleStats)
			r.Get("/expenses/{id}", s.handleGetExpense)
			r.Put("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Get("/categories/{id}", s.handleGetCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Post("/parse/sms", s.handleParseSMS)
			r.Post("/parse/receipt", s.handleParseUpload("image/", "File must be an image", "Receipt"))
			r.Post("/parse/voice", s.handleParseUpload("audio/", "File must be an audio file", "Voice memo"))

			r.Get("/users/me", s.handleMe)
			r.Put("/users/me", s.handleUpdateMe)
			r.Delete("/users/me", s.handleDeleteMe)
			r.Post("/users/me/change-password", s.handleChangePassword)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/dashboard", s.handleAdminDashboard)
				r.Get("/users", s.handleAdminUsers)
				r.Post("/users", s.handleAdminCreateUser)
				r.Get("/users/{id}", s.handleAdminGetUser)
				r.Patch("/users/{id}", s.handleAdminUpdateUser)
				r.Delete("/users/{id}", s.handleAdminDeleteUser)
				r.Get("/users/{id}/expenses", s.handleAdminUserExpenses)
				r.Get("/settings", s.handleGetSettings)
				r.Patch("/settings", s.handleUpdateSettings)
				r.Post("/settings/reset", s.handleResetSettings)
			})
		})
	})
	return r
}

// AddUser registers an account directly and returns its profile
func (s *Server) AddUser(name, email, password string, role models.Role) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.addAccountLocked(name, email, password, role)
	return a.profile()
}

// SetStatus changes an account's status
func (s *Server) SetStatus(email string, status models.UserStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[email]; ok {
		a.Status = status
	}
}

// TokenFor issues a bearer token for an existing account
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(email)
}

// RevokeTokens invalidates every issued token, as an expiry would
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// SeedCategory stores a category for email and returns its id
func (s *Server) SeedCategory(email, name, color, icon string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &category{
		ID:        s.nextIDLocked("c"),
		UserID:    s.accounts[email].ID,
		Name:      name,
		Color:     color,
		Icon:      icon,
		CreatedAt: time.Now().UTC(),
	}
	s.categories = append(s.categories, c)
	return c.ID
}

// SeedExpense stores an expense for email and returns its id
func (s *Server) SeedExpense(email, merchant string, amount float64, categoryName string, date time.Time, source models.Source) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &expense{
		ID:        s.nextIDLocked("e"),
		UserID:    s.accounts[email].ID,
		Merchant:  merchant,
		Amount:    amount,
		Category:  categoryName,
		Date:      date.UTC(),
		Source:    string(source),
		CreatedAt: time.Now().UTC(),
	}
	s.expenses = append(s.expenses, e)
	return e.ID
}

// DropExpense deletes an expense behind the client's back
func (s *Server) DropExpense(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = filter(s.expenses, func(e *expense) bool { return e.ID != id })
}

// DropCategory deletes a category behind the client's back
func (s *Server) DropCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = filter(s.categories, func(c *category) bool { return c.ID != id })
}

// ExpenseCount returns the number of stored expenses for email
func (s *Server) ExpenseCount(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return 0
	}
	n := 0
	for _, e := range s.expenses {
		if e.UserID == a.ID {
			n++
		}
	}
	return n
}

// Fail makes every request to "METHOD /api/path" answer with status and detail
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Requests returns "METHOD /path" for every request received so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// LastHeader returns a header of the most recent request
func (s *Server) LastHeader(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader.Get(name)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, key)
		s.lastHeader = r.Header.Clone()
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		email, ok := s.tokens[token]
		a := s.accounts[email]
		s.mu.Unlock()

		if token == "" || !ok || a == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, a)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if current(r).Role != models.RoleAdmin {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func current(r *http.Request) *account {
	a, _ := r.Context().Value(ctxKey{}).(*account)
	return a
}

func (s *Server) addAccountLocked(name, email, password string, role models.Role) *account {
	a := &account{
		ID:        s.nextIDLocked("u"),
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      role,
		Status:    models.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[email] = a
	return a
}

func (s *Server) issueTokenLocked(email string) string {
	token := s.nextIDLocked("token-")
	s.tokens[token] = email
	return token
}

func (s *Server) nextIDLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *Server) accountByIDLocked(id string) *account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) resetSettings() {
	data, _ := json.Marshal(models.DefaultSystemSettings())
	s.settings = make(map[string]any)
	_ = json.Unmarshal(data, &s.settings)
}

func (a *account) profile() models.Profile {
	return models.Profile{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Phone:     a.Phone,
		Avatar:    a.Avatar,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

func (a *account) wire() map[string]any {
	m := map[string]any{
		"_id":        a.ID,
		"name":       a.Name,
		"email":      a.Email,
		"role":       a.Role,
		"phone":      nullable(a.Phone),
		"status":     a.Status,
		"created_at": a.CreatedAt.Format(timeLayout),
		"avatar":     nullable(a.Avatar),
	}
	if a.LastActive != nil {
		m["last_active"] = a.LastActive.Format(timeLayout)
	}
	return m
}

func (e *expense) wire() map[string]any {
	m := map[string]any{
		"_id":         e.ID,
		"user_id":     e.UserID,
		"merchant":    e.Merchant,
		"amount":      e.Amount,
		"category":    e.Category,
		"date":        e.Date.Format(timeLayout),
		"source":      e.Source,
		"description": nullable(e.Description),
		"created_at":  e.CreatedAt.Format(timeLayout),
	}
	if e.UpdatedAt != nil {
		m["updated_at"] = e.UpdatedAt.Format(timeLayout)
	}
	if e.RawText != "" {
		m["raw_text"] = e.RawText
	}
	if len(e.Items) > 0 {
		m["items"] = e.Items
	}
	if e.Transcript != "" {
		m["transcript"] = e.Transcript
	}
	return m
}

func (s *Server) categoryWireLocked(c *category) map[string]any {
	count := 0
	for _, e := range s.expenses {
		if e.UserID == c.UserID && e.Category == c.Name {
			count++
		}
	}
	return map[string]any{
		"_id":        c.ID,
		"user_id":    c.UserID,
		"name":       c.Name,
		"color":      c.Color,
		"icon":       c.Icon,
		"count":      count,
		"created_at": c.CreatedAt.Format(timeLayout),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func sortByDateDesc(items []*expense) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeValidation mimics FastAPI's 422 body
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
