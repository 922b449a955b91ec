package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/api/apitest"
	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/middleware"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/capture"
	"github.com/findosh/moneymanager/internal/storage"
	"github.com/findosh/moneymanager/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	server  *apitest.Server
	db      *storage.DB
	handler *Handler
	surface []models.Theme
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.server = apitest.New(s.T())
	s.server.AddUser("Ada", "ada@example.com", "secret123", models.RoleUser)
	s.server.AddUser("Root", "root@example.com", "rootpass", models.RoleAdmin)

	db, err := storage.Open(":memory:")
	s.Require().NoError(err)
	s.db = db
	s.surface = nil

	cfg := &config.Config{APIBaseURL: s.server.APIURL(), RequestTimeout: 5 * time.Second, MaxUploadSize: 1 << 20}
	var sessions *store.SessionStore
	client := api.New(cfg, middleware.TokenFunc(func() string { return sessions.Token() }))
	sessions = store.NewSessionStore(client, storage.NewSlot[models.Session](db.Namespace("session"), "current"))
	prefs := store.NewPreferenceStore(storage.NewSlot[models.Preference](db.Namespace("preferences"), "current"), s)
	prefs.Load()

	s.handler = New(cfg, client, sessions, store.NewExpenses(), store.NewCategories(), prefs, capture.NewService(client, cfg, nil), nil)
}

func (s *HandlerSuite) TearDownTest() {
	s.db.Close()
}

// ApplyTheme records theme changes pushed by the preference store
func (s *HandlerSuite) ApplyTheme(theme models.Theme) {
	s.surface = append(s.surface, theme)
}

func (s *HandlerSuite) login(email, password string) {
	_, err := s.handler.Login(s.ctx, email, password)
	s.Require().NoError(err)
}

func (s *HandlerSuite) requestsTo(prefix string) int {
	n := 0
	for _, r := range s.server.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *HandlerSuite) TestAnonymousCallsNeverReachServer() {
	h := s.handler
	calls := map[string]func() error{
		"LoadExpenses": func() error { _, err := h.LoadExpenses(s.ctx, models.ExpenseFilter{}); return err },
		"CreateExpense": func() error {
			_, err := h.CreateExpense(s.ctx, models.ExpenseInput{})
			return err
		},
		"DeleteExpense":  func() error { return h.DeleteExpense(s.ctx, "e1") },
		"LoadCategories": func() error { _, err := h.LoadCategories(s.ctx); return err },
		"DeleteCategory": func() error { return h.DeleteCategory(s.ctx, "c1") },
		"Profile":        func() error { _, err := h.Profile(s.ctx); return err },
		"DeleteAccount":  func() error { return h.DeleteAccount(s.ctx) },
		"Dashboard":      func() error { _, err := h.Dashboard(s.ctx, models.Range7Days); return err },
		"LocalSummary":   func() error { _, err := h.LocalSummary(models.Range7Days); return err },
		"CaptureSMS":     func() error { _, err := h.CaptureSMS(s.ctx, "Paid $5 at Cafe"); return err },
		"AdminDashboard": func() error { _, err := h.AdminDashboard(s.ctx); return err },
		"Settings":       func() error { _, err := h.Settings(s.ctx); return err },
	}

	for name, call := range calls {
		s.ErrorIs(call(), ErrNotAuthenticated, name)
	}
	s.Empty(s.server.Requests())
}

func (s *HandlerSuite) TestAdminCallsRequireAdminRole() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	_, err := h.AdminDashboard(s.ctx)
	s.ErrorIs(err, ErrNotAdmin)
	_, err = h.Users(s.ctx, models.AdminUserFilter{})
	s.ErrorIs(err, ErrNotAdmin)
	s.ErrorIs(h.DeleteUser(s.ctx, "u1"), ErrNotAdmin)
	_, err = h.ResetSettings(s.ctx)
	s.ErrorIs(err, ErrNotAdmin)

	s.Zero(s.requestsTo("GET /api/admin"))
	s.Zero(s.requestsTo("POST /api/admin"))
	s.Zero(s.requestsTo("DELETE /api/admin"))
}

func (s *HandlerSuite) TestExpenseLifecycle() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	category, err := h.CreateCategory(s.ctx, models.CategoryInput{Name: "Food & Dining"})
	s.Require().NoError(err)
	s.Equal(models.DefaultCategoryColor, category.Color)
	s.Equal(1, h.Categories().Len())

	created, err := h.CreateExpense(s.ctx, models.ExpenseInput{
		Merchant: "Starbucks",
		Amount:   decimal.RequireFromString("12.50"),
		Category: "Food & Dining",
		Date:     time.Now(),
		Source:   models.SourceManual,
	})
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal(1, h.Expenses().Len())
	s.Equal(1, s.server.ExpenseCount("ada@example.com"))
	s.Equal("$12.50", h.Preferences().FormatCurrency(created.Amount))

	amount := decimal.RequireFromString("15")
	updated, err := h.UpdateExpense(s.ctx, created.ID, models.ExpensePatch{Amount: &amount})
	s.Require().NoError(err)
	s.True(amount.Equal(updated.Amount))
	cached, ok := h.Expenses().Find(created.ID)
	s.Require().True(ok)
	s.True(amount.Equal(cached.Amount))

	s.Require().NoError(h.DeleteExpense(s.ctx, created.ID))
	s.Zero(h.Expenses().Len())
	s.Zero(s.server.ExpenseCount("ada@example.com"))
}

func (s *HandlerSuite) TestLoadReplacesCache() {
	s.login("ada@example.com", "secret123")
	s.server.SeedExpense("ada@example.com", "Bakery", 4.5, "Food", time.Now().Add(-time.Hour), models.SourceManual)
	s.server.SeedExpense("ada@example.com", "Metro", 2.75, "Transport", time.Now(), models.SourceSMS)
	s.server.SeedCategory("ada@example.com", "Food", "#f97316", "🍔")

	h := s.handler
	h.Expenses().Insert(models.Expense{ID: "local-only"})

	list, err := h.LoadExpenses(s.ctx, models.ExpenseFilter{})
	s.Require().NoError(err)
	s.Len(list, 2)
	_, ok := h.Expenses().Find("local-only")
	s.False(ok)

	categories, err := h.LoadCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(categories, 1)
}

func (s *HandlerSuite) TestInvalidInputNeverReachesServer() {
	s.login("ada@example.com", "secret123")
	h := s.handler
	before := len(s.server.Requests())

	_, err := h.CreateExpense(s.ctx, models.ExpenseInput{Merchant: "Cafe", Category: "Food", Date: time.Now(), Source: models.SourceManual})
	var verr *models.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("amount", verr.Field)

	_, err = h.UpdateExpense(s.ctx, "e1", models.ExpensePatch{})
	s.ErrorAs(err, &verr)

	_, err = h.CreateCategory(s.ctx, models.CategoryInput{Name: "Bad", Color: "red"})
	s.ErrorAs(err, &verr)

	s.Len(s.server.Requests(), before)
	s.Zero(h.Expenses().Len())
}

func (s *HandlerSuite) TestServerFailureLeavesCacheUntouched() {
	s.login("ada@example.com", "secret123")
	s.server.Fail(http.MethodPost, "/api/expenses", http.StatusInternalServerError, "database unavailable")

	_, err := s.handler.CreateExpense(s.ctx, models.ExpenseInput{
		Merchant: "Cafe",
		Amount:   decimal.NewFromInt(3),
		Category: "Food",
		Date:     time.Now(),
		Source:   models.SourceManual,
	})

	var apiErr *api.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("database unavailable", apiErr.Message)
	s.Zero(s.handler.Expenses().Len())
	s.True(s.handler.Sessions().IsAuthenticated())
}

func (s *HandlerSuite) TestStaleExpenseResyncsCache() {
	s.login("ada@example.com", "secret123")
	keep := s.server.SeedExpense("ada@example.com", "Bakery", 4.5, "Food", time.Now(), models.SourceManual)
	gone := s.server.SeedExpense("ada@example.com", "Metro", 2.75, "Transport", time.Now(), models.SourceSMS)
	h := s.handler

	_, err := h.LoadExpenses(s.ctx, models.ExpenseFilter{})
	s.Require().NoError(err)
	s.Equal(2, h.Expenses().Len())

	s.server.DropExpense(gone)
	merchant := "Subway"
	_, err = h.UpdateExpense(s.ctx, gone, models.ExpensePatch{Merchant: &merchant})
	s.ErrorIs(err, api.ErrNotFound)

	s.Equal(1, h.Expenses().Len())
	_, ok := h.Expenses().Find(keep)
	s.True(ok)
	s.True(h.Sessions().IsAuthenticated())
}

func (s *HandlerSuite) TestStaleCategoryResyncsCache() {
	s.login("ada@example.com", "secret123")
	id := s.server.SeedCategory("ada@example.com", "Food", "#f97316", "🍔")
	h := s.handler

	_, err := h.LoadCategories(s.ctx)
	s.Require().NoError(err)

	s.server.DropCategory(id)
	s.ErrorIs(h.DeleteCategory(s.ctx, id), api.ErrNotFound)
	s.Zero(h.Categories().Len())
}

func (s *HandlerSuite) TestRejectedTokenLogsOut() {
	s.login("ada@example.com", "secret123")
	h := s.handler
	h.Expenses().Insert(models.Expense{ID: "e1"})
	h.Categories().Insert(models.Category{ID: "c1"})

	s.server.RevokeTokens()
	_, err := h.LoadExpenses(s.ctx, models.ExpenseFilter{})
	s.ErrorIs(err, api.ErrUnauthorized)

	s.False(h.Sessions().IsAuthenticated())
	s.Zero(h.Expenses().Len())
	s.Zero(h.Categories().Len())
}

func (s *HandlerSuite) TestProfile() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	profile, err := h.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal("Ada", profile.Name)

	name, phone, avatar := "Ada Lovelace", "+44 20 7946 0000", "🦉"
	updated, err := h.UpdateProfile(s.ctx, models.ProfileUpdate{Name: &name, Phone: &phone, Avatar: &avatar})
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.Equal(phone, updated.Phone)
	s.Equal(avatar, updated.Avatar)
	s.Equal("ada@example.com", updated.Email)
	s.Equal(updated, h.Sessions().Profile())

	short := "A"
	_, err = h.UpdateProfile(s.ctx, models.ProfileUpdate{Name: &short})
	var verr *models.ValidationError
	s.ErrorAs(err, &verr)
	s.Equal(name, h.Sessions().Profile().Name)
}

func (s *HandlerSuite) TestAvatarOnlyUpdateStaysLocal() {
	s.login("ada@example.com", "secret123")
	before := s.requestsTo("PUT /api/users/me")

	avatar := "🐙"
	profile, err := s.handler.UpdateProfile(s.ctx, models.ProfileUpdate{Avatar: &avatar})
	s.Require().NoError(err)
	s.Equal(avatar, profile.Avatar)
	s.Equal(before, s.requestsTo("PUT /api/users/me"))
}

func (s *HandlerSuite) TestChangePassword() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	err := h.ChangePassword(s.ctx, models.PasswordChange{CurrentPassword: "wrong-one", NewPassword: "newsecret", ConfirmPassword: "newsecret"})
	var apiErr *api.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Current password is incorrect", apiErr.Message)
	s.True(h.Sessions().IsAuthenticated())

	err = h.ChangePassword(s.ctx, models.PasswordChange{CurrentPassword: "secret123", NewPassword: "newsecret", ConfirmPassword: "different"})
	var verr *models.ValidationError
	s.ErrorAs(err, &verr)

	s.Require().NoError(h.ChangePassword(s.ctx, models.PasswordChange{CurrentPassword: "secret123", NewPassword: "newsecret", ConfirmPassword: "newsecret"}))
	h.Logout()
	_, err = h.Login(s.ctx, "ada@example.com", "newsecret")
	s.NoError(err)
}

func (s *HandlerSuite) TestDeleteAccount() {
	s.login("ada@example.com", "secret123")

	s.Require().NoError(s.handler.DeleteAccount(s.ctx))
	s.False(s.handler.Sessions().IsAuthenticated())

	_, err := s.handler.Login(s.ctx, "ada@example.com", "secret123")
	var credErr *api.CredentialsError
	s.ErrorAs(err, &credErr)
}

func (s *HandlerSuite) TestDashboards() {
	s.login("ada@example.com", "secret123")
	s.server.SeedCategory("ada@example.com", "Food", "#f97316", "🍔")
	s.server.SeedExpense("ada@example.com", "Bakery", 4.5, "Food", time.Now().Add(-time.Hour), models.SourceManual)
	s.server.SeedExpense("ada@example.com", "Metro", 2.75, "Transport", time.Now().Add(-2*time.Hour), models.SourceSMS)
	h := s.handler

	remote, err := h.Dashboard(s.ctx, models.Range7Days)
	s.Require().NoError(err)
	s.Equal(2, remote.TransactionCount)

	_, err = h.LoadExpenses(s.ctx, models.ExpenseFilter{})
	s.Require().NoError(err)
	_, err = h.LoadCategories(s.ctx)
	s.Require().NoError(err)

	local, err := h.LocalSummary(models.Range7Days)
	s.Require().NoError(err)
	s.Equal(remote.TransactionCount, local.TransactionCount)
	s.True(remote.TotalExpenses.Equal(local.TotalExpenses))
	s.Require().Len(local.CategoryBreakdown, 2)
	s.Equal("#f97316", local.CategoryBreakdown[0].Color)
	s.Equal(models.UncategorizedColor, local.CategoryBreakdown[1].Color)
}

func (s *HandlerSuite) TestCaptureThenConfirm() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	draft, err := h.CaptureSMS(s.ctx, "Your card was charged $18.40 at Corner Deli on 02/03")
	s.Require().NoError(err)
	s.Zero(h.Expenses().Len(), "drafts are not saved until confirmed")

	draft.Input.Category = "Food & Dining"
	expense, err := h.ConfirmDraft(s.ctx, draft)
	s.Require().NoError(err)

	s.Equal(models.SourceSMS, expense.Source)
	s.Equal("Corner Deli", expense.Merchant)
	s.Require().NotNil(expense.Payload)
	s.Contains(expense.Payload.RawText, "Corner Deli")
	s.Equal(1, h.Expenses().Len())
}

func (s *HandlerSuite) TestImportStatement() {
	_, err := s.handler.ParseStatement(strings.NewReader("date,merchant,amount\n"))
	s.ErrorIs(err, ErrNotAuthenticated)

	s.login("ada@example.com", "secret123")
	h := s.handler

	result, err := h.ParseStatement(strings.NewReader("Date,Payee,Amount\n2024-03-01,Starbucks,-4.50\n2024-03-02,Payroll,900\n2024-03-03,Uber Trip,-12.30\n"))
	s.Require().NoError(err)
	s.Require().Len(result.Rows, 2)
	s.Zero(s.server.ExpenseCount("ada@example.com"), "parsing does not save")

	created, err := h.ImportStatement(s.ctx, result)
	s.Require().NoError(err)
	s.Len(created, 2)
	s.Equal(2, s.server.ExpenseCount("ada@example.com"))
	s.Equal(2, h.Expenses().Len())
	s.Equal("Uber Trip", h.Expenses().Items()[0].Merchant)
}

func (s *HandlerSuite) TestImportStatementStopsAtFirstFailure() {
	s.login("ada@example.com", "secret123")
	h := s.handler

	result, err := h.ParseStatement(strings.NewReader("date,merchant,amount\n2024-03-01,Cafe,3\n2024-03-02,Cafe,4\n"))
	s.Require().NoError(err)

	s.server.Fail(http.MethodPost, "/api/expenses", http.StatusInternalServerError, "database unavailable")
	created, err := h.ImportStatement(s.ctx, result)
	s.Require().Error(err)
	s.Contains(err.Error(), "line 2:")
	s.Empty(created)
	s.Zero(h.Expenses().Len())
}

func (s *HandlerSuite) TestAdmin() {
	s.login("root@example.com", "rootpass")
	h := s.handler

	dash, err := h.AdminDashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, dash.TotalUsers)

	created, err := h.CreateUser(s.ctx, models.AdminUserInput{Name: "Grace", Email: "grace@example.com", Password: "hopper1"})
	s.Require().NoError(err)
	s.Equal(models.RoleUser, created.Role)

	users, err := h.Users(s.ctx, models.AdminUserFilter{Search: "grace"})
	s.Require().NoError(err)
	s.Require().Len(users, 1)

	suspended := models.StatusSuspended
	updated, err := h.UpdateUser(s.ctx, created.ID, models.AdminUserPatch{Status: &suspended})
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, updated.Status)

	_, err = h.UpdateUser(s.ctx, h.Sessions().Profile().ID, models.AdminUserPatch{Status: &suspended})
	var verr *models.ValidationError
	s.ErrorAs(err, &verr)
	s.ErrorAs(h.DeleteUser(s.ctx, h.Sessions().Profile().ID), &verr)

	_, err = h.Users(s.ctx, models.AdminUserFilter{Status: "banned"})
	s.ErrorAs(err, &verr)

	settings, err := h.UpdateSettings(s.ctx, models.SystemSettingsPatch{"maintenanceMode": true})
	s.Require().NoError(err)
	s.True(settings.MaintenanceMode)

	settings, err = h.ResetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultSystemSettings(), settings)

	s.Require().NoError(h.DeleteUser(s.ctx, created.ID))
	_, err = h.User(s.ctx, created.ID)
	s.ErrorIs(err, api.ErrNotFound)
}

func TestCheckExpiredIgnoresOtherErrors(t *testing.T) {
	server := apitest.New(t)
	server.AddUser("Ada", "ada@example.com", "secret123", models.RoleUser)

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{APIBaseURL: server.APIURL(), RequestTimeout: 5 * time.Second, MaxUploadSize: 1 << 20}
	var sessions *store.SessionStore
	client := api.New(cfg, middleware.TokenFunc(func() string { return sessions.Token() }))
	sessions = store.NewSessionStore(client, storage.NewSlot[models.Session](db.Namespace("session"), "current"))
	h := New(cfg, client, sessions, store.NewExpenses(), store.NewCategories(), nil, nil, nil)

	_, err = h.Login(context.Background(), "ada@example.com", "secret123")
	require.NoError(t, err)

	for _, cause := range []error{api.ErrNotFound, api.ErrForbidden, errors.New("boom"), nil} {
		assert.Equal(t, cause, h.checkExpired(cause))
		assert.True(t, sessions.IsAuthenticated())
	}
	assert.ErrorIs(t, h.checkExpired(&api.Error{StatusCode: http.StatusUnauthorized}), api.ErrUnauthorized)
	assert.False(t, sessions.IsAuthenticated())
}
