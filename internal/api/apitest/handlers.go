package apitest

import (
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[body.Email]
	if !ok || a.Password != body.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if a.Status == models.StatusSuspended {
		writeDetail(w, http.StatusForbidden, "Account is suspended")
		return
	}
	now := time.Now().UTC()
	a.LastActive = &now
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.issueTokenLocked(a.Email),
		"token_type":   "bearer",
		"user":         a.wire(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(strings.TrimSpace(body.Name)) < 2 {
		writeValidation(w, "name", "String should have at least 2 characters")
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeValidation(w, "email", "value is not a valid email address")
		return
	}
	if len(body.Password) < models.MinPasswordLength {
		writeValidation(w, "password", "String should have at least 6 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[body.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	a := s.addAccountLocked(body.Name, body.Email, body.Password, models.RoleUser)
	a.Phone = body.Phone
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": s.issueTokenLocked(a.Email),
		"token_type":   "bearer",
		"user":         a.wire(),
	})
}

type expenseBody struct {
	Merchant    *string  `json:"merchant"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Source      *string  `json:"source"`
	RawText     string   `json:"raw_text"`
	Items       []any    `json:"items"`
	Transcript  string   `json:"transcript"`
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, timeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user := current(r)
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*expense
	for _, e := range s.expenses {
		if e.UserID != user.ID {
			continue
		}
		if c := q.Get("category"); c != "" && e.Category != c {
			continue
		}
		if src := q.Get("source"); src != "" && e.Source != src {
			continue
		}
		if search := strings.ToLower(q.Get("search")); search != "" &&
			!strings.Contains(strings.ToLower(e.Merchant), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		if start, ok := parseDate(q.Get("start_date")); ok && e.Date.Before(start) {
			continue
		}
		if end, ok := parseDate(q.Get("end_date")); ok && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	sortByDateDesc(out)
	out = page(out, q, 100)

	resp := make([]map[string]any, 0, len(out))
	for _, e := range out {
		resp = append(resp, e.wire())
	}
	writeJSON(w, http.StatusOK, resp)
}

func page[T any](items []T, q map[string][]string, defaultLimit int) []T {
	skip, _ := strconv.Atoi(first(q["skip"]))
	limit, err := strconv.Atoi(first(q["limit"]))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Merchant == nil || strings.TrimSpace(*body.Merchant) == "" {
		writeValidation(w, "merchant", "Field required")
		return
	}
	if body.Amount == nil || *body.Amount <= 0 {
		writeValidation(w, "amount", "Input should be greater than 0")
		return
	}
	if body.Category == nil {
		writeValidation(w, "category", "Field required")
		return
	}
	date, ok := time.Time{}, false
	if body.Date != nil {
		date, ok = parseDate(*body.Date)
	}
	if !ok {
		writeValidation(w, "date", "Input should be a valid datetime")
		return
	}
	source := string(models.SourceManual)
	if body.Source != nil {
		source = *body.Source
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := &expense{
		ID:         s.nextIDLocked("e"),
		UserID:     current(r).ID,
		Merchant:   *body.Merchant,
		Amount:     *body.Amount,
		Category:   *body.Category,
		Date:       date,
		Source:     source,
		RawText:    body.RawText,
		Items:      body.Items,
		Transcript: body.Transcript,
		CreatedAt:  time.Now().UTC(),
	}
	if body.Description != nil {
		e.Description = *body.Description
	}
	s.expenses = append(s.expenses, e)
	writeJSON(w, http.StatusCreated, e.wire())
}

func (s *Server) findExpenseLocked(r *http.Request) *expense {
	id := chi.URLParam(r, "id")
	for _, e := range s.expenses {
		if e.ID == id && e.UserID == current(r).ID {
			return e
		}
	}
	return nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findExpenseLocked(r)
	if e == nil {
		writeDetail(w, http.StatusNotFound, "Expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e.wire())
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findExpenseLocked(r)
	if e == nil {
		writeDetail(w, http.StatusNotFound, "Expense not found")
		return
	}
	if body.Amount != nil && *body.Amount <= 0 {
		writeValidation(w, "amount", "Input should be greater than 0")
		return
	}
	if body.Merchant != nil {
		e.Merchant = *body.Merchant
	}
	if body.Amount != nil {
		e.Amount = *body.Amount
	}
	if body.Category != nil {
		e.Category = *body.Category
	}
	if body.Date != nil {
		if d, ok := parseDate(*body.Date); ok {
			e.Date = d
		}
	}
	if body.Description != nil {
		e.Description = *body.Description
	}
	now := time.Now().UTC()
	e.UpdatedAt = &now
	writeJSON(w, http.StatusOK, e.wire())
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findExpenseLocked(r)
	if e == nil {
		writeDetail(w, http.StatusNotFound, "Expense not found")
		return
	}
	s.expenses = filter(s.expenses, func(x *expense) bool { return x != e })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rng, err := models.ParseStatsRange(r.URL.Query().Get("range"))
	if err != nil {
		rng = models.Range30Days
	}
	user := current(r)
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -rng.Days())
	prevStart := start.AddDate(0, 0, -rng.Days())

	s.mu.Lock()
	defer s.mu.Unlock()

	var inRange []*expense
	total, previous := 0.0, 0.0
	byCategory := map[string]float64{}
	byCategoryCount := map[string]int{}
	bySource := map[string]int{}
	for _, e := range s.expenses {
		if e.UserID != user.ID {
			continue
		}
		switch {
		case !e.Date.Before(start) && !e.Date.After(now):
			inRange = append(inRange, e)
			total += e.Amount
			byCategory[e.Category] += e.Amount
			byCategoryCount[e.Category]++
			bySource[e.Source]++
		case !e.Date.Before(prevStart) && e.Date.Before(start):
			previous += e.Amount
		}
	}

	change := 0.0
	if previous > 0 {
		change = (total - previous) / previous * 100
	} else if total > 0 {
		change = 100
	}

	categories := []map[string]any{}
	for name, value := range byCategory {
		color := models.UncategorizedColor
		for _, c := range s.categories {
			if c.UserID == user.ID && c.Name == name {
				color = c.Color
			}
		}
		categories = append(categories, map[string]any{"name": name, "value": value, "color": color, "count": byCategoryCount[name]})
	}
	sources := []map[string]any{}
	for name, count := range bySource {
		sources = append(sources, map[string]any{"name": name, "value": count, "color": "#0ea5e9"})
	}

	sortByDateDesc(inRange)
	recent := []map[string]any{}
	for i, e := range inRange {
		if i == 5 {
			break
		}
		recent = append(recent, map[string]any{
			"id": e.ID, "merchant": e.Merchant, "amount": e.Amount,
			"category": e.Category, "date": e.Date.Format(timeLayout), "source": e.Source,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalExpenses":      total,
		"monthlyChange":      change,
		"transactionCount":   len(inRange),
		"categoryBreakdown":  categories,
		"sourceBreakdown":    sources,
		"trendData":          []map[string]any{},
		"recentTransactions": recent,
	})
}

type categoryBody struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	user := current(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := []map[string]any{}
	for _, c := range s.categories {
		if c.UserID == user.ID {
			resp = append(resp, s.categoryWireLocked(c))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		writeValidation(w, "name", "Field required")
		return
	}
	c := &category{Name: *body.Name, Color: models.DefaultCategoryColor, Icon: models.DefaultCategoryIcon}
	if body.Color != nil {
		if !colorPattern.MatchString(*body.Color) {
			writeValidation(w, "color", "String should match pattern")
			return
		}
		c.Color = *body.Color
	}
	if body.Icon != nil {
		c.Icon = *body.Icon
	}

	user := current(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == user.ID && existing.Name == c.Name {
			writeDetail(w, http.StatusBadRequest, "Category already exists")
			return
		}
	}
	c.ID = s.nextIDLocked("c")
	c.UserID = user.ID
	c.CreatedAt = time.Now().UTC()
	s.categories = append(s.categories, c)
	writeJSON(w, http.StatusCreated, s.categoryWireLocked(c))
}

func (s *Server) findCategoryLocked(r *http.Request) *category {
	id := chi.URLParam(r, "id")
	for _, c := range s.categories {
		if c.ID == id && c.UserID == current(r).ID {
			return c
		}
	}
	return nil
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCategoryLocked(r)
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	writeJSON(w, http.StatusOK, s.categoryWireLocked(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCategoryLocked(r)
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	if body.Color != nil && !colorPattern.MatchString(*body.Color) {
		writeValidation(w, "color", "String should match pattern")
		return
	}
	if body.Name != nil && *body.Name != c.Name {
		// Renames carry over to the category's expenses
		for _, e := range s.expenses {
			if e.UserID == c.UserID && e.Category == c.Name {
				e.Category = *body.Name
			}
		}
		c.Name = *body.Name
	}
	if body.Color != nil {
		c.Color = *body.Color
	}
	if body.Icon != nil {
		c.Icon = *body.Icon
	}
	writeJSON(w, http.StatusOK, s.categoryWireLocked(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCategoryLocked(r)
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	s.categories = filter(s.categories, func(x *category) bool { return x != c })
	w.WriteHeader(http.StatusNoContent)
}

var (
	smsAmount   = regexp.MustCompile(`(?i)(?:rs\.?|lkr|usd|\$)\s*([\d,]+(?:\.\d+)?)`)
	smsMerchant = regexp.MustCompile(`(?i)\bat\s+([A-Za-z0-9&' ]+?)(?:\s+on\b|[.,]|$)`)
)

func (s *Server) handleParseSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(r, &body); err != nil || strings.TrimSpace(body.Text) == "" {
		writeValidation(w, "text", "Field required")
		return
	}

	resp := map[string]any{"confidence": 0.0, "category": "Other"}
	found := 0
	if m := smsAmount.FindStringSubmatch(body.Text); m != nil {
		if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			resp["amount"] = amount
			found++
		}
	}
	if m := smsMerchant.FindStringSubmatch(body.Text); m != nil {
		resp["merchant"] = strings.TrimSpace(m[1])
		found++
	}
	resp["confidence"] = float64(found) / 2
	resp["date"] = time.Now().UTC().Format(timeLayout)
	resp["description"] = "Parsed from SMS"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParseUpload(prefix, rejection, merchant string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeValidation(w, "file", "Field required")
			return
		}
		defer file.Close()
		if !strings.HasPrefix(header.Header.Get("Content-Type"), prefix) {
			writeDetail(w, http.StatusBadRequest, rejection)
			return
		}
		data, _ := io.ReadAll(file)

		resp := map[string]any{
			"merchant":    merchant,
			"amount":      float64(len(data)),
			"category":    "Other",
			"date":        time.Now().UTC().Format(timeLayout),
			"description": "Parsed from " + header.Filename,
			"confidence":  0.5,
		}
		if prefix == "audio/" {
			resp["transcript"] = "spent " + strconv.Itoa(len(data)) + " dollars"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, current(r).wire())
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name != nil && len(strings.TrimSpace(*body.Name)) < 2 {
		writeValidation(w, "name", "String should have at least 2 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := current(r)
	if body.Name != nil {
		a.Name = *body.Name
	}
	if body.Phone != nil {
		a.Phone = *body.Phone
	}
	writeJSON(w, http.StatusOK, a.wire())
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := current(r)
	if a.Password != body.CurrentPassword {
		writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if len(body.NewPassword) < models.MinPasswordLength {
		writeValidation(w, "new_password", "String should have at least 6 characters")
		return
	}
	a.Password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated successfully"})
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAccountLocked(current(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAccountLocked(a *account) {
	delete(s.accounts, a.Email)
	for token, email := range s.tokens {
		if email == a.Email {
			delete(s.tokens, token)
		}
	}
	s.expenses = filter(s.expenses, func(e *expense) bool { return e.UserID != a.ID })
	s.categories = filter(s.categories, func(c *category) bool { return c.UserID != a.ID })
}
