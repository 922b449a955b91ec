package apitest

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) adminStatsLocked(a *account) map[string]any {
	count, total := 0, 0.0
	for _, e := range s.expenses {
		if e.UserID == a.ID {
			count++
			total += e.Amount
		}
	}
	m := map[string]any{
		"id":          a.ID,
		"name":        a.Name,
		"email":       a.Email,
		"phone":       nullable(a.Phone),
		"status":      a.Status,
		"role":        a.Role,
		"expenses":    count,
		"totalAmount": total,
		"joinDate":    a.CreatedAt.Format(timeLayout),
		"lastActive":  nil,
		"avatar":      nullable(a.Avatar),
	}
	if a.LastActive != nil {
		m["lastActive"] = a.LastActive.Format(timeLayout)
	}
	return m
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, total := 0, 0.0
	for _, a := range s.accounts {
		if a.Status == models.StatusActive {
			active++
		}
	}
	for _, e := range s.expenses {
		total += e.Amount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalUsers":    len(s.accounts),
		"activeUsers":   active,
		"totalExpenses": len(s.expenses),
		"totalAmount":   total,
		"userGrowth":    0,
		"expenseGrowth": 0,
	})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status_filter")
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*account
	for _, a := range s.accounts {
		if status != "" && status != "all" && string(a.Status) != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) && !strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) || (matched[i].CreatedAt.Equal(matched[j].CreatedAt) && matched[i].ID > matched[j].ID) })
	matched = page(matched, q, 100)

	resp := []map[string]any{}
	for _, a := range matched {
		resp = append(resp, s.adminStatsLocked(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string            `json:"name"`
		Email    string            `json:"email"`
		Phone    string            `json:"phone"`
		Password string            `json:"password"`
		Role     models.Role       `json:"role"`
		Status   models.UserStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
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
	role := body.Role
	if role == "" {
		role = models.RoleUser
	}
	a := s.addAccountLocked(body.Name, body.Email, body.Password, role)
	a.Phone = body.Phone
	if body.Status != "" {
		a.Status = body.Status
	}
	writeJSON(w, http.StatusCreated, a.wire())
}

func (s *Server) adminTargetLocked(w http.ResponseWriter, r *http.Request) *account {
	a := s.accountByIDLocked(chi.URLParam(r, "id"))
	if a == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
	}
	return a
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.adminTargetLocked(w, r); a != nil {
		writeJSON(w, http.StatusOK, s.adminStatsLocked(a))
	}
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   *string            `json:"name"`
		Email  *string            `json:"email"`
		Phone  *string            `json:"phone"`
		Status *models.UserStatus `json:"status"`
		Role   *models.Role       `json:"role"`
	}
	if err := decode(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.adminTargetLocked(w, r)
	if a == nil {
		return
	}
	if body.Email != nil && *body.Email != a.Email {
		if _, exists := s.accounts[*body.Email]; exists {
			writeDetail(w, http.StatusBadRequest, "Email already in use")
			return
		}
		delete(s.accounts, a.Email)
		a.Email = *body.Email
		s.accounts[a.Email] = a
	}
	if body.Name != nil {
		a.Name = *body.Name
	}
	if body.Phone != nil {
		a.Phone = *body.Phone
	}
	if body.Status != nil {
		a.Status = *body.Status
	}
	if body.Role != nil {
		a.Role = *body.Role
	}
	writeJSON(w, http.StatusOK, a.wire())
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.adminTargetLocked(w, r)
	if a == nil {
		return
	}
	if a.ID == current(r).ID {
		writeDetail(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	s.deleteAccountLocked(a)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminUserExpenses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.adminTargetLocked(w, r)
	if a == nil {
		return
	}
	var owned []*expense
	for _, e := range s.expenses {
		if e.UserID == a.ID {
			owned = append(owned, e)
		}
	}
	sortByDateDesc(owned)
	owned = page(owned, r.URL.Query(), 50)

	resp := []map[string]any{}
	for _, e := range owned {
		resp = append(resp, e.wire())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decode(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range patch {
		s.settings[k] = v
	}
	s.settings["updated_at"] = time.Now().UTC().Format(timeLayout)
	resp := make(map[string]any, len(s.settings))
	for k, v := range s.settings {
		if k != "updated_at" {
			resp[k] = v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetSettings()
	writeJSON(w, http.StatusOK, s.settings)
}
