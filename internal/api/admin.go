package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/findosh/moneymanager/internal/models"
)

// AdminDashboard returns system-wide counters
func (c *Client) AdminDashboard(ctx context.Context) (models.AdminDashboard, error) {
	var resp models.AdminDashboard
	err := c.doJSON(ctx, http.MethodGet, "/admin/dashboard", nil, nil, &resp)
	return resp, err
}

// ListUsers returns users with their expense statistics
func (c *Client) ListUsers(ctx context.Context, filter models.AdminUserFilter) ([]models.AdminUser, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status_filter", string(filter.Status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Skip > 0 {
		query.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var resp []wireAdminUser
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", query, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.AdminUser, len(resp))
	for i, w := range resp {
		out[i] = w.model()
	}
	return out, nil
}

// GetUser returns one user with statistics
func (c *Client) GetUser(ctx context.Context, id string) (models.AdminUser, error) {
	var resp wireAdminUser
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users/"+escape(id), nil, nil, &resp); err != nil {
		return models.AdminUser{}, err
	}
	return resp.model(), nil
}

// CreateUser creates an account from the admin console
func (c *Client) CreateUser(ctx context.Context, in models.AdminUserInput) (models.Profile, error) {
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}
	var resp wireProfile
	if err := c.doJSON(ctx, http.MethodPost, "/admin/users", nil, in, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.model(), nil
}

// UpdateUser changes a user's details, role or status
func (c *Client) UpdateUser(ctx context.Context, id string, patch models.AdminUserPatch) (models.Profile, error) {
	var resp wireProfile
	if err := c.doJSON(ctx, http.MethodPatch, "/admin/users/"+escape(id), nil, patch, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.model(), nil
}

// DeleteUser removes a user and their data
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/admin/users/"+escape(id), nil, nil, nil)
}

// UserExpenses returns the expenses of any user
func (c *Client) UserExpenses(ctx context.Context, id string, skip, limit int) ([]models.Expense, error) {
	query := url.Values{}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp []wireExpense
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users/"+escape(id)+"/expenses", query, nil, &resp); err != nil {
		return nil, err
	}
	return expenses(resp), nil
}

// Settings returns the system settings
func (c *Client) Settings(ctx context.Context) (models.SystemSettings, error) {
	resp := models.DefaultSystemSettings()
	err := c.doJSON(ctx, http.MethodGet, "/admin/settings", nil, nil, &resp)
	return resp, err
}

// UpdateSettings applies a partial settings change and returns the result
func (c *Client) UpdateSettings(ctx context.Context, patch models.SystemSettingsPatch) (models.SystemSettings, error) {
	resp := models.DefaultSystemSettings()
	err := c.doJSON(ctx, http.MethodPatch, "/admin/settings", nil, patch, &resp)
	return resp, err
}

// ResetSettings restores the default settings
func (c *Client) ResetSettings(ctx context.Context) (models.SystemSettings, error) {
	resp := models.DefaultSystemSettings()
	err := c.doJSON(ctx, http.MethodPost, "/admin/settings/reset", nil, nil, &resp)
	return resp, err
}
