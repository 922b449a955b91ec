package api

import (
	"context"
	"net/http"

	"github.com/findosh/moneymanager/internal/models"
)

// Me returns the authenticated user's profile
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var resp wireProfile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.model(), nil
}

// UpdateMe changes name or phone and returns the stored profile
func (c *Client) UpdateMe(ctx context.Context, update models.ProfileUpdate) (models.Profile, error) {
	var resp wireProfile
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", nil, update, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.model(), nil
}

// ChangePassword replaces the user's password
func (c *Client) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	return c.doJSON(ctx, http.MethodPost, "/users/me/change-password", nil, change, nil)
}

// DeleteMe deletes the account and all of its data
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/me", nil, nil, nil)
}
