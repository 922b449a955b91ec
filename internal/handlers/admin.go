package handlers

import (
	"context"

	"github.com/findosh/moneymanager/internal/models"
)

// AdminDashboard fetches the system-wide counters
func (h *Handler) AdminDashboard(ctx context.Context) (models.AdminDashboard, error) {
	if err := h.requireAdmin(); err != nil {
		return models.AdminDashboard{}, err
	}
	dash, err := h.client.AdminDashboard(ctx)
	return dash, h.checkExpired(err)
}

// Users lists accounts
func (h *Handler) Users(ctx context.Context, filter models.AdminUserFilter) ([]models.AdminUser, error) {
	if err := h.requireAdmin(); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError("status", "must be active, inactive or suspended")
	}
	users, err := h.client.ListUsers(ctx, filter)
	return users, h.checkExpired(err)
}

// User fetches one account
func (h *Handler) User(ctx context.Context, id string) (models.AdminUser, error) {
	if err := h.requireAdmin(); err != nil {
		return models.AdminUser{}, err
	}
	user, err := h.client.GetUser(ctx, id)
	return user, h.checkExpired(err)
}

// CreateUser creates an account from the admin console
func (h *Handler) CreateUser(ctx context.Context, in models.AdminUserInput) (models.Profile, error) {
	if err := h.requireAdmin(); err != nil {
		return models.Profile{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Profile{}, err
	}
	profile, err := h.client.CreateUser(ctx, in)
	return profile, h.checkExpired(err)
}

// UpdateUser changes another account
func (h *Handler) UpdateUser(ctx context.Context, id string, patch models.AdminUserPatch) (models.Profile, error) {
	if err := h.requireAdmin(); err != nil {
		return models.Profile{}, err
	}
	if id == h.sessions.Profile().ID {
		return models.Profile{}, models.NewValidationError("", "cannot modify your own account")
	}
	if err := patch.Validate(); err != nil {
		return models.Profile{}, err
	}
	profile, err := h.client.UpdateUser(ctx, id, patch)
	return profile, h.checkExpired(err)
}

// DeleteUser deletes another account
func (h *Handler) DeleteUser(ctx context.Context, id string) error {
	if err := h.requireAdmin(); err != nil {
		return err
	}
	if id == h.sessions.Profile().ID {
		return models.NewValidationError("", "cannot delete your own account")
	}
	return h.checkExpired(h.client.DeleteUser(ctx, id))
}

// UserExpenses lists another account's expenses. They are not cached.
func (h *Handler) UserExpenses(ctx context.Context, id string, skip, limit int) ([]models.Expense, error) {
	if err := h.requireAdmin(); err != nil {
		return nil, err
	}
	list, err := h.client.UserExpenses(ctx, id, skip, limit)
	return list, h.checkExpired(err)
}

// Settings fetches the system settings
func (h *Handler) Settings(ctx context.Context) (models.SystemSettings, error) {
	if err := h.requireAdmin(); err != nil {
		return models.SystemSettings{}, err
	}
	settings, err := h.client.Settings(ctx)
	return settings, h.checkExpired(err)
}

// UpdateSettings changes system settings
func (h *Handler) UpdateSettings(ctx context.Context, patch models.SystemSettingsPatch) (models.SystemSettings, error) {
	if err := h.requireAdmin(); err != nil {
		return models.SystemSettings{}, err
	}
	if len(patch) == 0 {
		return models.SystemSettings{}, models.NewValidationError("", "nothing to update")
	}
	settings, err := h.client.UpdateSettings(ctx, patch)
	return settings, h.checkExpired(err)
}

// ResetSettings restores the default system settings
func (h *Handler) ResetSettings(ctx context.Context) (models.SystemSettings, error) {
	if err := h.requireAdmin(); err != nil {
		return models.SystemSettings{}, err
	}
	settings, err := h.client.ResetSettings(ctx)
	return settings, h.checkExpired(err)
}
