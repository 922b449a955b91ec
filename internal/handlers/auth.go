package handlers

import (
	"context"

	"github.com/findosh/moneymanager/internal/models"
)

// Login authenticates against the API and installs the session
func (h *Handler) Login(ctx context.Context, email, password string) (models.Profile, error) {
	if email == "" || password == "" {
		return models.Profile{}, models.NewValidationError("", "email and password are required")
	}
	return h.sessions.Login(ctx, email, password)
}

// Register creates an account and installs its session
func (h *Handler) Register(ctx context.Context, in models.RegisterInput) (models.Profile, error) {
	if err := in.Validate(); err != nil {
		return models.Profile{}, err
	}
	return h.sessions.Register(ctx, in)
}

// Logout ends the session and drops the cached collections, which belong to
// the departing user
func (h *Handler) Logout() {
	h.sessions.Logout()
	h.expenses.ReplaceAll(nil)
	h.categories.ReplaceAll(nil)
}

// Profile fetches the current profile and refreshes the session's copy
func (h *Handler) Profile(ctx context.Context) (models.Profile, error) {
	if err := h.requireAuth(); err != nil {
		return models.Profile{}, err
	}

	profile, err := h.client.Me(ctx)
	if err != nil {
		return models.Profile{}, h.checkExpired(err)
	}
	return h.sessions.UpdateProfile(models.ProfileUpdate{Name: &profile.Name, Phone: &profile.Phone}), nil
}

// UpdateProfile saves profile changes on the server, then in the session.
// Avatar is local-only and never sent.
func (h *Handler) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.Profile, error) {
	if err := h.requireAuth(); err != nil {
		return models.Profile{}, err
	}
	if err := update.Validate(); err != nil {
		return models.Profile{}, err
	}

	if update.Name != nil || update.Phone != nil {
		confirmed, err := h.client.UpdateMe(ctx, update)
		if err != nil {
			return models.Profile{}, h.checkExpired(err)
		}
		update.Name = &confirmed.Name
		update.Phone = &confirmed.Phone
	}
	return h.sessions.UpdateProfile(update), nil
}

// ChangePassword changes the account password
func (h *Handler) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	if err := h.requireAuth(); err != nil {
		return err
	}
	if err := change.Validate(); err != nil {
		return err
	}
	return h.checkExpired(h.client.ChangePassword(ctx, change))
}

// DeleteAccount deletes the account on the server and logs out
func (h *Handler) DeleteAccount(ctx context.Context) error {
	if err := h.requireAuth(); err != nil {
		return err
	}
	if err := h.client.DeleteMe(ctx); err != nil {
		return h.checkExpired(err)
	}
	h.Logout()
	return nil
}
