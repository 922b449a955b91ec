package handlers

import (
	"context"
	"errors"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/store"
)

// LoadCategories fetches the category list and replaces the cached collection
func (h *Handler) LoadCategories(ctx context.Context) ([]models.Category, error) {
	if err := h.requireAuth(); err != nil {
		return nil, err
	}

	list, err := h.client.ListCategories(ctx)
	if err != nil {
		return nil, h.checkExpired(err)
	}
	h.categories.ReplaceAll(list)
	return h.categories.Items(), nil
}

// CreateCategory saves a new category and appends the server's record
func (h *Handler) CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	if err := h.requireAuth(); err != nil {
		return models.Category{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Category{}, err
	}

	created, err := h.client.CreateCategory(ctx, in)
	if err != nil {
		return models.Category{}, h.checkExpired(err)
	}
	h.categories.Insert(created)
	return created, nil
}

// UpdateCategory saves changes to a category and mirrors the server's record
func (h *Handler) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (models.Category, error) {
	if err := h.requireAuth(); err != nil {
		return models.Category{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Category{}, err
	}

	updated, err := h.client.UpdateCategory(ctx, id, patch)
	if err != nil {
		return models.Category{}, h.staleCategory(ctx, err)
	}
	h.categories.Update(id, store.Replace[models.Category]{Value: updated})
	return updated, nil
}

// DeleteCategory deletes a category and drops it from the cache. Expenses
// keep their category name.
func (h *Handler) DeleteCategory(ctx context.Context, id string) error {
	if err := h.requireAuth(); err != nil {
		return err
	}

	if err := h.client.DeleteCategory(ctx, id); err != nil {
		return h.staleCategory(ctx, err)
	}
	h.categories.Remove(id)
	return nil
}

func (h *Handler) staleCategory(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrNotFound) {
		h.logger.Printf("category gone on server, refreshing list: %v", err)
		if list, rerr := h.client.ListCategories(ctx); rerr == nil {
			h.categories.ReplaceAll(list)
		} else {
			h.logger.Printf("failed to refresh categories: %v", rerr)
		}
	}
	return h.checkExpired(err)
}
