package api

import (
	"context"
	"net/http"

	"github.com/findosh/moneymanager/internal/models"
)

// ListCategories returns the current user's categories
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var resp []wireCategory
	if err := c.doJSON(ctx, http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Category, len(resp))
	for i, w := range resp {
		out[i] = w.model()
	}
	return out, nil
}

// GetCategory returns one category
func (c *Client) GetCategory(ctx context.Context, id string) (models.Category, error) {
	var resp wireCategory
	if err := c.doJSON(ctx, http.MethodGet, "/categories/"+escape(id), nil, nil, &resp); err != nil {
		return models.Category{}, err
	}
	return resp.model(), nil
}

// CreateCategory persists a new category and returns the stored record
func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	var resp wireCategory
	if err := c.doJSON(ctx, http.MethodPost, "/categories", nil, in.WithDefaults(), &resp); err != nil {
		return models.Category{}, err
	}
	return resp.model(), nil
}

// UpdateCategory applies patch and returns the stored record
func (c *Client) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (models.Category, error) {
	var resp wireCategory
	if err := c.doJSON(ctx, http.MethodPut, "/categories/"+escape(id), nil, patch, &resp); err != nil {
		return models.Category{}, err
	}
	return resp.model(), nil
}

// DeleteCategory removes a category
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/categories/"+escape(id), nil, nil, nil)
}
