package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/findosh/moneymanager/internal/models"
)

// ListExpenses returns the current user's expenses, newest first
func (c *Client) ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	var resp []wireExpense
	if err := c.doJSON(ctx, http.MethodGet, "/expenses", filter.Query(), nil, &resp); err != nil {
		return nil, err
	}
	return expenses(resp), nil
}

// GetExpense returns one expense
func (c *Client) GetExpense(ctx context.Context, id string) (models.Expense, error) {
	var resp wireExpense
	if err := c.doJSON(ctx, http.MethodGet, "/expenses/"+escape(id), nil, nil, &resp); err != nil {
		return models.Expense{}, err
	}
	return resp.model(), nil
}

// CreateExpense persists a new expense and returns the stored record
func (c *Client) CreateExpense(ctx context.Context, in models.ExpenseInput) (models.Expense, error) {
	var resp wireExpense
	if err := c.doJSON(ctx, http.MethodPost, "/expenses", nil, newExpenseBody(in), &resp); err != nil {
		return models.Expense{}, err
	}
	return resp.model(), nil
}

// UpdateExpense applies patch and returns the stored record
func (c *Client) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (models.Expense, error) {
	var resp wireExpense
	if err := c.doJSON(ctx, http.MethodPut, "/expenses/"+escape(id), nil, newExpensePatchBody(patch), &resp); err != nil {
		return models.Expense{}, err
	}
	return resp.model(), nil
}

// DeleteExpense removes an expense
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/expenses/"+escape(id), nil, nil, nil)
}

// ExpenseStats returns the dashboard summary for a window
func (c *Client) ExpenseStats(ctx context.Context, r models.StatsRange) (models.DashboardStats, error) {
	var resp wireStats
	query := url.Values{"range": {string(r)}}
	if err := c.doJSON(ctx, http.MethodGet, "/expenses/stats", query, nil, &resp); err != nil {
		return models.DashboardStats{}, err
	}
	return resp.model(), nil
}
