package handlers

import (
	"context"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/analytics"
)

// Dashboard fetches the server-computed statistics for a range
func (h *Handler) Dashboard(ctx context.Context, r models.StatsRange) (models.DashboardStats, error) {
	if err := h.requireAuth(); err != nil {
		return models.DashboardStats{}, err
	}

	stats, err := h.client.ExpenseStats(ctx, r)
	if err != nil {
		return models.DashboardStats{}, h.checkExpired(err)
	}
	return stats, nil
}

// LocalSummary computes the same statistics from the cached collections
func (h *Handler) LocalSummary(r models.StatsRange) (models.DashboardStats, error) {
	if err := h.requireAuth(); err != nil {
		return models.DashboardStats{}, err
	}

	window := analytics.RangeBounds(r, h.now())
	return analytics.Summarize(h.expenses.Items(), h.categories.Items(), window), nil
}
