package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/capture"
	"github.com/findosh/moneymanager/internal/store"
)

// LoadExpenses fetches the expense list and replaces the cached collection
func (h *Handler) LoadExpenses(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	if err := h.requireAuth(); err != nil {
		return nil, err
	}

	list, err := h.client.ListExpenses(ctx, filter)
	if err != nil {
		return nil, h.checkExpired(err)
	}
	h.expenses.ReplaceAll(list)
	return h.expenses.Items(), nil
}

// CreateExpense saves a new expense and inserts the server's record
func (h *Handler) CreateExpense(ctx context.Context, in models.ExpenseInput) (models.Expense, error) {
	if err := h.requireAuth(); err != nil {
		return models.Expense{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Expense{}, err
	}

	created, err := h.client.CreateExpense(ctx, in)
	if err != nil {
		return models.Expense{}, h.checkExpired(err)
	}
	h.expenses.Insert(created)
	return created, nil
}

// ConfirmDraft saves a reviewed capture draft
func (h *Handler) ConfirmDraft(ctx context.Context, draft capture.Draft) (models.Expense, error) {
	return h.CreateExpense(ctx, draft.Input)
}

// UpdateExpense saves changes to an expense and mirrors the server's record
func (h *Handler) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (models.Expense, error) {
	if err := h.requireAuth(); err != nil {
		return models.Expense{}, err
	}
	if patch.IsEmpty() {
		return models.Expense{}, models.NewValidationError("", "nothing to update")
	}
	if err := patch.Validate(); err != nil {
		return models.Expense{}, err
	}

	updated, err := h.client.UpdateExpense(ctx, id, patch)
	if err != nil {
		return models.Expense{}, h.staleExpense(ctx, err)
	}
	h.expenses.Update(id, store.Replace[models.Expense]{Value: updated})
	return updated, nil
}

// DeleteExpense deletes an expense and drops it from the cache
func (h *Handler) DeleteExpense(ctx context.Context, id string) error {
	if err := h.requireAuth(); err != nil {
		return err
	}

	if err := h.client.DeleteExpense(ctx, id); err != nil {
		return h.staleExpense(ctx, err)
	}
	h.expenses.Remove(id)
	return nil
}

// staleExpense resynchronizes the cache after the server reports that a
// cached expense no longer exists
func (h *Handler) staleExpense(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrNotFound) {
		h.logger.Printf("expense gone on server, refreshing list: %v", err)
		if list, rerr := h.client.ListExpenses(ctx, models.ExpenseFilter{}); rerr == nil {
			h.expenses.ReplaceAll(list)
		} else {
			h.logger.Printf("failed to refresh expenses: %v", rerr)
		}
	}
	return h.checkExpired(err)
}

// CaptureSMS parses a bank SMS into a draft
func (h *Handler) CaptureSMS(ctx context.Context, text string) (capture.Draft, error) {
	if err := h.requireAuth(); err != nil {
		return capture.Draft{}, err
	}
	draft, err := h.capture.FromSMS(ctx, text)
	return draft, h.checkExpired(err)
}

// CaptureReceipt parses a receipt image into a draft
func (h *Handler) CaptureReceipt(ctx context.Context, name string, r io.Reader) (capture.Draft, error) {
	if err := h.requireAuth(); err != nil {
		return capture.Draft{}, err
	}
	draft, err := h.capture.FromReceipt(ctx, name, r)
	return draft, h.checkExpired(err)
}

// CaptureVoice parses a voice memo into a draft
func (h *Handler) CaptureVoice(ctx context.Context, name string, r io.Reader) (capture.Draft, error) {
	if err := h.requireAuth(); err != nil {
		return capture.Draft{}, err
	}
	draft, err := h.capture.FromVoice(ctx, name, r)
	return draft, h.checkExpired(err)
}
