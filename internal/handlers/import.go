package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/services/importer"
)

// ParseStatement reads a bank statement CSV into expenses ready to save.
// Nothing is sent to the server.
func (h *Handler) ParseStatement(r io.Reader) (*importer.Result, error) {
	if err := h.requireAuth(); err != nil {
		return nil, err
	}
	return h.statements.Parse(r)
}

// ImportStatement saves parsed rows one at a time. It stops at the first
// failure and returns the expenses created before it.
func (h *Handler) ImportStatement(ctx context.Context, result *importer.Result) ([]models.Expense, error) {
	created := make([]models.Expense, 0, len(result.Rows))
	for _, row := range result.Rows {
		e, err := h.CreateExpense(ctx, row.Input)
		if err != nil {
			return created, fmt.Errorf("line %d: %w", row.Line, err)
		}
		created = append(created, e)
	}
	h.logger.Printf("imported %d expenses (%s)", len(created), result.Format)
	return created, nil
}
