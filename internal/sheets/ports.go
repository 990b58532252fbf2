package sheets

import (
	"context"

	"dailyspend/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a spreadsheet copy of the expense list. Every
	// method is idempotent so redelivered events are harmless.
	ExpenseMirror interface {
		// AppendExpense adds a row unless one with the same id exists.
		AppendExpense(ctx context.Context, e core.ExpenseWithCategory) error
		// DeleteExpense removes the row with the given id, if any.
		DeleteExpense(ctx context.Context, id string) error
		// DetachCategory blanks the category columns on every row that
		// references categoryID and reports how many rows changed.
		DetachCategory(ctx context.Context, categoryID string) (int, error)
	}
)
