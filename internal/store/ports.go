// Package store defines the record store contract shared by every backend.
package store

import (
	"context"

	"dailyspend/internal/core"
)

// Ports for record store backends.
type (
	CategoryStore interface {
		// ListCategories returns all categories in insertion order.
		ListCategories(ctx context.Context) ([]core.Category, error)
		// CreateCategory fails with a *core.ValidationError on empty name or color.
		CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
		// DeleteCategory removes the category and detaches its expenses.
		// Unknown ids are a no-op.
		DeleteCategory(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		// ListExpensesByDate returns the expenses dated exactly on date.
		ListExpensesByDate(ctx context.Context, date core.Date) ([]core.ExpenseWithCategory, error)
		// ListExpensesByDateRange returns expenses with start <= date <= end.
		ListExpensesByDateRange(ctx context.Context, start, end core.Date) ([]core.ExpenseWithCategory, error)
		// CreateExpense fails with a *core.ValidationError when a required
		// field is empty or the category id names no existing category.
		CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
		// DeleteExpense removes the expense. Unknown ids are a no-op.
		DeleteExpense(ctx context.Context, id string) error
	}

	// Restorer replaces the whole content of a store.
	Restorer interface {
		Restore(ctx context.Context, snap core.Snapshot) error
	}

	// Store is what every backend implements.
	Store interface {
		CategoryStore
		ExpenseStore
		Restorer
	}
)

// Snapshot reads both collections.
func Snapshot(ctx context.Context, s Store) (core.Snapshot, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	exps, err := s.ListExpenses(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{Categories: cats, Expenses: exps}, nil
}

// FilterByDate keeps the expenses dated exactly on date.
func FilterByDate(expenses []core.Expense, date core.Date) []core.Expense {
	out := make([]core.Expense, 0)
	for _, e := range expenses {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// FilterByRange keeps the expenses with start <= date <= end.
func FilterByRange(expenses []core.Expense, start, end core.Date) []core.Expense {
	out := make([]core.Expense, 0)
	for _, e := range expenses {
		if e.Date.InRange(start, end) {
			out = append(out, e)
		}
	}
	return out
}

// DetachCategory clears categoryID from every expense referencing it and
// reports how many were changed.
func DetachCategory(expenses []core.Expense, categoryID string) int {
	n := 0
	for i, e := range expenses {
		if e.HasCategory() && *e.CategoryID == categoryID {
			expenses[i] = e.Detach()
			n++
		}
	}
	return n
}

// ValidateExpense checks the input against the store-level invariants.
func ValidateExpense(in core.ExpenseInput, categories []core.Category) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.CategoryID != "" && !core.HasCategoryID(categories, in.CategoryID) {
		return core.ErrUnknownCategory
	}
	return nil
}
