// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
)

// Factory returns an empty store (no seed categories).
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateAndListCategories", func(t *testing.T) { testCreateAndListCategories(t, newStore(t)) })
	t.Run("CreateCategoryValidation", func(t *testing.T) { testCreateCategoryValidation(t, newStore(t)) })
	t.Run("CreateExpenseDefaults", func(t *testing.T) { testCreateExpenseDefaults(t, newStore(t)) })
	t.Run("CreateExpenseValidation", func(t *testing.T) { testCreateExpenseValidation(t, newStore(t)) })
	t.Run("ListByDate", func(t *testing.T) { testListByDate(t, newStore(t)) })
	t.Run("ListByDateRange", func(t *testing.T) { testListByDateRange(t, newStore(t)) })
	t.Run("DeleteExpense", func(t *testing.T) { testDeleteExpense(t, newStore(t)) })
	t.Run("DeleteCategoryDetaches", func(t *testing.T) { testDeleteCategoryDetaches(t, newStore(t)) })
	t.Run("DeleteUnknownIsNoop", func(t *testing.T) { testDeleteUnknownIsNoop(t, newStore(t)) })
	t.Run("Restore", func(t *testing.T) { testRestore(t, newStore(t)) })
}

func testCreateAndListCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	food, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	transport, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Transport", Color: "#3B82F6"})
	require.NoError(t, err)

	assert.NotEmpty(t, food.ID)
	assert.NotEqual(t, food.ID, transport.ID)
	assert.False(t, food.CreatedAt.IsZero())

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[0].Name)
	assert.Equal(t, "#EF4444", cats[0].Color)
	assert.Equal(t, "Transport", cats[1].Name)
}

func testCreateCategoryValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateCategory(ctx, core.CategoryInput{Color: "#fff"})
	assert.ErrorIs(t, err, core.ErrEmptyName)
	_, err = s.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	assert.ErrorIs(t, err, core.ErrEmptyColor)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func testCreateExpenseDefaults(t *testing.T, s store.Store) {
	ctx := context.Background()
	e, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "Coffee", Amount: "4.50", Date: "2024-01-15"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Nil(t, e.Details)
	assert.Nil(t, e.CategoryID)
	assert.Equal(t, core.Date("2024-01-15"), e.Date)
	assert.Equal(t, "4.50", e.Amount)

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, e.ID, all[0].ID)
	assert.Nil(t, all[0].Details)
	assert.Nil(t, all[0].CategoryID)
}

func testCreateExpenseValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	cases := []struct {
		name string
		in   core.ExpenseInput
		err  error
	}{
		{"empty name", core.ExpenseInput{Amount: "1", Date: "2024-01-15"}, core.ErrEmptyName},
		{"empty amount", core.ExpenseInput{Name: "x", Date: "2024-01-15"}, core.ErrEmptyAmount},
		{"empty date", core.ExpenseInput{Name: "x", Amount: "1"}, core.ErrEmptyDate},
		{"unknown category", core.ExpenseInput{Name: "x", Amount: "1", Date: "2024-01-15", CategoryID: "nope"}, core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		_, err := s.CreateExpense(ctx, tc.in)
		assert.ErrorIs(t, err, tc.err, tc.name)
		assert.True(t, core.IsValidation(err), tc.name)
	}

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testListByDate(t *testing.T, s store.Store) {
	ctx := context.Background()
	food, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.ExpenseInput{Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: food.ID, Details: "with Sam"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.ExpenseInput{Name: "Coffee", Amount: "4.50", Date: "2024-01-15"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.ExpenseInput{Name: "Dinner", Amount: "30", Date: "2024-01-16", CategoryID: food.ID})
	require.NoError(t, err)

	day, err := s.ListExpensesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, day, 2)

	byName := map[string]core.ExpenseWithCategory{}
	for _, e := range day {
		byName[e.Name] = e
	}
	require.NotNil(t, byName["Lunch"].Category)
	assert.Equal(t, "Food", byName["Lunch"].Category.Name)
	assert.Equal(t, "with Sam", byName["Lunch"].DetailsOrEmpty())
	assert.Nil(t, byName["Coffee"].Category)

	none, err := s.ListExpensesByDate(ctx, "2024-01-17")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testListByDateRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, d := range []core.Date{"2024-01-08", "2024-01-09", "2024-01-12", "2024-01-15", "2024-01-16"} {
		_, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "x", Amount: "1", Date: d})
		require.NoError(t, err)
	}

	got, err := s.ListExpensesByDateRange(ctx, "2024-01-09", "2024-01-15")
	require.NoError(t, err)
	dates := make([]core.Date, 0, len(got))
	for _, e := range got {
		dates = append(dates, e.Date)
	}
	assert.ElementsMatch(t, []core.Date{"2024-01-09", "2024-01-12", "2024-01-15"}, dates)
}

func testDeleteExpense(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "a", Amount: "1", Date: "2024-01-15"})
	require.NoError(t, err)
	b, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "b", Amount: "2", Date: "2024-01-15"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(ctx, a.ID))

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func testDeleteCategoryDetaches(t *testing.T, s store.Store) {
	ctx := context.Background()
	food, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	other, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Other", Color: "#000000"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "meal", Amount: "5", Date: "2024-01-15", CategoryID: food.ID})
		require.NoError(t, err)
	}
	kept, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "gift", Amount: "9", Date: "2024-01-15", CategoryID: other.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, food.ID))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, other.ID, cats[0].ID)

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4, "detach must not delete expenses")
	for _, e := range all {
		if e.ID == kept.ID {
			require.NotNil(t, e.CategoryID)
			assert.Equal(t, other.ID, *e.CategoryID)
			continue
		}
		assert.Nil(t, e.CategoryID, "expense %s should be detached", e.ID)
		assert.Equal(t, "5", e.Amount)
	}
}

func testDeleteUnknownIsNoop(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.ExpenseInput{Name: "a", Amount: "1", Date: "2024-01-15"})
	require.NoError(t, err)

	assert.NoError(t, s.DeleteCategory(ctx, "missing"))
	assert.NoError(t, s.DeleteExpense(ctx, "missing"))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testRestore(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "old", Amount: "1", Date: "2024-01-01"})
	require.NoError(t, err)

	catID := "cat-1"
	details := "note"
	snap := core.Snapshot{
		Categories: []core.Category{{ID: catID, Name: "Food", Color: "#EF4444"}},
		Expenses: []core.Expense{
			{ID: "exp-1", Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: &catID, Details: &details},
			{ID: "exp-2", Name: "Coffee", Amount: "4.50", Date: "2024-01-15"},
		},
	}
	require.NoError(t, s.Restore(ctx, snap))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, catID, cats[0].ID)

	day, err := s.ListExpensesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, day, 2)

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, e := range all {
		assert.NotEqual(t, "old", e.Name)
	}
}
