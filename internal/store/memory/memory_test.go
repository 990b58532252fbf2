package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
	"dailyspend/internal/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(nil)
	})
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// No file -> defaults
	cats, err := NewFromFiles(dir).ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	assert.Equal(t, "Food", cats[0].Name)
	assert.Equal(t, "#EF4444", cats[0].Color)

	content := "# name,color\nGroceries,#10B981\nRent,#8B5CF6\nGroceries,#000000\nbroken line\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.SeedFileName), []byte(content), 0o644))

	cats, err = NewFromFiles(dir).ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Groceries", cats[0].Name)
	assert.Equal(t, "Rent", cats[1].Name)
	assert.Equal(t, "#10B981", cats[0].Color, "first occurrence wins")
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	_, err := s.CreateExpense(ctx, core.ExpenseInput{Name: "a", Amount: "1", Date: "2024-01-15"})
	require.NoError(t, err)

	list, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	list[0].Name = "mutated"

	again, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Name, "store state leaked through list")
}
