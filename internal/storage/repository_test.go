package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
	"dailyspend/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestRepo(t)
	})
}

func TestSeedRunsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, core.DefaultCategories()))

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	for _, c := range cats {
		require.NoError(t, repo.DeleteCategory(ctx, c.ID))
	}
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Seed(ctx, core.DefaultCategories()))

	cats, err = repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats, "seeding must not repeat on an existing database")
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	food, err := repo.CreateCategory(ctx, core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	created, err := repo.CreateExpense(ctx, core.ExpenseInput{
		Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: food.ID, Details: "team",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.ListExpensesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, "12.50", got[0].Amount)
	assert.Equal(t, "team", got[0].DetailsOrEmpty())
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Food", got[0].Category.Name)
	assert.True(t, created.CreatedAt.Equal(got[0].CreatedAt))
}
