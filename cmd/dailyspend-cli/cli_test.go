package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyspend/internal/analytics"
	"dailyspend/internal/core"
)

var fixedNow = func() time.Time {
	return time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
}

// run executes one command against a localfile store in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	a := &app{v: viper.New(), now: fixedNow}
	root := newRootCmd(a)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--backend", "localfile",
		"--data-dir", dir,
		"--seed=false",
		"--log-level", "error",
	}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, "args: %v", args)
	return out
}

func addCategory(t *testing.T, dir, name string) core.Category {
	t.Helper()
	var c core.Category
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "--json", "categories", "add", name)), &c))
	require.NotEmpty(t, c.ID)
	return c
}

func addExpense(t *testing.T, dir string, args ...string) core.Expense {
	t.Helper()
	var e core.Expense
	out := mustRun(t, dir, append([]string{"--json", "expenses", "add"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	return e
}

func TestCategories_AddListDelete(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "categories", "list")
	assert.Contains(t, out, "No categories found")

	food := addCategory(t, dir, "Food")
	assert.Equal(t, "#6B7280", food.Color)

	out = mustRun(t, dir, "categories", "list")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, food.ID)

	mustRun(t, dir, "categories", "delete", food.ID)
	out = mustRun(t, dir, "categories", "list")
	assert.NotContains(t, out, "Food")
}

func TestExpenses_AddUsesTodayAndCanonicalAmount(t *testing.T) {
	dir := t.TempDir()

	e := addExpense(t, dir, "--name", "Lunch", "--amount", "12,5")
	assert.Equal(t, "12.50", e.Amount)
	assert.Equal(t, core.Date("2024-01-15"), e.Date)

	out := mustRun(t, dir, "expenses", "list", "--date", "2024-01-15")
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "$12.50")
}

func TestExpenses_AddRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "expenses", "add", "--name", "Lunch", "--amount=-3")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	_, err = run(t, dir, "expenses", "add", "--name", "Lunch", "--amount", "3", "--date", "2024-02-30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")

	_, err = run(t, dir, "expenses", "add", "--name", "Lunch", "--amount", "3", "--category", "missing")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestExpenses_ListFlags(t *testing.T) {
	dir := t.TempDir()
	addExpense(t, dir, "--name", "Coffee", "--amount", "3", "--date", "2024-01-10")
	addExpense(t, dir, "--name", "Dinner", "--amount", "20", "--date", "2024-01-14")

	_, err := run(t, dir, "expenses", "list", "--start", "2024-01-01")
	assert.Error(t, err)

	var items []core.ExpenseWithCategory
	out := mustRun(t, dir, "--json", "expenses", "list", "--start", "2024-01-11", "--end", "2024-01-31")
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Dinner", items[0].Name)

	out = mustRun(t, dir, "--json", "expenses", "list")
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)
}

func TestDeleteCategory_DetachesExpenses(t *testing.T) {
	dir := t.TempDir()
	food := addCategory(t, dir, "Food")
	e := addExpense(t, dir, "--name", "Lunch", "--amount", "12.50", "--category", food.ID)

	out := mustRun(t, dir, "totals", "categories")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "100%")

	mustRun(t, dir, "categories", "delete", food.ID)

	var items []core.ExpenseWithCategory
	out = mustRun(t, dir, "--json", "expenses", "list", "--date", "2024-01-15")
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, e.ID, items[0].ID)
	assert.Nil(t, items[0].CategoryID)

	out = mustRun(t, dir, "totals", "daily")
	assert.Contains(t, out, "$12.50")
	out = mustRun(t, dir, "totals", "categories")
	assert.Contains(t, out, "No categorized expenses")
}

func TestTotals(t *testing.T) {
	dir := t.TempDir()
	addExpense(t, dir, "--name", "Coffee", "--amount", "3.10", "--date", "2024-01-09")
	addExpense(t, dir, "--name", "Lunch", "--amount", "12.50", "--date", "2024-01-15")
	addExpense(t, dir, "--name", "Snack", "--amount", "0.40", "--date", "2024-01-15")
	addExpense(t, dir, "--name", "Rent", "--amount", "900", "--date", "2024-02-01")

	t.Run("weekly is dense", func(t *testing.T) {
		var days []analytics.DayTotal
		out := mustRun(t, dir, "--json", "totals", "weekly")
		require.NoError(t, json.Unmarshal([]byte(out), &days))
		require.Len(t, days, 7)
		assert.Equal(t, core.Date("2024-01-09"), days[0].Date)
		assert.Equal(t, "3.10", days[0].Total.String())
		assert.Equal(t, core.Date("2024-01-15"), days[6].Date)
		assert.Equal(t, "12.90", days[6].Total.String())
	})

	t.Run("monthly is sparse", func(t *testing.T) {
		var days []analytics.DayTotal
		out := mustRun(t, dir, "--json", "totals", "monthly")
		require.NoError(t, json.Unmarshal([]byte(out), &days))
		require.Len(t, days, 2)
		assert.Equal(t, core.Date("2024-01-09"), days[0].Date)
		assert.Equal(t, core.Date("2024-01-15"), days[1].Date)
	})

	t.Run("stats", func(t *testing.T) {
		out := mustRun(t, dir, "totals", "stats", "--year", "2024", "--month", "1")
		assert.Contains(t, out, "$16.00")
		assert.Contains(t, out, "$12.90 on 2024-01-15")
		assert.Contains(t, out, "$8.00")
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := run(t, dir, "totals", "monthly", "--month", "13")
		assert.True(t, core.IsValidation(err))
	})

	t.Run("currency", func(t *testing.T) {
		out := mustRun(t, dir, "--currency", "EUR", "totals", "daily")
		assert.Contains(t, out, "€12.90")
	})
}

func TestCalendar(t *testing.T) {
	out := mustRun(t, t.TempDir(), "calendar")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "January 2024", lines[0])
	// January 2024 starts on a Monday.
	assert.True(t, strings.HasPrefix(lines[2], "(31)   1 "))
	assert.Contains(t, out, " 15*")
	assert.Contains(t, out, "(10)")
}

func TestExportImport(t *testing.T) {
	src := t.TempDir()
	food := addCategory(t, src, "Food")
	addExpense(t, src, "--name", "Lunch", "--amount", "12.50", "--category", food.ID)
	addExpense(t, src, "--name", "Bus", "--amount", "2", "--date", "2024-01-14")

	file := filepath.Join(t.TempDir(), "backup.json")
	mustRun(t, src, "export", "--format", "json", "--output", file)

	dst := t.TempDir()
	addExpense(t, dst, "--name", "Stale", "--amount", "1")
	out := mustRun(t, dst, "import", file)
	assert.Contains(t, out, "Imported 1 categories and 2 expenses")

	var items []core.ExpenseWithCategory
	out = mustRun(t, dst, "--json", "expenses", "list")
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	names := []string{items[0].Name, items[1].Name}
	assert.ElementsMatch(t, []string{"Lunch", "Bus"}, names)

	out = mustRun(t, src, "export", "--format", "csv")
	assert.Contains(t, out, "Lunch")

	_, err := run(t, dst, "import", "--format", "xlsx", file)
	assert.Error(t, err)
}
