package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"dailyspend/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:   "test-id",
		CredentialsFile: "/nonexistent/credentials.json",
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got: %v", err)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"}
	ctx := context.Background()

	if err := c.AppendExpense(ctx, core.ExpenseWithCategory{}); err == nil {
		t.Error("AppendExpense should fail without a service")
	}
	if err := c.DeleteExpense(ctx, "x"); err == nil {
		t.Error("DeleteExpense should fail without a service")
	}
	if _, err := c.DetachCategory(ctx, "x"); err == nil {
		t.Error("DetachCategory should fail without a service")
	}
	if err := c.EnsureHeader(ctx); err == nil {
		t.Error("EnsureHeader should fail without a service")
	}
}

func TestExpenseRow(t *testing.T) {
	cat := "food"
	details := "with coffee"
	created := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)

	row := expenseRow(core.ExpenseWithCategory{
		Expense: core.Expense{
			ID:         "exp-1",
			Name:       "Lunch",
			Amount:     "12.50",
			Details:    &details,
			CategoryID: &cat,
			Date:       "2024-01-15",
			CreatedAt:  created,
		},
		Category: &core.Category{ID: "food", Name: "Food"},
	})

	want := []any{"exp-1", "2024-01-15", "Lunch", "12.50", "with coffee", "food", "Food", "2024-01-15T12:30:00Z"}
	if len(row) != len(want) || len(row) != len(header) {
		t.Fatalf("row has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestExpenseRow_Uncategorized(t *testing.T) {
	row := expenseRow(core.ExpenseWithCategory{
		Expense: core.Expense{ID: "exp-2", Name: "Bus", Amount: "2.00", Date: "2024-01-15"},
	})
	if row[4] != "" || row[5] != "" || row[6] != "" {
		t.Errorf("optional columns should be empty, got %v", row)
	}
}

func TestFindRowByID(t *testing.T) {
	rows := [][]any{
		header,
		{"a", "2024-01-15", "Lunch"},
		{},
		{" b ", "2024-01-16", "Bus"},
	}

	tests := []struct {
		id   string
		want int
	}{
		{"a", 1},
		{"b", 3},
		{"missing", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := findRowByID(rows, tt.id); got != tt.want {
			t.Errorf("findRowByID(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowsWithCategory(t *testing.T) {
	rows := [][]any{
		header,
		{"a", "2024-01-15", "Lunch", "12.50", "", "food", "Food"},
		{"b", "2024-01-15", "Bus", "2.00", "", "", ""},
		{"c", "2024-01-16", "Dinner", "20.00", "", "food", "Food"},
		{"d", "2024-01-16", "Short"},
	}

	got := rowsWithCategory(rows, "food")
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("rowsWithCategory = %v, want [1 3]", got)
	}
	if got := rowsWithCategory(rows, ""); len(got) != 0 {
		t.Errorf("empty category should match nothing, got %v", got)
	}
}

func TestSheetID_CacheHit(t *testing.T) {
	c := newClient(nil, "test", "Expenses")
	c.sheetIDs.Set("Expenses", 42)

	id, err := c.sheetID(context.Background())
	if err != nil {
		t.Fatalf("sheetID() error = %v", err)
	}
	if id != 42 {
		t.Errorf("sheetID() = %d, want 42", id)
	}
}

func TestClient_CacheSweepsSheetIDs(t *testing.T) {
	c := newClient(nil, "spreadsheet", "Expenses")
	c.sheetIDs.Set("Expenses", 7)

	if n := c.Cache().CleanExpired(); n != 0 {
		t.Errorf("CleanExpired() = %d, want 0 for a fresh entry", n)
	}
	if id, ok := c.sheetIDs.Get("Expenses"); !ok || id != 7 {
		t.Errorf("sheet id = %d, %v", id, ok)
	}
}
