package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dailyspend/internal/core"
	"dailyspend/internal/store/memory"
)

func ptr(s string) *string { return &s }

var created = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func sample() core.Snapshot {
	return core.Snapshot{
		Categories: []core.Category{
			{ID: "food", Name: "Food", Color: "#EF4444", CreatedAt: created},
			{ID: "fun", Name: "Fun, games", Color: "#F59E0B", CreatedAt: created},
		},
		Expenses: []core.Expense{
			{ID: "e1", Name: "Lunch", Amount: "12.50", Details: ptr(`said "hi"`), CategoryID: ptr("food"), Date: "2024-01-15", CreatedAt: created},
			{ID: "e2", Name: "Bus", Amount: "2.00", Date: "2024-01-15", CreatedAt: created},
			{ID: "e3", Name: "Arcade", Amount: "5.25", CategoryID: ptr("fun"), Date: "2024-01-16", CreatedAt: created},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"csv": FormatCSV, "CSV": FormatCSV,
		"xlsx": FormatXLSX, "excel": FormatXLSX,
		"yaml": FormatYAML, "yml": FormatYAML,
		" json ": FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "daily-spends-export-2024-01-15.csv", FileName(FormatCSV, created))
	assert.Equal(t, "daily-spends-export-2024-01-15.xlsx", FileName(FormatXLSX, created))
}

func TestCSV_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVCodec{}.Encode(&buf, sample()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "type,id,name,color,createdAt,expense_name,amount,details,categoryId,categoryName,date,expense_createdAt", lines[0])
	assert.Equal(t, "category,food,Food,#EF4444,2024-01-15T09:30:00Z,,,,,,,", lines[1])
	assert.Equal(t, `category,fun,"Fun, games",#F59E0B,2024-01-15T09:30:00Z,,,,,,,`, lines[2])
	assert.Equal(t, `expense,e1,,,,Lunch,12.50,"said ""hi""",food,Food,2024-01-15,2024-01-15T09:30:00Z`, lines[3])
	assert.Equal(t, "expense,e2,,,,Bus,2.00,,,,2024-01-15,2024-01-15T09:30:00Z", lines[4])
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			enc, err := encoderFor(f)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, enc.Encode(&buf, sample()))

			got, err := Decode(&buf, f)
			require.NoError(t, err)

			want := sample()
			require.Len(t, got.Categories, len(want.Categories))
			require.Len(t, got.Expenses, len(want.Expenses))
			for i := range want.Categories {
				assert.Equal(t, want.Categories[i].ID, got.Categories[i].ID)
				assert.Equal(t, want.Categories[i].Name, got.Categories[i].Name)
				assert.True(t, want.Categories[i].CreatedAt.Equal(got.Categories[i].CreatedAt))
			}
			for i := range want.Expenses {
				w, g := want.Expenses[i], got.Expenses[i]
				assert.Equal(t, w.ID, g.ID)
				assert.Equal(t, w.Amount, g.Amount)
				assert.Equal(t, w.Date, g.Date)
				assert.Equal(t, w.DetailsOrEmpty(), g.DetailsOrEmpty())
				assert.Equal(t, w.CategoryIDOrEmpty(), g.CategoryIDOrEmpty())
			}
		})
	}
}

func TestCSV_DecodeByHeaderName(t *testing.T) {
	in := "id,type,expense_name,amount,date,categoryId\n" +
		"e1,expense,Lunch,3.10,2024-02-01,\n" +
		"x,unknown,,,,\n"
	snap, err := Decode(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "Lunch", snap.Expenses[0].Name)
	assert.False(t, snap.Expenses[0].HasCategory())
}

func TestDecode_NoRows(t *testing.T) {
	for _, in := range []string{"", "type,id,name\n"} {
		_, err := Decode(strings.NewReader(in), FormatCSV)
		assert.ErrorIs(t, err, ErrNoRows)
		assert.Contains(t, err.Error(), "no rows found")
	}
	_, err := Decode(strings.NewReader(`{"categories":[],"expenses":[]}`), FormatJSON)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestNormalize(t *testing.T) {
	t.Run("detaches dangling category", func(t *testing.T) {
		snap := sample()
		snap.Categories = snap.Categories[:1]
		got, err := Normalize(snap)
		require.NoError(t, err)
		assert.False(t, got.Expenses[2].HasCategory())
		assert.True(t, got.Expenses[0].HasCategory())
	})

	t.Run("rejects bad rows", func(t *testing.T) {
		cases := map[string]func(*core.Snapshot){
			"missing category id":  func(s *core.Snapshot) { s.Categories[0].ID = "" },
			"empty category color": func(s *core.Snapshot) { s.Categories[0].Color = "" },
			"duplicate category":   func(s *core.Snapshot) { s.Categories[1].ID = "food" },
			"missing expense id":   func(s *core.Snapshot) { s.Expenses[0].ID = " " },
			"duplicate expense":    func(s *core.Snapshot) { s.Expenses[1].ID = "e1" },
			"empty amount":         func(s *core.Snapshot) { s.Expenses[0].Amount = "" },
			"bad date":             func(s *core.Snapshot) { s.Expenses[0].Date = "2024-13-01" },
			"negative amount":      func(s *core.Snapshot) { s.Expenses[1].Amount = "-7.50" },
			"zero amount":          func(s *core.Snapshot) { s.Expenses[1].Amount = "0" },
			"non-numeric amount":   func(s *core.Snapshot) { s.Expenses[1].Amount = "abc" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				snap := sample()
				mutate(&snap)
				_, err := Normalize(snap)
				assert.Error(t, err)
			})
		}
	})
}

func TestNormalize_Amounts(t *testing.T) {
	t.Run("canonicalises", func(t *testing.T) {
		snap := sample()
		snap.Expenses[1].Amount = "2,5"
		got, err := Normalize(snap)
		require.NoError(t, err)
		assert.Equal(t, "2.50", got.Expenses[1].Amount)
	})

	t.Run("reports the row", func(t *testing.T) {
		snap := sample()
		snap.Expenses[1].Amount = "-7.50"
		_, err := Normalize(snap)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		assert.Contains(t, err.Error(), "expense 2")
	})
}

func TestImport_InvalidAmountLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	dst := memory.New(nil)
	_, err := dst.CreateExpense(ctx, core.ExpenseInput{Name: "Keep", Amount: "1.00", Date: "2024-01-15"})
	require.NoError(t, err)

	body := `{"categories":[],"expenses":[
		{"id":"a","name":"Ok","amount":"10.00","date":"2024-01-15"},
		{"id":"b","name":"Refund","amount":"-7.50","date":"2024-01-15"},
		{"id":"c","name":"Junk","amount":"abc","date":"2024-01-15"}]}`
	_, err = Import(ctx, dst, strings.NewReader(body), FormatJSON)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	all, err := dst.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Keep", all[0].Name)
}

func TestExportImport_Store(t *testing.T) {
	ctx := context.Background()
	src := memory.New(core.DefaultCategories())
	cats, err := src.ListCategories(ctx)
	require.NoError(t, err)
	_, err = src.CreateExpense(ctx, core.ExpenseInput{Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: cats[0].ID})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, src, &buf, FormatCSV))

	dst := memory.New(nil)
	snap, err := Import(ctx, dst, &buf, FormatCSV)
	require.NoError(t, err)
	assert.Len(t, snap.Categories, 4)
	assert.Len(t, snap.Expenses, 1)

	got, err := dst.ListExpensesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Food", got[0].Category.Name)
}

func TestImport_RejectsXLSX(t *testing.T) {
	_, err := Import(context.Background(), memory.New(nil), strings.NewReader(""), FormatXLSX)
	assert.Error(t, err)
}

func TestXLSX_Workbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), restored(t, sample()), &buf, FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetCategories, sheetExpenses}, f.GetSheetList())

	rows, err := f.GetRows(sheetExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Amount", rows[0][3])
	assert.Equal(t, "Lunch", rows[1][2])
	assert.Equal(t, "12.5", rows[1][3])
	assert.Equal(t, "Food", rows[1][6])

	styleID, err := f.GetCellStyle(sheetCategories, "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
}

func restored(t *testing.T, snap core.Snapshot) *memory.Store {
	t.Helper()
	s := memory.New(nil)
	require.NoError(t, s.Restore(context.Background(), snap))
	return s
}
