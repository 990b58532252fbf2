package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"dailyspend/internal/core"
)

const (
	sheetCategories = "Categories"
	sheetExpenses   = "Expenses"
)

// XLSXEncoder writes a workbook with a Categories and an Expenses sheet.
// Amounts are written as numbers so spreadsheet formulas work on them.
type XLSXEncoder struct{}

func (XLSXEncoder) Encode(w io.Writer, snap core.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetCategories); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetExpenses); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	names := make(map[string]string, len(snap.Categories))
	catRows := make([][]any, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
		catRows = append(catRows, []any{c.ID, c.Name, c.Color, formatTime(c.CreatedAt)})
	}
	if err := writeSheet(f, sheetCategories, headerStyle,
		[]any{"ID", "Name", "Color", "Created At"}, catRows); err != nil {
		return err
	}

	expRows := make([][]any, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		var amount any = e.Amount
		if m, err := core.MoneyFromString(e.Amount); err == nil {
			amount = m.Float64()
		}
		catID := e.CategoryIDOrEmpty()
		expRows = append(expRows, []any{
			e.ID, e.Date.String(), e.Name, amount, e.DetailsOrEmpty(),
			catID, names[catID], formatTime(e.CreatedAt),
		})
	}
	if err := writeSheet(f, sheetExpenses, headerStyle,
		[]any{"ID", "Date", "Name", "Amount", "Details", "Category ID", "Category", "Created At"}, expRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
