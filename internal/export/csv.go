package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"dailyspend/internal/core"
)

var csvHeader = []string{
	"type",
	"id",
	"name",
	"color",
	"createdAt",
	"expense_name",
	"amount",
	"details",
	"categoryId",
	"categoryName",
	"date",
	"expense_createdAt",
}

const (
	rowCategory = "category"
	rowExpense  = "expense"
)

// CSVCodec writes one "category" row per category followed by one
// "expense" row per expense, all under a single shared header.
type CSVCodec struct{}

func (CSVCodec) Encode(w io.Writer, snap core.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
		if err := cw.Write([]string{
			rowCategory, c.ID, c.Name, c.Color, formatTime(c.CreatedAt),
			"", "", "", "", "", "", "",
		}); err != nil {
			return err
		}
	}
	for _, e := range snap.Expenses {
		catID := e.CategoryIDOrEmpty()
		if err := cw.Write([]string{
			rowExpense, e.ID, "", "", "",
			e.Name, e.Amount, e.DetailsOrEmpty(), catID, names[catID],
			e.Date.String(), formatTime(e.CreatedAt),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Decode locates columns by header name, so column order may differ from
// the one Encode writes. Rows of unknown type are skipped.
func (CSVCodec) Decode(r io.Reader) (core.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Snapshot{}, ErrNoRows
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := idx["type"]; !ok {
		return core.Snapshot{}, errors.New(`missing "type" column`)
	}

	var snap core.Snapshot
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("line %d: %w", line, err)
		}
		col := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		switch col("type") {
		case rowCategory:
			created, err := parseTime(col("createdAt"))
			if err != nil {
				return core.Snapshot{}, fmt.Errorf("line %d: createdAt: %w", line, err)
			}
			snap.Categories = append(snap.Categories, core.Category{
				ID:        col("id"),
				Name:      col("name"),
				Color:     col("color"),
				CreatedAt: created,
			})
		case rowExpense:
			created, err := parseTime(col("expense_createdAt"))
			if err != nil {
				return core.Snapshot{}, fmt.Errorf("line %d: expense_createdAt: %w", line, err)
			}
			snap.Expenses = append(snap.Expenses, core.Expense{
				ID:         col("id"),
				Name:       col("expense_name"),
				Amount:     col("amount"),
				Details:    optional(col("details")),
				CategoryID: optional(col("categoryId")),
				Date:       core.Date(col("date")),
				CreatedAt:  created,
			})
		}
	}
	return snap, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
