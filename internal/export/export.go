// Package export writes and reads whole-store snapshots in the formats the
// UI and CLI offer for download and restore.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var ErrNoRows = errors.New("no rows found")

// Encoder writes a snapshot in one format.
type Encoder interface {
	Encode(w io.Writer, snap core.Snapshot) error
}

// Decoder reads a snapshot written by the matching Encoder.
type Decoder interface {
	Decode(r io.Reader) (core.Snapshot, error)
}

// ParseFormat accepts a format name case-insensitively; "yml" and "excel"
// are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// FileName is the download name, e.g. daily-spends-export-2024-01-15.csv.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("daily-spends-export-%s.%s", core.DateOf(now), f)
}

func encoderFor(f Format) (Encoder, error) {
	switch f {
	case FormatCSV:
		return CSVCodec{}, nil
	case FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatYAML:
		return YAMLCodec{}, nil
	case FormatJSON:
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

func decoderFor(f Format) (Decoder, error) {
	switch f {
	case FormatCSV:
		return CSVCodec{}, nil
	case FormatYAML:
		return YAMLCodec{}, nil
	case FormatJSON:
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported import format %q", f)
	}
}

// Export writes the whole content of src to w.
func Export(ctx context.Context, src store.Store, w io.Writer, f Format) error {
	enc, err := encoderFor(f)
	if err != nil {
		return err
	}
	snap, err := store.Snapshot(ctx, src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := enc.Encode(w, snap); err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	slog.InfoContext(ctx, "Exported snapshot",
		"format", f,
		"categories", len(snap.Categories),
		"expenses", len(snap.Expenses))
	return nil
}

// Decode reads and normalises a snapshot without touching any store.
func Decode(r io.Reader, f Format) (core.Snapshot, error) {
	dec, err := decoderFor(f)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap, err := dec.Decode(r)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode %s: %w", f, err)
	}
	if len(snap.Categories) == 0 && len(snap.Expenses) == 0 {
		return core.Snapshot{}, ErrNoRows
	}
	return Normalize(snap)
}

// Import replaces the content of dst with the snapshot read from r.
func Import(ctx context.Context, dst store.Restorer, r io.Reader, f Format) (core.Snapshot, error) {
	snap, err := Decode(r, f)
	if err != nil {
		return core.Snapshot{}, err
	}
	if err := dst.Restore(ctx, snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("restore snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Imported snapshot",
		"format", f,
		"categories", len(snap.Categories),
		"expenses", len(snap.Expenses))
	return snap, nil
}

// Normalize checks required fields, canonicalises dates and amounts and
// detaches expenses whose category is not part of the snapshot. Amounts go
// through the same checks as newly entered ones.
func Normalize(snap core.Snapshot) (core.Snapshot, error) {
	out := core.Snapshot{
		Categories: make([]core.Category, 0, len(snap.Categories)),
		Expenses:   make([]core.Expense, 0, len(snap.Expenses)),
	}
	seen := map[string]bool{}
	for i, c := range snap.Categories {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return core.Snapshot{}, fmt.Errorf("category %d: missing id", i+1)
		}
		if err := (core.CategoryInput{Name: c.Name, Color: c.Color}).Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("category %d: %w", i+1, err)
		}
		if seen[c.ID] {
			return core.Snapshot{}, fmt.Errorf("category %d: duplicate id %q", i+1, c.ID)
		}
		seen[c.ID] = true
		out.Categories = append(out.Categories, c)
	}

	ids := map[string]bool{}
	for i, e := range snap.Expenses {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return core.Snapshot{}, fmt.Errorf("expense %d: missing id", i+1)
		}
		if ids[e.ID] {
			return core.Snapshot{}, fmt.Errorf("expense %d: duplicate id %q", i+1, e.ID)
		}
		ids[e.ID] = true
		in := core.ExpenseInput{Name: e.Name, Amount: e.Amount, Date: e.Date}
		if err := in.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		d, err := core.ParseDate(string(e.Date))
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		e.Date = d
		amount, err := core.ParseAmount(e.Amount)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		e.Amount = amount.String()
		if e.Details != nil && *e.Details == "" {
			e.Details = nil
		}
		if e.CategoryID != nil && (*e.CategoryID == "" || !seen[*e.CategoryID]) {
			e = e.Detach()
		}
		out.Expenses = append(out.Expenses, e)
	}
	return out, nil
}
