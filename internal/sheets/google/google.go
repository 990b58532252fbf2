package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"dailyspend/internal/cache"
	"dailyspend/internal/core"
	ports "dailyspend/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Columns of the mirrored expense sheet, starting at A.
var header = []any{"ID", "Date", "Name", "Amount", "Details", "Category ID", "Category", "Created At"}

const (
	colCategoryID = 5 // F
	lastColumn    = "H"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Numeric sheet ids never change for a sheet name, so they are cached.
	sheetIDs *cache.LRUCache[int64]
}

// Ensure interface conformance
var _ ports.ExpenseMirror = (*Client)(nil)

// Options configures a Client. One of CredentialsJSON or CredentialsFile
// must be set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Expenses").
func NewFromEnv(ctx context.Context) (*Client, error) {
	opts := Options{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if opts.CredentialsJSON == "" && opts.CredentialsFile == "" {
		opts.CredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, opts)
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if opts.SheetName == "" {
		opts.SheetName = "Expenses"
	}

	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", opts.SheetName)

	return newClient(svc, opts.SpreadsheetID, opts.SheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		sheetIDs:      cache.NewLRUCache[int64](16, 24*time.Hour),
	}
}

// Cache exposes the sheet id cache so it can be swept with other caches.
func (c *Client) Cache() cache.Cleaner {
	return c.sheetIDs
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	switch {
	case opts.CredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// EnsureHeader writes the header row when the sheet's first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:%s1", c.sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote sheet header", "sheet", c.sheetName)
	return nil
}

func (c *Client) AppendExpense(ctx context.Context, e core.ExpenseWithCategory) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	if row := findRowByID(rows, e.ID); row >= 0 {
		slog.InfoContext(ctx, "Expense already mirrored", "expense_id", e.ID, "row", row+1)
		return nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	row := findRowByID(rows, id)
	if row < 0 {
		slog.InfoContext(ctx, "Expense not in sheet, nothing to delete", "expense_id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row+1, c.sheetName, err)
	}
	return nil
}

func (c *Client) DetachCategory(ctx context.Context, categoryID string) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return 0, err
	}
	matches := rowsWithCategory(rows, categoryID)
	if len(matches) == 0 {
		return 0, nil
	}

	data := make([]*gsheet.ValueRange, 0, len(matches))
	for _, r := range matches {
		data = append(data, &gsheet.ValueRange{
			Range:  fmt.Sprintf("%s!F%d:G%d", c.sheetName, r+1, r+1),
			Values: [][]any{{"", ""}},
		})
	}
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("detach category %s in sheet %s: %w", categoryID, c.sheetName, err)
	}
	return len(matches), nil
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	if id, ok := c.sheetIDs.Get(c.sheetName); ok {
		return id, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		c.sheetIDs.Set(s.Properties.Title, s.Properties.SheetId)
	}
	if id, ok := c.sheetIDs.Get(c.sheetName); ok {
		return id, nil
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

// expenseRow renders e in column order. Amounts stay strings so the sheet
// holds the exact stored value.
func expenseRow(e core.ExpenseWithCategory) []any {
	categoryName := ""
	if e.Category != nil {
		categoryName = e.Category.Name
	}
	return []any{
		e.ID,
		e.Date.String(),
		e.Name,
		e.Amount,
		e.DetailsOrEmpty(),
		e.CategoryIDOrEmpty(),
		categoryName,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// findRowByID returns the zero-based index of the row whose first cell is
// id, or -1.
func findRowByID(rows [][]any, id string) int {
	if id == "" {
		return -1
	}
	for i, row := range rows {
		if cell(row, 0) == id {
			return i
		}
	}
	return -1
}

// rowsWithCategory returns the zero-based indices of rows that reference
// categoryID. The header row never matches.
func rowsWithCategory(rows [][]any, categoryID string) []int {
	var out []int
	if categoryID == "" {
		return out
	}
	for i, row := range rows {
		if cell(row, colCategoryID) == categoryID {
			out = append(out, i)
		}
	}
	return out
}

func cell(row []any, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
