package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dailyspend/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const timeLayout = time.RFC3339Nano

const listCategories = `SELECT id, name, color, created_at FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Category{}
	for rows.Next() {
		var c core.Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("category %s created_at: %w", c.ID, err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const categoryExists = `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`

func (q *Queries) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, categoryExists, id).Scan(&exists)
	return exists, err
}

const insertCategory = `INSERT INTO categories (id, name, color, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx, insertCategory, c.ID, c.Name, c.Color, c.CreatedAt.UTC().Format(timeLayout))
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const detachExpenses = `UPDATE expenses SET category_id = NULL WHERE category_id = ?`

func (q *Queries) DetachExpenses(ctx context.Context, categoryID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, detachExpenses, categoryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectExpenses = `SELECT id, name, amount, details, category_id, date, created_at FROM expenses`
const orderExpenses = ` ORDER BY rowid`

func (q *Queries) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return q.queryExpenses(ctx, selectExpenses+orderExpenses)
}

func (q *Queries) ListExpensesByDate(ctx context.Context, date core.Date) ([]core.Expense, error) {
	return q.queryExpenses(ctx, selectExpenses+` WHERE date = ?`+orderExpenses, string(date))
}

func (q *Queries) ListExpensesByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	return q.queryExpenses(ctx, selectExpenses+` WHERE date >= ? AND date <= ?`+orderExpenses, string(start), string(end))
}

func (q *Queries) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Expense{}
	for rows.Next() {
		var (
			e                   core.Expense
			details, categoryID sql.NullString
			date, createdAt     string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &details, &categoryID, &date, &createdAt); err != nil {
			return nil, err
		}
		e.Date = core.Date(date)
		if details.Valid {
			e.Details = &details.String
		}
		if categoryID.Valid {
			e.CategoryID = &categoryID.String
		}
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("expense %s created_at: %w", e.ID, err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const insertExpense = `INSERT INTO expenses (id, name, amount, details, category_id, date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx, insertExpense,
		e.ID, e.Name, e.Amount, nullable(e.Details), nullable(e.CategoryID), string(e.Date), e.CreatedAt.UTC().Format(timeLayout))
	return err
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, id)
	return err
}

func (q *Queries) DeleteAll(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories`)
	return err
}

const getMeta = `SELECT value FROM store_meta WHERE key = ?`

func (q *Queries) GetMeta(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getMeta, key).Scan(&v)
	return v, err
}

const setMeta = `INSERT INTO store_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) SetMeta(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, setMeta, key, value)
	return err
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
