package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dailyspend/internal/core"
	"dailyspend/internal/store"

	_ "modernc.org/sqlite"
)

const metaSeeded = "seeded"

// SQLiteRepository is the SQLite-backed record store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Seed inserts the given categories the first time a database is opened.
// Later calls are no-ops even if every category has since been deleted.
func (r *SQLiteRepository) Seed(ctx context.Context, seeds []core.CategoryInput) error {
	return r.inTx(ctx, func(q *Queries) error {
		_, err := q.GetMeta(ctx, metaSeeded)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read seed marker: %w", err)
		}
		for _, in := range seeds {
			if in.Validate() != nil {
				continue
			}
			if err := q.InsertCategory(ctx, core.NewCategory(in, r.now().UTC())); err != nil {
				return fmt.Errorf("seed category %q: %w", in.Name, err)
			}
		}
		slog.InfoContext(ctx, "Seeded categories", "count", len(seeds))
		return q.SetMeta(ctx, metaSeeded, r.now().UTC().Format(timeLayout))
	})
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	c := core.NewCategory(in, r.now().UTC())
	if err := r.queries.InsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name)
	return c, nil
}

// DeleteCategory removes the category and detaches its expenses in one
// transaction.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(q *Queries) error {
		removed, err := q.DeleteCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if removed == 0 {
			return nil
		}
		detached, err := q.DetachExpenses(ctx, id)
		if err != nil {
			return fmt.Errorf("detach expenses: %w", err)
		}
		slog.InfoContext(ctx, "Category deleted from SQLite", "id", id, "detached_expenses", detached)
		return nil
	})
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	exps, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return exps, nil
}

func (r *SQLiteRepository) ListExpensesByDate(ctx context.Context, date core.Date) ([]core.ExpenseWithCategory, error) {
	exps, err := r.queries.ListExpensesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list expenses by date: %w", err)
	}
	return r.enrich(ctx, exps)
}

func (r *SQLiteRepository) ListExpensesByDateRange(ctx context.Context, start, end core.Date) ([]core.ExpenseWithCategory, error) {
	exps, err := r.queries.ListExpensesByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses by date range: %w", err)
	}
	return r.enrich(ctx, exps)
}

func (r *SQLiteRepository) enrich(ctx context.Context, exps []core.Expense) ([]core.ExpenseWithCategory, error) {
	cats, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return core.Enrich(exps, cats), nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	var e core.Expense
	err := r.inTx(ctx, func(q *Queries) error {
		if in.CategoryID != "" {
			ok, err := q.CategoryExists(ctx, in.CategoryID)
			if err != nil {
				return fmt.Errorf("check category: %w", err)
			}
			if !ok {
				return core.ErrUnknownCategory
			}
		}
		e = core.NewExpense(in, r.now().UTC())
		if err := q.InsertExpense(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"name", e.Name,
		"amount", e.Amount,
		"date", e.Date)

	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	if err := r.queries.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Restore(ctx context.Context, snap core.Snapshot) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
		for _, c := range snap.Categories {
			if err := q.InsertCategory(ctx, c); err != nil {
				return fmt.Errorf("restore category %s: %w", c.ID, err)
			}
		}
		for _, e := range snap.Expenses {
			if err := q.InsertExpense(ctx, e); err != nil {
				return fmt.Errorf("restore expense %s: %w", e.ID, err)
			}
		}
		slog.InfoContext(ctx, "Store restored",
			"categories", len(snap.Categories),
			"expenses", len(snap.Expenses))
		return nil
	})
}
