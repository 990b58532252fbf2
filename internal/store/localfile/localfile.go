// Package localfile persists the record store as two JSON documents in a
// directory, one per collection. Every operation re-reads the files, so
// edits made by another process between calls are picked up.
package localfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
)

const (
	CategoriesFile = "dailyspend_categories.json"
	ExpensesFile   = "dailyspend_expenses.json"
)

type Store struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens (or initialises) a store in dir. When no categories file exists
// yet it is created with the given seeds.
func New(dir string, seeds []core.CategoryInput) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}

	if _, err := os.Stat(s.path(CategoriesFile)); errors.Is(err, fs.ErrNotExist) {
		cats := make([]core.Category, 0, len(seeds))
		for _, in := range seeds {
			if in.Validate() != nil {
				continue
			}
			cats = append(cats, core.NewCategory(in, s.now().UTC()))
		}
		if err := s.write(CategoriesFile, cats); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFromFiles opens dir and seeds it from dir/seed_categories.txt or the
// default categories.
func NewFromFiles(dir string) (*Store, error) {
	return New(dir, store.SeedOrDefault(filepath.Join(dir, store.SeedFileName)))
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmpPath := s.path(name) + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) categories() ([]core.Category, error) {
	cats := []core.Category{}
	err := s.read(CategoriesFile, &cats)
	return cats, err
}

func (s *Store) expenses() ([]core.Expense, error) {
	exps := []core.Expense{}
	err := s.read(ExpensesFile, &exps)
	return exps, err
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories()
}

func (s *Store) CreateCategory(_ context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.categories()
	if err != nil {
		return core.Category{}, err
	}
	c := core.NewCategory(in, s.now().UTC())
	if err := s.write(CategoriesFile, append(cats, c)); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.categories()
	if err != nil {
		return err
	}
	kept := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cats) {
		return nil
	}
	if err := s.write(CategoriesFile, kept); err != nil {
		return err
	}

	exps, err := s.expenses()
	if err != nil {
		return err
	}
	if store.DetachCategory(exps, id) == 0 {
		return nil
	}
	return s.write(ExpensesFile, exps)
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses()
}

func (s *Store) ListExpensesByDate(_ context.Context, date core.Date) ([]core.ExpenseWithCategory, error) {
	return s.enriched(func(exps []core.Expense) []core.Expense {
		return store.FilterByDate(exps, date)
	})
}

func (s *Store) ListExpensesByDateRange(_ context.Context, start, end core.Date) ([]core.ExpenseWithCategory, error) {
	return s.enriched(func(exps []core.Expense) []core.Expense {
		return store.FilterByRange(exps, start, end)
	})
}

func (s *Store) enriched(filter func([]core.Expense) []core.Expense) ([]core.ExpenseWithCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exps, err := s.expenses()
	if err != nil {
		return nil, err
	}
	cats, err := s.categories()
	if err != nil {
		return nil, err
	}
	return core.Enrich(filter(exps), cats), nil
}

func (s *Store) CreateExpense(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.categories()
	if err != nil {
		return core.Expense{}, err
	}
	if err := store.ValidateExpense(in, cats); err != nil {
		return core.Expense{}, err
	}
	exps, err := s.expenses()
	if err != nil {
		return core.Expense{}, err
	}
	e := core.NewExpense(in, s.now().UTC())
	if err := s.write(ExpensesFile, append(exps, e)); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exps, err := s.expenses()
	if err != nil {
		return err
	}
	kept := make([]core.Expense, 0, len(exps))
	for _, e := range exps {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(exps) {
		return nil
	}
	return s.write(ExpensesFile, kept)
}

func (s *Store) Restore(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := snap.Categories
	if cats == nil {
		cats = []core.Category{}
	}
	exps := snap.Expenses
	if exps == nil {
		exps = []core.Expense{}
	}
	if err := s.write(CategoriesFile, cats); err != nil {
		return err
	}
	return s.write(ExpensesFile, exps)
}
