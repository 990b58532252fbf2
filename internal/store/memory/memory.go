package memory

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"dailyspend/internal/core"
	"dailyspend/internal/store"
)

// Store keeps categories and expenses in process memory.
type Store struct {
	mu   sync.Mutex
	now  func() time.Time
	cats []core.Category
	exps []core.Expense
}

var _ store.Store = (*Store)(nil)

// New returns a store seeded with the given categories.
func New(seeds []core.CategoryInput) *Store {
	s := &Store{now: time.Now}
	for _, in := range seeds {
		if in.Validate() != nil {
			continue
		}
		s.cats = append(s.cats, core.NewCategory(in, s.now().UTC()))
	}
	return s
}

// NewFromFiles seeds the store from base/seed_categories.txt, falling back
// to the default categories when the file is missing or empty.
func NewFromFiles(base string) *Store {
	return New(store.SeedOrDefault(filepath.Join(base, store.SeedFileName)))
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category{}, s.cats...), nil
}

func (s *Store) CreateCategory(_ context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := core.NewCategory(in, s.now().UTC())
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cats[:0]
	for _, c := range s.cats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.cats = kept
	store.DetachCategory(s.exps, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense{}, s.exps...), nil
}

func (s *Store) ListExpensesByDate(_ context.Context, date core.Date) ([]core.ExpenseWithCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Enrich(store.FilterByDate(s.exps, date), s.cats), nil
}

func (s *Store) ListExpensesByDateRange(_ context.Context, start, end core.Date) ([]core.ExpenseWithCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Enrich(store.FilterByRange(s.exps, start, end), s.cats), nil
}

func (s *Store) CreateExpense(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.ValidateExpense(in, s.cats); err != nil {
		return core.Expense{}, err
	}
	e := core.NewExpense(in, s.now().UTC())
	s.exps = append(s.exps, e)
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.exps[:0]
	for _, e := range s.exps {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.exps = kept
	return nil
}

func (s *Store) Restore(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append([]core.Category{}, snap.Categories...)
	s.exps = append([]core.Expense{}, snap.Expenses...)
	return nil
}
