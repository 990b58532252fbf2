package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dailyspend/internal/amqp"
	"dailyspend/internal/core"
	"dailyspend/internal/store"
)

// Publisher delivers change events. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService is the write path shared by the HTTP API and the CLI. It
// normalises input, delegates to the store and announces changes.
type ExpenseService struct {
	store     store.Store
	publisher Publisher
}

func NewExpenseService(s store.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     s,
		publisher: publisher,
	}
}

// Store exposes the underlying store for read-only callers.
func (s *ExpenseService) Store() store.Store {
	return s.store
}

func (s *ExpenseService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *ExpenseService) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	c, err := s.store.CreateCategory(ctx, in)
	if err != nil {
		return core.Category{}, wrapStoreErr("create category", err)
	}
	slog.InfoContext(ctx, "Category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// DeleteCategory removes the category; its expenses stay, uncategorized.
func (s *ExpenseService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	s.publish(ctx, amqp.NewCategoryDeletedEvent(id))
	return nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx)
}

func (s *ExpenseService) ListExpensesByDate(ctx context.Context, date string) ([]core.ExpenseWithCategory, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.store.ListExpensesByDate(ctx, d)
}

func (s *ExpenseService) ListExpensesByDateRange(ctx context.Context, start, end string) ([]core.ExpenseWithCategory, error) {
	from, err := core.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return nil, err
	}
	return s.store.ListExpensesByDateRange(ctx, from, to)
}

// CreateExpense stores the amount in canonical two-decimal form and rejects
// dates that are not real calendar days.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(string(in.Date))
	if err != nil {
		return core.Expense{}, err
	}
	in.Amount = amount.String()
	in.Date = date

	e, err := s.store.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, wrapStoreErr("create expense", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID,
		"amount", e.Amount,
		"date", e.Date,
		"category_id", e.CategoryIDOrEmpty())

	s.publish(ctx, amqp.NewExpenseCreatedEvent(s.enrich(ctx, e)))
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	s.publish(ctx, amqp.NewExpenseDeletedEvent(id))
	return nil
}

// Restore replaces the store content with snap.
func (s *ExpenseService) Restore(ctx context.Context, snap core.Snapshot) error {
	if err := s.store.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Store restored",
		"categories", len(snap.Categories),
		"expenses", len(snap.Expenses))
	return nil
}

func (s *ExpenseService) enrich(ctx context.Context, e core.Expense) core.ExpenseWithCategory {
	if !e.HasCategory() {
		return core.ExpenseWithCategory{Expense: e}
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to resolve category for event", "error", err)
		return core.ExpenseWithCategory{Expense: e}
	}
	return core.Enrich([]core.Expense{e}, cats)[0]
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping event", "type", event.Type)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", event.Type,
			"expense_id", event.ExpenseID,
			"category_id", event.CategoryID,
			"error", err)
		// The store write already succeeded.
	}
}

// wrapStoreErr keeps validation errors unwrapped so callers can map them
// to a field.
func wrapStoreErr(op string, err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Close releases the store and publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
