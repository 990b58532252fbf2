package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyspend/internal/amqp"
	"dailyspend/internal/core"
	"dailyspend/internal/store/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, e *amqp.ExpenseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func newService(t *testing.T, pub Publisher) (*ExpenseService, core.Category) {
	t.Helper()
	st := memory.New(nil)
	svc := NewExpenseService(st, pub)
	cat, err := svc.CreateCategory(context.Background(), core.CategoryInput{Name: "Food", Color: "#EF4444"})
	require.NoError(t, err)
	return svc, cat
}

func TestExpenseService_CreateExpense_NormalisesAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12.50"},
		{"12,50", "12.50"},
		{"3", "3.00"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			svc, _ := newService(t, nil)
			e, err := svc.CreateExpense(context.Background(), core.ExpenseInput{
				Name: "Lunch", Amount: tt.in, Date: "2024-01-15",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Amount)
		})
	}
}

func TestExpenseService_CreateExpense_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		in    core.ExpenseInput
		field string
	}{
		{"empty name", core.ExpenseInput{Amount: "1", Date: "2024-01-15"}, "name"},
		{"negative amount", core.ExpenseInput{Name: "x", Amount: "-1", Date: "2024-01-15"}, "amount"},
		{"zero amount", core.ExpenseInput{Name: "x", Amount: "0", Date: "2024-01-15"}, "amount"},
		{"text amount", core.ExpenseInput{Name: "x", Amount: "abc", Date: "2024-01-15"}, "amount"},
		{"impossible date", core.ExpenseInput{Name: "x", Amount: "1", Date: "2024-02-30"}, "date"},
		{"unknown category", core.ExpenseInput{Name: "x", Amount: "1", Date: "2024-01-15", CategoryID: "nope"}, "categoryId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc, _ := newService(t, pub)
			_, err := svc.CreateExpense(context.Background(), tt.in)
			require.Error(t, err)

			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, pub.events)
		})
	}
}

func TestExpenseService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, cat := newService(t, pub)

	e, err := svc.CreateExpense(ctx, core.ExpenseInput{
		Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: cat.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	require.NoError(t, svc.DeleteExpense(ctx, e.ID))

	require.Len(t, pub.events, 3)

	created := pub.events[0]
	assert.Equal(t, amqp.ExpenseCreated, created.Type)
	assert.Equal(t, e.ID, created.ExpenseID)
	assert.Equal(t, cat.ID, created.CategoryID)
	require.NotNil(t, created.Expense)
	require.NotNil(t, created.Expense.Category)
	assert.Equal(t, "Food", created.Expense.Category.Name)

	assert.Equal(t, amqp.CategoryDeleted, pub.events[1].Type)
	assert.Equal(t, cat.ID, pub.events[1].CategoryID)
	assert.Equal(t, amqp.ExpenseDeleted, pub.events[2].Type)
	assert.Equal(t, e.ID, pub.events[2].ExpenseID)
}

func TestExpenseService_PublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newService(t, pub)

	e, err := svc.CreateExpense(ctx, core.ExpenseInput{Name: "Bus", Amount: "2", Date: "2024-01-15"})
	require.NoError(t, err)

	all, err := svc.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, e.ID, all[0].ID)
}

func TestExpenseService_ListByDateValidatesInput(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.ListExpensesByDate(context.Background(), "15/01/2024")
	assert.True(t, core.IsValidation(err))

	_, err = svc.ListExpensesByDateRange(context.Background(), "2024-01-01", "")
	assert.ErrorIs(t, err, core.ErrEmptyDate)
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{}
		require.NoError(t, service.Close())
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		service := NewExpenseService(memory.New(nil), pub)
		require.NoError(t, service.Close())
		assert.True(t, pub.closed)
	})
}
