package worker

import (
	"context"
	"fmt"
	"log/slog"

	"dailyspend/internal/amqp"
	"dailyspend/internal/core"
	"dailyspend/internal/sheets"
)

// ExpenseSource lists the records a backfill copies to the mirror.
type ExpenseSource interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
}

// MirrorWorker applies expense events to a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.ExpenseMirror
}

func NewMirrorWorker(mirror sheets.ExpenseMirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleEvent processes a single event from AMQP. A returned error makes
// the consumer requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", event.Type,
		"expense_id", event.ExpenseID,
		"category_id", event.CategoryID)

	switch event.Type {
	case amqp.ExpenseCreated:
		if event.Expense == nil {
			return fmt.Errorf("%s event without expense", event.Type)
		}
		if err := w.mirror.AppendExpense(ctx, *event.Expense); err != nil {
			return fmt.Errorf("append expense to mirror: %w", err)
		}

	case amqp.ExpenseDeleted:
		if err := w.mirror.DeleteExpense(ctx, event.ExpenseID); err != nil {
			return fmt.Errorf("delete expense from mirror: %w", err)
		}

	case amqp.CategoryDeleted:
		n, err := w.mirror.DetachCategory(ctx, event.CategoryID)
		if err != nil {
			return fmt.Errorf("detach category in mirror: %w", err)
		}
		slog.InfoContext(ctx, "Detached category in mirror",
			"category_id", event.CategoryID,
			"rows", n)

	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", event.Type)
	}
	return nil
}

// Backfill appends every stored expense to the mirror. Rows already present
// are skipped by the mirror, so running it on every start is safe.
func (w *MirrorWorker) Backfill(ctx context.Context, src ExpenseSource) (int, error) {
	cats, err := src.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	exps, err := src.ListExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}

	synced := 0
	for _, e := range core.Enrich(exps, cats) {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirror.AppendExpense(ctx, e); err != nil {
			return synced, fmt.Errorf("append expense %s: %w", e.ID, err)
		}
		synced++
	}

	slog.InfoContext(ctx, "Backfill completed", "expenses", synced)
	return synced, nil
}
