package analytics

import (
	"context"
	"fmt"
	"time"

	"dailyspend/internal/core"
)

// Source is the read side of a record store.
type Source interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
}

// Engine answers aggregate queries from a fresh snapshot of its source.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

func (e *Engine) expenses(ctx context.Context) ([]core.Expense, error) {
	exps, err := e.src.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("read expenses: %w", err)
	}
	return exps, nil
}

func (e *Engine) DailyTotal(ctx context.Context, date core.Date) (core.Money, error) {
	exps, err := e.expenses(ctx)
	if err != nil {
		return core.Zero, err
	}
	return DailyTotal(exps, date), nil
}

func (e *Engine) CategoryTotals(ctx context.Context, date core.Date) ([]CategoryTotal, error) {
	exps, err := e.expenses(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := e.src.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	return CategoryTotals(exps, cats, date), nil
}

// MonthlyTotals takes a 1-based month.
func (e *Engine) MonthlyTotals(ctx context.Context, year int, month time.Month) ([]DayTotal, error) {
	exps, err := e.expenses(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyTotals(exps, year, month), nil
}

func (e *Engine) WeeklyTotals(ctx context.Context, date core.Date) ([]DayTotal, error) {
	exps, err := e.expenses(ctx)
	if err != nil {
		return nil, err
	}
	return WeeklyTotals(exps, date), nil
}

func (e *Engine) MonthStats(ctx context.Context, year int, month time.Month) (MonthStats, error) {
	days, err := e.MonthlyTotals(ctx, year, month)
	if err != nil {
		return MonthStats{}, err
	}
	return SummarizeMonth(year, month, days), nil
}
