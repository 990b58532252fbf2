// Package analytics derives totals from a snapshot of expenses. Nothing here
// is cached: every call recomputes from the records it is given.
package analytics

import (
	"sort"
	"time"

	"dailyspend/internal/core"
)

type (
	// DayTotal is the sum of one calendar day.
	DayTotal struct {
		Date  core.Date  `json:"date"`
		Total core.Money `json:"total"`
	}

	// CategoryTotal is the sum of one category's expenses on a day.
	// Category is nil when the id no longer resolves.
	CategoryTotal struct {
		CategoryID string         `json:"categoryId"`
		Total      core.Money     `json:"total"`
		Category   *core.Category `json:"category"`
		Percent    float64        `json:"percent"` // share of the day's total
	}

	// MonthStats summarises the active days of a month.
	MonthStats struct {
		Year       int        `json:"year"`
		Month      int        `json:"month"`
		Total      core.Money `json:"total"`
		ActiveDays int        `json:"activeDays"`
		Highest    *DayTotal  `json:"highest"`
		Average    core.Money `json:"average"` // per active day
	}
)

// amountOf parses a stored amount. Unparseable amounts count as zero.
func amountOf(e core.Expense) core.Money {
	m, err := core.MoneyFromString(e.Amount)
	if err != nil {
		return core.Zero
	}
	return m
}

// Sum adds up the amounts of the given expenses.
func Sum(expenses []core.Expense) core.Money {
	total := core.Zero
	for _, e := range expenses {
		total = total.Add(amountOf(e))
	}
	return total
}

// DailyTotal sums the expenses dated exactly on date.
func DailyTotal(expenses []core.Expense, date core.Date) core.Money {
	var day []core.Expense
	for _, e := range expenses {
		if e.Date == date {
			day = append(day, e)
		}
	}
	return Sum(day)
}

// CategoryTotals groups the categorized expenses of date by category id,
// in first-seen order. Uncategorized expenses are left out.
func CategoryTotals(expenses []core.Expense, categories []core.Category, date core.Date) []CategoryTotal {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	index := map[string]int{}
	rows := []CategoryTotal{}
	dayTotal := core.Zero
	for _, e := range expenses {
		if e.Date != date {
			continue
		}
		amount := amountOf(e)
		dayTotal = dayTotal.Add(amount)
		if !e.HasCategory() {
			continue
		}
		id := *e.CategoryID
		i, ok := index[id]
		if !ok {
			row := CategoryTotal{CategoryID: id, Total: core.Zero}
			if c, found := byID[id]; found {
				c := c
				row.Category = &c
			}
			rows = append(rows, row)
			i = len(rows) - 1
			index[id] = i
		}
		rows[i].Total = rows[i].Total.Add(amount)
	}

	for i := range rows {
		rows[i].Percent = rows[i].Total.Percent(dayTotal)
	}
	return rows
}

// MonthlyTotals returns one row per day of the month that has at least one
// expense, ascending by date. Days without expenses are omitted.
func MonthlyTotals(expenses []core.Expense, year int, month time.Month) []DayTotal {
	start, end := core.MonthRange(year, month)
	return sparseTotals(expenses, start, end)
}

func sparseTotals(expenses []core.Expense, start, end core.Date) []DayTotal {
	sums := map[core.Date]core.Money{}
	for _, e := range expenses {
		if !e.Date.InRange(start, end) {
			continue
		}
		cur, ok := sums[e.Date]
		if !ok {
			cur = core.Zero
		}
		sums[e.Date] = cur.Add(amountOf(e))
	}

	out := make([]DayTotal, 0, len(sums))
	for d, total := range sums {
		out = append(out, DayTotal{Date: d, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// WeeklyTotals returns exactly seven rows for date-6 through date,
// ascending, with zero for days without expenses.
func WeeklyTotals(expenses []core.Expense, date core.Date) []DayTotal {
	start := date.AddDays(-6)
	sums := map[core.Date]core.Money{}
	for _, row := range sparseTotals(expenses, start, date) {
		sums[row.Date] = row.Total
	}

	out := make([]DayTotal, 7)
	for i := range out {
		d := start.AddDays(i)
		total, ok := sums[d]
		if !ok {
			total = core.Zero
		}
		out[i] = DayTotal{Date: d, Total: total}
	}
	return out
}

// SummarizeMonth derives stats from a month's sparse daily totals.
func SummarizeMonth(year int, month time.Month, days []DayTotal) MonthStats {
	stats := MonthStats{Year: year, Month: int(month), Total: core.Zero, Average: core.Zero}
	for _, d := range days {
		stats.Total = stats.Total.Add(d.Total)
		if d.Total.IsZero() {
			continue
		}
		stats.ActiveDays++
		if stats.Highest == nil || d.Total.Cmp(stats.Highest.Total) > 0 {
			d := d
			stats.Highest = &d
		}
	}
	stats.Average = stats.Total.Div(stats.ActiveDays)
	return stats
}
