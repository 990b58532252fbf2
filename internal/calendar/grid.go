// Package calendar builds the fixed six-week month grid shown by the UI.
package calendar

import (
	"time"

	"dailyspend/internal/core"
)

// GridSize is six weeks of seven days.
const GridSize = 42

type Cell struct {
	Date           time.Time `json:"-"`
	DateString     core.Date `json:"date"`
	Day            int       `json:"day"`
	IsCurrentMonth bool      `json:"isCurrentMonth"`
	IsToday        bool      `json:"isToday"`
}

type Grid [GridSize]Cell

// Generator produces month grids relative to its clock's current date.
type Generator struct {
	now func() time.Time
}

// NewGenerator uses now to decide which cell is today. A nil now means
// time.Now.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// MonthGrid takes a zero-based month index; out-of-range indices roll over
// into neighbouring years (12 is January of year+1).
func (g *Generator) MonthGrid(year, monthIndex int) Grid {
	return MonthGrid(year, monthIndex, core.DateOf(g.now()))
}

// Today returns the generator's current date.
func (g *Generator) Today() core.Date {
	return core.DateOf(g.now())
}

// MonthGrid starts at the Sunday on or before the first of the month and
// covers 42 consecutive days.
func MonthGrid(year, monthIndex int, today core.Date) Grid {
	first := time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var grid Grid
	for i := range grid {
		d := start.AddDate(0, 0, i)
		ds := core.DateOf(d)
		grid[i] = Cell{
			Date:           d,
			DateString:     ds,
			Day:            d.Day(),
			IsCurrentMonth: d.Month() == first.Month() && d.Year() == first.Year(),
			IsToday:        ds == today,
		}
	}
	return grid
}

// Weeks splits the grid into six Sunday-first rows.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, GridSize/7)
	for i := 0; i < GridSize; i += 7 {
		weeks = append(weeks, g[i:i+7])
	}
	return weeks
}

// Range returns the first and last date shown.
func (g Grid) Range() (core.Date, core.Date) {
	return g[0].DateString, g[GridSize-1].DateString
}
