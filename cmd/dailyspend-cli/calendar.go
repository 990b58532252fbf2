package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dailyspend/internal/calendar"
)

func calendarCmd(a *app) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the six-week grid for a month",
		Long: `Print the six-week grid for a month, Sunday first. Days outside the
month are shown in parentheses and today is marked with an asterisk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, m, err := a.monthFlags(year, month)
			if err != nil {
				return err
			}
			grid := calendar.NewGenerator(a.now).MonthGrid(y, int(m)-1)
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), grid)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderGrid(grid, fmt.Sprintf("%s %d", m, y)))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func renderGrid(grid calendar.Grid, title string) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(" Sun  Mon  Tue  Wed  Thu  Fri  Sat\n")
	for _, week := range grid.Weeks() {
		for i, c := range week {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cellLabel(c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// cellLabel renders one cell in four columns.
func cellLabel(c calendar.Cell) string {
	switch {
	case !c.IsCurrentMonth:
		return fmt.Sprintf("(%2d)", c.Day)
	case c.IsToday:
		return fmt.Sprintf(" %2d*", c.Day)
	default:
		return fmt.Sprintf(" %2d ", c.Day)
	}
}
