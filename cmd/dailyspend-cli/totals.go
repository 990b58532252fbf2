package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dailyspend/internal/analytics"
	"dailyspend/internal/services"
)

func totalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show aggregated totals",
	}

	cmd.AddCommand(dailyTotalCmd(a))
	cmd.AddCommand(categoryTotalsCmd(a))
	cmd.AddCommand(weeklyTotalsCmd(a))
	cmd.AddCommand(monthlyTotalsCmd(a))
	cmd.AddCommand(monthStatsCmd(a))

	return cmd
}

func dailyTotalCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Total spent on one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				total, err := analytics.NewEngine(svc).DailyTotal(cmd.Context(), day)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), analytics.DayTotal{Date: day, Total: total})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", day, total.Format(a.currency()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	return cmd
}

func categoryTotalsCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Per-category totals for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				totals, err := analytics.NewEngine(svc).CategoryTotals(cmd.Context(), day)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), totals)
				}
				if len(totals) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No categorized expenses on %s.\n", day)
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintln(w, "CATEGORY\tTOTAL\tSHARE")
				for _, t := range totals {
					name := t.CategoryID
					if t.Category != nil {
						name = t.Category.Name
					}
					fmt.Fprintf(w, "%s\t%s\t%.0f%%\n", name, t.Total.Format(a.currency()), t.Percent)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	return cmd
}

func weeklyTotalsCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Totals for the seven days ending on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				days, err := analytics.NewEngine(svc).WeeklyTotals(cmd.Context(), day)
				if err != nil {
					return err
				}
				return a.printDays(cmd, days)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "last day of the week (YYYY-MM-DD, default today)")
	return cmd
}

func monthlyTotalsCmd(a *app) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Totals for every day of a month that has expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, m, err := a.monthFlags(year, month)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				days, err := analytics.NewEngine(svc).MonthlyTotals(cmd.Context(), y, m)
				if err != nil {
					return err
				}
				return a.printDays(cmd, days)
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func monthStatsCmd(a *app) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Month total, active days, highest day and daily average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, m, err := a.monthFlags(year, month)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				stats, err := analytics.NewEngine(svc).MonthStats(cmd.Context(), y, m)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), stats)
				}

				cur := a.currency()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintf(w, "Month\t%d-%02d\n", stats.Year, stats.Month)
				fmt.Fprintf(w, "Total\t%s\n", stats.Total.Format(cur))
				fmt.Fprintf(w, "Active days\t%d\n", stats.ActiveDays)
				if stats.Highest != nil {
					fmt.Fprintf(w, "Highest\t%s on %s\n", stats.Highest.Total.Format(cur), stats.Highest.Date)
				}
				fmt.Fprintf(w, "Average\t%s\n", stats.Average.Format(cur))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func (a *app) printDays(cmd *cobra.Command, days []analytics.DayTotal) error {
	if a.jsonOutput() {
		if days == nil {
			days = []analytics.DayTotal{}
		}
		return writeJSON(cmd.OutOrStdout(), days)
	}
	if len(days) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No expenses in this period.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "DATE\tTOTAL")
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\n", d.Date, d.Total.Format(a.currency()))
	}
	return nil
}
