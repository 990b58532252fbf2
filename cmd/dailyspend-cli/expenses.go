package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dailyspend/internal/core"
	"dailyspend/internal/services"
)

func expensesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "Record and list expenses",
	}

	cmd.AddCommand(listExpensesCmd(a))
	cmd.AddCommand(addExpenseCmd(a))
	cmd.AddCommand(deleteExpenseCmd(a))

	return cmd
}

func listExpensesCmd(a *app) *cobra.Command {
	var date, start, end string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses for a day, a range or the whole store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (start == "") != (end == "") {
				return errors.New("--start and --end must be given together")
			}
			if date != "" && start != "" {
				return errors.New("--date cannot be combined with --start/--end")
			}

			return a.withService(cmd, func(svc *services.ExpenseService) error {
				ctx := cmd.Context()
				var (
					items []core.ExpenseWithCategory
					err   error
				)
				switch {
				case date != "":
					items, err = svc.ListExpensesByDate(ctx, date)
				case start != "":
					items, err = svc.ListExpensesByDateRange(ctx, start, end)
				default:
					items, err = allExpenses(cmd, svc)
				}
				if err != nil {
					return err
				}

				if a.jsonOutput() {
					if items == nil {
						items = []core.ExpenseWithCategory{}
					}
					return writeJSON(cmd.OutOrStdout(), items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No expenses found.")
					return nil
				}

				cur := a.currency()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintln(w, "ID\tDATE\tNAME\tAMOUNT\tCATEGORY")
				for _, e := range items {
					category := "-"
					if e.Category != nil {
						category = e.Category.Name
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Name, displayAmount(e.Amount, cur), category)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day of the range (YYYY-MM-DD)")
	return cmd
}

func allExpenses(cmd *cobra.Command, svc *services.ExpenseService) ([]core.ExpenseWithCategory, error) {
	cats, err := svc.ListCategories(cmd.Context())
	if err != nil {
		return nil, err
	}
	exps, err := svc.ListExpenses(cmd.Context())
	if err != nil {
		return nil, err
	}
	return core.Enrich(exps, cats), nil
}

func addExpenseCmd(a *app) *cobra.Command {
	var name, amount, date, category, details string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Example: `  dailyspend expenses add --name Lunch --amount 12.50
  dailyspend expenses add --name Bus --amount 2 --date 2024-01-15 --category <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.dateFlag(date)
			if err != nil {
				return err
			}

			return a.withService(cmd, func(svc *services.ExpenseService) error {
				e, err := svc.CreateExpense(cmd.Context(), core.ExpenseInput{
					Name:       name,
					Amount:     amount,
					Details:    details,
					CategoryID: category,
					Date:       day,
				})
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), e)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (%s)\n",
					e.Name, displayAmount(e.Amount, a.currency()), e.Date, e.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "what the money was spent on")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&date, "date", "", "day of the expense (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&details, "details", "", "free-form notes")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func deleteExpenseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				if err := svc.DeleteExpense(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %s\n", args[0])
				return nil
			})
		},
	}
}

// displayAmount formats a stored amount; unparseable values print as-is.
func displayAmount(amount string, cur core.Currency) string {
	m, err := core.MoneyFromString(amount)
	if err != nil {
		return amount
	}
	return m.Format(cur)
}
