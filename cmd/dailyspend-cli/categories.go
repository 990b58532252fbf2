package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dailyspend/internal/core"
	"dailyspend/internal/services"
)

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
	}

	cmd.AddCommand(listCategoriesCmd(a))
	cmd.AddCommand(addCategoryCmd(a))
	cmd.AddCommand(deleteCategoryCmd(a))

	return cmd
}

func listCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				categories, err := svc.ListCategories(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get categories: %w", err)
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), categories)
				}
				if len(categories) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No categories found. Use 'dailyspend categories add' to create one.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintln(w, "ID\tNAME\tCOLOR")
				for _, c := range categories {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
				}
				return nil
			})
		},
	}
}

func addCategoryCmd(a *app) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				c, err := svc.CreateCategory(cmd.Context(), core.CategoryInput{Name: args[0], Color: color})
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), c)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category %q (%s)\n", c.Name, c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "#6B7280", "display color")
	return cmd
}

func deleteCategoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Its expenses are kept and become uncategorized.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(svc *services.ExpenseService) error {
				if err := svc.DeleteCategory(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
				return nil
			})
		},
	}
}
