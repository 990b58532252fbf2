package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dailyspend/internal/export"
	"dailyspend/internal/services"
)

func exportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every category and expense to a file",
		Example: `  dailyspend export --format csv --output expenses.csv
  dailyspend export --format json > backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" && f == export.FormatXLSX {
				output = export.FileName(f, a.now())
			}

			return a.withService(cmd, func(svc *services.ExpenseService) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer file.Close()
					w = file
				}

				if err := export.Export(cmd.Context(), svc.Store(), w, f); err != nil {
					return err
				}
				if output != "" && output != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv, xlsx, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout; xlsx defaults to a dated file)")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store with the content of an export",
		Long: `Replace every category and expense with the content of a csv, json or
yaml export. Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer file.Close()
				r = file
			}

			snap, err := export.Decode(r, f)
			if err != nil {
				return err
			}

			return a.withService(cmd, func(svc *services.ExpenseService) error {
				if err := svc.Restore(cmd.Context(), snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories and %d expenses\n",
					len(snap.Categories), len(snap.Expenses))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", string(export.FormatJSON), "csv, json or yaml")
	return cmd
}
