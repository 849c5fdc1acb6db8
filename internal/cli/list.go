package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/core"
	"tally/internal/expense"
	"tally/internal/listing"
)

type viewFlags struct {
	start, end, sort string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "earliest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "latest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "order by date: asc or desc")
}

func (f *viewFlags) apply(items []core.Expense) ([]core.Expense, error) {
	v, err := expense.ParseView(f.start, f.end, f.sort)
	if err != nil {
		return nil, err
	}
	return v.Apply(items), nil
}

func newListCommand(e *env) *cobra.Command {
	var vf viewFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show expenses, their total and the per-category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd, func(app *App) error {
				items, err := vf.apply(app.Store.All())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := listing.WriteText(out, app.Lister.Render(items)); err != nil {
					return err
				}
				return writeCategories(out, items, app.Lister.Currency)
			})
		},
	}
	vf.register(cmd)

	return cmd
}

func writeCategories(w io.Writer, items []core.Expense, currency string) error {
	groups := core.ByCategory(items)
	if len(groups) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCATEGORY\tAMOUNT")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, g.Amount.Format(currency))
	}
	return tw.Flush()
}

func newExportCommand(e *env) *cobra.Command {
	var (
		vf     viewFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write expenses as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd, func(app *App) error {
				items, err := vf.apply(app.Store.All())
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					return listing.WriteCSV(cmd.OutOrStdout(), items)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := listing.WriteCSV(f, items); err != nil {
					f.Close()
					return fmt.Errorf("write %s: %w", output, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d expenses to %s\n", len(items), output)
				return nil
			})
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
