package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/form"
)

func newAddCommand(e *env) *cobra.Command {
	var st form.State

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd, func(app *App) error {
				if _, err := app.Forms.Submit(cmd.Context(), st); err != nil {
					return err
				}
				all := app.Store.All()
				added := all[len(all)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s %s [%s] on %s\n",
					added.ID, added.Name, added.Amount.Format(app.Lister.Currency), added.Category, added.Date)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&st.Name, "name", "", "expense name (required)")
	cmd.Flags().StringVar(&st.Amount, "amount", "", "amount, e.g. 3.50 (required)")
	cmd.Flags().StringVar(&st.Category, "category", "", "category (required)")
	cmd.Flags().StringVar(&st.Date, "date", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func newEditCommand(e *env) *cobra.Command {
	var override form.State

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an existing expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := form.ParseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(cmd, func(app *App) error {
				st, err := app.Forms.StartEdit(id)
				if err != nil {
					return fmt.Errorf("edit expense %d: %w", id, err)
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					st.Name = override.Name
				}
				if flags.Changed("amount") {
					st.Amount = override.Amount
				}
				if flags.Changed("category") {
					st.Category = override.Category
				}
				if flags.Changed("date") {
					st.Date = override.Date
				}
				if _, err := app.Forms.Submit(cmd.Context(), st); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&override.Name, "name", "", "new name")
	cmd.Flags().StringVar(&override.Amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&override.Category, "category", "", "new category")
	cmd.Flags().StringVar(&override.Date, "date", "", "new date as YYYY-MM-DD")

	return cmd
}

func newDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := form.ParseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(cmd, func(app *App) error {
				removed, err := app.Store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "No expense with id %d\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %d\n", id)
				return nil
			})
		},
	}
}
