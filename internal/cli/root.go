package cli

import (
	"github.com/spf13/cobra"

	"tally/internal/config"
	"tally/internal/log"
)

// Version is set at build time.
var Version = "dev"

// env carries what the root command prepared to its subcommands.
type env struct {
	cfg    *config.Config
	logger *log.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Track personal expenses",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			LoadEnvFile()
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = SetupLogger(cfg, cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCommand(e),
		newAddCommand(e),
		newListCommand(e),
		newEditCommand(e),
		newDeleteCommand(e),
		newExportCommand(e),
	)

	return rootCmd
}

// withApp opens the store for the duration of fn.
func (e *env) withApp(cmd *cobra.Command, fn func(app *App) error) error {
	app, err := OpenApp(cmd.Context(), e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			e.logger.Warn("Failed to close backend", log.FieldError, err)
		}
	}()
	return fn(app)
}
