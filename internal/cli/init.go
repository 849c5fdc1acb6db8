// Package cli wires configuration, logging and storage into the tally
// commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/expense"
	"tally/internal/form"
	"tally/internal/listing"
	"tally/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and makes it the default.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Output = w
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a loaded expense store with the collaborators every command
// shares.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Store  *expense.Store
	Forms  *form.Controller
	Lister listing.Renderer

	backend *backend.BackendResult
}

// OpenApp creates the configured backend and loads the store from it.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	opts := []expense.Option{expense.WithKey(cfg.StorageKey), expense.WithLogger(logger)}
	if res.Notifier != nil {
		opts = append(opts, expense.WithNotifier(res.Notifier))
	}
	store := expense.NewStore(res.Storage, opts...)
	store.Load(ctx)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Forms:   form.NewController(store, logger),
		Lister:  listing.NewRenderer(cfg.CurrencySymbol),
		backend: res,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.backend.Close()
}
