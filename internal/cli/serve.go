package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tally/internal/chart"
	"tally/internal/chart/chartjs"
	apphttp "tally/internal/http"
	"tally/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return e.withApp(cmd, func(app *App) error {
				srv := apphttp.NewServer(":"+app.Config.Port, apphttp.Deps{
					Store:              app.Store,
					Forms:              app.Forms,
					Lister:             app.Lister,
					Charts:             chart.NewRenderer(chartjs.NewDrawer()),
					Logger:             app.Logger,
					RateLimitPerMinute: app.Config.RateLimitPerMinute,
				})

				srv.ReadTimeout = 10 * time.Second
				srv.WriteTimeout = 10 * time.Second
				srv.IdleTimeout = 60 * time.Second
				srv.MaxHeaderBytes = 1 << 16

				app.Logger.Info("Starting tally server",
					"port", app.Config.Port,
					log.FieldBackend, app.Config.DataBackend,
					log.FieldCount, app.Store.Len())
				return runServer(ctx, srv, app.Logger, shutdownTimeout)
			})
		},
	}
}

// runServer serves until ctx is done, then shuts srv down within timeout.
func runServer(ctx context.Context, srv *apphttp.Server, logger *log.Logger, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}
