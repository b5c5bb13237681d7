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
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/budget"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits up to 30s for
active requests, stops the scheduler and closes the database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "HTTP server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if flagPort != 0 {
		a.cfg.Server.Port = flagPort
	}
	log := a.log

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := seedCurrency(ctx, a.store, a.cfg.Currency.Default); err != nil {
		return err
	}

	scheduler := api.NewPeriodScheduler(a.handler)
	scheduler.Enabled = a.cfg.Scheduler.Enabled
	scheduler.CheckInterval = a.cfg.Scheduler.Interval.Duration
	if !scheduler.Enabled {
		// Allocations still need to match the current period at startup.
		if _, err := a.handler.Recompute(ctx); err != nil {
			return fmt.Errorf("initial recompute: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()
	if next := scheduler.NextRunTime(); !next.IsZero() {
		log.Info().Time("next_check", next).Msg("next pay period check scheduled")
	}

	router := api.NewRouter(a.handler, api.RouterOptions{AllowedOrigins: a.cfg.Server.AllowedOrigins})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  a.cfg.Server.IdleTimeout.Duration,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", a.cfg.Server.Port).
			Str("db", a.cfg.Store.Path).
			Msgf("server starting on http://localhost:%d/api", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// seedCurrency stores the configured default while the user has not
// picked a currency.
func seedCurrency(ctx context.Context, store budget.SettingsStore, code string) error {
	current, err := store.GetCurrency(ctx)
	if err != nil {
		return err
	}
	if current != budget.DefaultCurrency || code == "" || code == budget.DefaultCurrency {
		return nil
	}
	return store.SaveCurrency(ctx, code)
}
