package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/api"
	"github.com/ramonehamilton/deck-analyst/internal/config"
	"github.com/ramonehamilton/deck-analyst/internal/storage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		deps := api.Deps{
			Inferrer: a.engine,
			Cards:    a.resolver,
			Gatherer: a.registry,
		}
		if a.service != nil {
			deps.Analyzer = a.service
		}

		server := api.NewServer(&api.Config{Port: port}, deps, a.logger)
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		fmt.Printf("API server running at http://localhost:%d\n", port)

		if pruner := newPruner(a); pruner != nil {
			if err := pruner.Start(); err != nil {
				a.logger.Warn("card prune scheduler not started", zap.Error(err))
			} else {
				defer func() { _ = pruner.Stop() }()
			}
		}

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

// newPruner returns a scheduler that deletes expired cached cards, or nil when
// pruning is disabled.
func newPruner(a *app) *storage.PruneScheduler {
	interval := config.Duration(a.cfg.Storage.PruneInterval)
	if interval <= 0 {
		return nil
	}
	age := config.Duration(a.cfg.Storage.CardTTL)
	return storage.NewPruneScheduler(
		func(ctx context.Context) (int64, error) { return a.resolver.Prune(ctx, age) },
		&storage.SchedulerConfig{
			Interval: interval,
			Timeout:  time.Minute,
			OnComplete: func(n int64, err error) {
				if err != nil {
					a.logger.Warn("card prune failed", zap.Error(err))
					return
				}
				a.logger.Debug("pruned cached cards", zap.Int64("rows", n))
			},
		},
	)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "API server port (overrides config)")
}
