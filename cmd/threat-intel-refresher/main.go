package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/di"
	"github.com/mikey/spam-evidence-engine/internal/metrics"
	"github.com/mikey/spam-evidence-engine/internal/threatintel"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.BuildContainer(ctx)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	refresher *threatintel.Refresher,
	store core.ReputationStore,
	m *metrics.Registry,
) error {
	defer logger.Sync()

	go func() {
		if err := m.Serve(ctx, cfg.GetMetrics().ListenAddress, logger); err != nil {
			logger.Error("Metrics endpoint failed", zap.Error(err))
		}
	}()

	err := refresher.Run(ctx)

	if closeErr := store.Close(); closeErr != nil {
		logger.Error("Failed to close reputation store", zap.Error(closeErr))
	}
	logger.Info("Shutdown complete")
	return err
}
