package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mq "github.com/mikey/spam-evidence-engine/internal/adapters/amqp"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/di"
	"github.com/mikey/spam-evidence-engine/internal/metrics"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the dependency injection container
	container, err := di.BuildContainer(ctx)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	consumer *mq.Consumer,
	client *mq.Client,
	store core.ReputationStore,
	analyzer core.SemanticAnalyzer,
	service *core.ScoringService,
	m *metrics.Registry,
) error {
	defer logger.Sync()

	go func() {
		if err := m.Serve(ctx, cfg.GetMetrics().ListenAddress, logger); err != nil {
			logger.Error("Metrics endpoint failed", zap.Error(err))
		}
	}()

	profile := service.Profile()
	logger.Info("Spam worker started",
		zap.String("profile", profile.Name),
		zap.Float64("threshold", profile.Threshold))

	// Blocks until shutdown; the in-flight message completes first
	runErr := consumer.Run(ctx)
	if runErr != nil {
		logger.Error("Consumer loop failed", zap.Error(runErr))
	}

	logger.Info("Shutting down...")

	if err := client.Close(); err != nil {
		logger.Error("Failed to close AMQP client", zap.Error(err))
	}
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close semantic analyzer", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close reputation store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return runErr
}
