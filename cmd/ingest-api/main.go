package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mq "github.com/mikey/spam-evidence-engine/internal/adapters/amqp"
	"github.com/mikey/spam-evidence-engine/internal/adapters/httpapi"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/di"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

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
	server *httpapi.Server,
	client *mq.Client,
) error {
	defer logger.Sync()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.GetIngest().ListenAddress)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		logger.Error("Ingestion API stopped", zap.Error(err))
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Failed to shut down ingestion API", zap.Error(shutdownErr))
	}
	if closeErr := client.Close(); closeErr != nil {
		logger.Error("Failed to close AMQP client", zap.Error(closeErr))
	}

	logger.Info("Shutdown complete")
	return err
}
