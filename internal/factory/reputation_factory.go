package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/spam-evidence-engine/internal/adapters/reputation"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"go.uber.org/zap"
)

// ReputationFactory creates reputation stores based on configuration
type ReputationFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReputationFactory creates a new reputation factory
func NewReputationFactory(cfg *config.Config, logger *zap.Logger) *ReputationFactory {
	return &ReputationFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the configured backend. Seeding is left to the caller.
func (f *ReputationFactory) CreateStore(ctx context.Context) (core.ReputationStore, error) {
	repCfg, err := f.cfg.GetReputation()
	if err != nil {
		return nil, err
	}

	switch repCfg.Backend {
	case "redis":
		return reputation.NewRedisStore(ctx, f.cfg.GetRedis().URL, repCfg.Key, f.logger)
	case "memory":
		return reputation.NewMemoryStore(f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(repCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return reputation.NewSQLStore(ctx, reputation.SQLite, repCfg.SQLitePath, repCfg.Key, f.logger)
	case "mysql":
		return reputation.NewSQLStore(ctx, reputation.MySQL, repCfg.MySQLDSN, repCfg.Key, f.logger)
	case "postgres":
		return reputation.NewSQLStore(ctx, reputation.Postgres, repCfg.PostgresDSN, repCfg.Key, f.logger)
	default:
		return nil, fmt.Errorf("unsupported reputation backend: %s", repCfg.Backend)
	}
}

// CreateSeededStore opens the backend and seeds it when empty
func (f *ReputationFactory) CreateSeededStore(ctx context.Context) (core.ReputationStore, error) {
	store, err := f.CreateStore(ctx)
	if err != nil {
		return nil, err
	}

	repCfg, err := f.cfg.GetReputation()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := store.Seed(ctx, repCfg.SeedDomains); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed reputation store: %w", err)
	}
	return store, nil
}
