package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/logging"
)

// CLIFlags contains the global flags of the operator CLI
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Overrides applied on top of the loaded configuration when non-empty
	Provider string
	Backend  string
	Profile  string
}

// BuildCLIContainer creates a container for the operator CLI
func BuildCLIContainer(ctx context.Context, flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() context.Context { return ctx }); err != nil {
		return nil, err
	}

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return loadCLIConfig(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}
	return container, nil
}

func loadCLIConfig(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	v := cfg.GetViper()
	if flags.Provider != "" {
		v.Set("semantic.provider", flags.Provider)
	}
	if flags.Backend != "" {
		v.Set("reputation.backend", flags.Backend)
	}
	if flags.Profile != "" {
		v.Set("scoring.profile", flags.Profile)
	}
	return cfg, nil
}
