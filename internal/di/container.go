package di

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/dig"
	"go.uber.org/zap"

	mq "github.com/mikey/spam-evidence-engine/internal/adapters/amqp"
	"github.com/mikey/spam-evidence-engine/internal/adapters/httpapi"
	"github.com/mikey/spam-evidence-engine/internal/allowlist"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/evidence"
	"github.com/mikey/spam-evidence-engine/internal/factory"
	"github.com/mikey/spam-evidence-engine/internal/logging"
	"github.com/mikey/spam-evidence-engine/internal/metrics"
	"github.com/mikey/spam-evidence-engine/internal/threatintel"
	"github.com/mikey/spam-evidence-engine/internal/utils"
	"github.com/mikey/spam-evidence-engine/internal/worker"
)

// BuildContainer creates the container used by the long-running services.
// ctx is cancelled on shutdown and bounds startup retries.
func BuildContainer(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() context.Context { return ctx }); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}
	return container, nil
}

// provideCommon registers everything below configuration and logging
func provideCommon(container *dig.Container) error {
	providers := []interface{}{
		metrics.New,
		func() *validator.Validate { return validator.New() },
		evidence.NewDecoder,
		utils.NewTextProcessor,

		// Factories
		factory.NewAnalyzerFactory,
		factory.NewReputationFactory,
		factory.NewClassifierFactory,
		factory.NewScoringFactory,

		func(ctx context.Context, f *factory.AnalyzerFactory) (core.SemanticAnalyzer, error) {
			return f.CreateAnalyzer(ctx)
		},
		func(f *factory.ClassifierFactory) (core.TextClassifier, error) {
			return f.CreateClassifier()
		},
		func(ctx context.Context, f *factory.ReputationFactory) (core.ReputationStore, error) {
			return f.CreateSeededStore(ctx)
		},
		func(
			f *factory.ScoringFactory,
			store core.ReputationStore,
			analyzer core.SemanticAnalyzer,
			model core.TextClassifier,
			tp *utils.TextProcessor,
		) ([]core.SignalProvider, error) {
			return f.CreateProviders(store, analyzer, model, tp)
		},
		func(f *factory.ScoringFactory, providers []core.SignalProvider) (*core.ScoringService, error) {
			return f.CreateService(providers)
		},

		provideAMQPClient,
		provideTopology,
		func(client *mq.Client, topology mq.Topology, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
			amqpCfg, err := cfg.GetAMQP()
			if err != nil {
				return nil, err
			}
			return mq.NewPublisher(client, topology, amqpCfg.PublishTimeout, logger.Named("amqp")), nil
		},
		provideHandler,
		func(
			client *mq.Client,
			topology mq.Topology,
			handler *worker.Handler,
			cfg *config.Config,
			logger *zap.Logger,
		) (*mq.Consumer, error) {
			amqpCfg, err := cfg.GetAMQP()
			if err != nil {
				return nil, err
			}
			return mq.NewConsumer(client, topology, amqpCfg.Prefetch, handler, logger.Named("amqp")), nil
		},
		func(p *mq.Publisher, decoder *evidence.Decoder, logger *zap.Logger) *httpapi.Server {
			return httpapi.NewServer(p, decoder, logger.Named("ingest"))
		},

		provideRefresher,
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

func provideAMQPClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mq.Client, error) {
	amqpCfg, err := cfg.GetAMQP()
	if err != nil {
		return nil, err
	}
	return mq.NewClient(ctx, amqpCfg.URL, mq.ReconnectPolicy{
		InitialInterval: amqpCfg.Reconnect.InitialInterval,
		MaxInterval:     amqpCfg.Reconnect.MaxInterval,
		MaxAttempts:     amqpCfg.Reconnect.MaxAttempts,
	}, logger.Named("amqp"))
}

func provideTopology(cfg *config.Config) (mq.Topology, error) {
	amqpCfg, err := cfg.GetAMQP()
	if err != nil {
		return mq.Topology{}, err
	}
	return mq.Topology{
		Queue:      amqpCfg.Queue,
		Exchange:   amqpCfg.Exchange,
		RoutingKey: amqpCfg.RoutingKey,
	}, nil
}

func provideHandler(
	service *core.ScoringService,
	decoder *evidence.Decoder,
	m *metrics.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) (*worker.Handler, error) {
	workerCfg, err := cfg.GetWorker()
	if err != nil {
		return nil, err
	}
	return worker.NewHandler(service, decoder, workerCfg.MessageTimeout, m, logger.Named("worker")), nil
}

func provideRefresher(
	store core.ReputationStore,
	m *metrics.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) (*threatintel.Refresher, error) {
	tiCfg, err := cfg.GetThreatIntel()
	if err != nil {
		return nil, err
	}

	feeds := make([]threatintel.Feed, 0, len(tiCfg.Feeds))
	for _, f := range tiCfg.Feeds {
		feeds = append(feeds, threatintel.Feed{Name: f.Name, URL: f.URL})
	}

	return threatintel.NewRefresher(
		store,
		threatintel.NewHTTPFetcher(tiCfg.FetchTimeout, tiCfg.UserAgent),
		threatintel.NewParser(tiCfg.SkipPrefixes),
		allowlist.NewChecker(tiCfg.Allowlist, logger),
		feeds,
		tiCfg.Interval,
		tiCfg.FetchTimeout,
		m,
		logger.Named("threat_intel"),
	), nil
}
