package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig represents the Redis connection settings
type RedisConfig struct {
	URL string
}

// ReputationConfig represents the reputation store configuration
type ReputationConfig struct {
	Backend      string
	Key          string
	SeedDomains  []string
	QueryTimeout time.Duration
	SQLitePath   string
	MySQLDSN     string
	PostgresDSN  string
}

// ReconnectConfig bounds the AMQP reconnect backoff
type ReconnectConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

// AMQPConfig represents the message queue configuration
type AMQPConfig struct {
	URL            string
	Queue          string
	Exchange       string
	RoutingKey     string
	Prefetch       int
	PublishTimeout time.Duration
	Reconnect      ReconnectConfig
}

// WorkerConfig represents the consumer loop configuration
type WorkerConfig struct {
	MessageTimeout time.Duration
	MaxConcurrency int
}

// ScoringConfig represents the active weight profile
type ScoringConfig struct {
	Profile   string
	Threshold float64
	Weights   map[string]float64
}

// SemanticConfig represents the semantic analyzer selection
type SemanticConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ClassifierConfig represents the statistical classifier configuration
type ClassifierConfig struct {
	TrainingFile string
	Smoothing    float64
}

// FeedConfig is a single threat feed
type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// ThreatIntelConfig represents the refresher configuration
type ThreatIntelConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	UserAgent    string
	Feeds        []FeedConfig
	SkipPrefixes []string
	Allowlist    []string
}

// IngestConfig represents the ingestion API configuration
type IngestConfig struct {
	ListenAddress string
}

// MetricsConfig represents the metrics endpoint configuration
type MetricsConfig struct {
	ListenAddress string
}

// GetRedis returns the Redis configuration
func (c *Config) GetRedis() RedisConfig {
	return RedisConfig{
		URL: c.GetString("redis.url"),
	}
}

// GetReputation returns the reputation store configuration
func (c *Config) GetReputation() (ReputationConfig, error) {
	timeout, err := c.GetDuration("reputation.query_timeout")
	if err != nil {
		return ReputationConfig{}, err
	}

	return ReputationConfig{
		Backend:      c.GetString("reputation.backend"),
		Key:          c.GetString("reputation.key"),
		SeedDomains:  c.GetStringSlice("reputation.seed_domains"),
		QueryTimeout: timeout,
		SQLitePath:   c.GetString("reputation.sqlite_path"),
		MySQLDSN:     c.GetString("reputation.mysql_dsn"),
		PostgresDSN:  c.GetString("reputation.postgres_dsn"),
	}, nil
}

// GetAMQP returns the message queue configuration
func (c *Config) GetAMQP() (AMQPConfig, error) {
	publishTimeout, err := c.GetDuration("amqp.publish_timeout")
	if err != nil {
		return AMQPConfig{}, err
	}
	initial, err := c.GetDuration("amqp.reconnect.initial_interval")
	if err != nil {
		return AMQPConfig{}, err
	}
	maxInterval, err := c.GetDuration("amqp.reconnect.max_interval")
	if err != nil {
		return AMQPConfig{}, err
	}

	routingKey := c.GetString("amqp.routing_key")
	if routingKey == "" {
		routingKey = c.GetString("amqp.queue")
	}

	return AMQPConfig{
		URL:            c.GetString("amqp.url"),
		Queue:          c.GetString("amqp.queue"),
		Exchange:       c.GetString("amqp.exchange"),
		RoutingKey:     routingKey,
		Prefetch:       c.GetInt("amqp.prefetch"),
		PublishTimeout: publishTimeout,
		Reconnect: ReconnectConfig{
			InitialInterval: initial,
			MaxInterval:     maxInterval,
			MaxAttempts:     c.GetInt("amqp.reconnect.max_attempts"),
		},
	}, nil
}

// GetWorker returns the consumer loop configuration
func (c *Config) GetWorker() (WorkerConfig, error) {
	timeout, err := c.GetDuration("worker.message_timeout")
	if err != nil {
		return WorkerConfig{}, err
	}
	return WorkerConfig{
		MessageTimeout: timeout,
		MaxConcurrency: c.GetInt("worker.max_concurrency"),
	}, nil
}

// GetScoring returns the active weight profile. Every key under
// scoring.profiles.<profile> is read as a signal weight.
func (c *Config) GetScoring() (ScoringConfig, error) {
	profile := strings.ToLower(c.GetString("scoring.profile"))
	prefix := "scoring.profiles." + profile
	if !c.IsSet(prefix) {
		return ScoringConfig{}, fmt.Errorf("scoring profile %q is not configured", profile)
	}

	weights := make(map[string]float64)
	for name := range c.v.GetStringMap(prefix) {
		weights[strings.ToLower(name)] = c.GetFloat64(prefix + "." + name)
	}

	return ScoringConfig{
		Profile:   profile,
		Threshold: c.GetFloat64("scoring.threshold"),
		Weights:   weights,
	}, nil
}

// GetSemantic returns the semantic analyzer selection
func (c *Config) GetSemantic() (SemanticConfig, error) {
	timeout, err := c.GetDuration("semantic.timeout")
	if err != nil {
		return SemanticConfig{}, err
	}
	return SemanticConfig{
		Provider:    strings.ToLower(c.GetString("semantic.provider")),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("semantic.max_body_size"),
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		TrainingFile: c.GetString("classifier.training_file"),
		Smoothing:    c.GetFloat64("classifier.smoothing"),
	}
}

// GetThreatIntel returns the refresher configuration
func (c *Config) GetThreatIntel() (ThreatIntelConfig, error) {
	interval, err := c.GetDuration("threat_intel.interval")
	if err != nil {
		return ThreatIntelConfig{}, err
	}
	fetchTimeout, err := c.GetDuration("threat_intel.fetch_timeout")
	if err != nil {
		return ThreatIntelConfig{}, err
	}
	if interval <= 0 {
		return ThreatIntelConfig{}, fmt.Errorf("threat_intel.interval must be positive, got %s", interval)
	}
	if fetchTimeout <= 0 {
		return ThreatIntelConfig{}, fmt.Errorf("threat_intel.fetch_timeout must be positive, got %s", fetchTimeout)
	}

	var feeds []FeedConfig
	if err := c.v.UnmarshalKey("threat_intel.feeds", &feeds); err != nil {
		return ThreatIntelConfig{}, fmt.Errorf("invalid threat_intel.feeds: %w", err)
	}

	return ThreatIntelConfig{
		Interval:     interval,
		FetchTimeout: fetchTimeout,
		UserAgent:    c.GetString("threat_intel.user_agent"),
		Feeds:        feeds,
		SkipPrefixes: c.GetStringSlice("threat_intel.skip_prefixes"),
		Allowlist:    c.GetStringSlice("threat_intel.allowlist"),
	}, nil
}

// GetIngest returns the ingestion API configuration
func (c *Config) GetIngest() IngestConfig {
	return IngestConfig{
		ListenAddress: c.GetString("ingest.listen_address"),
	}
}

// GetMetrics returns the metrics endpoint configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		ListenAddress: c.GetString("metrics.listen_address"),
	}
}
