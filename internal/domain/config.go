package domain

import "time"

// Config holds the complete InsuraX configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Services   ServicesConfig   `json:"services"`
	Ring       RingConfig       `json:"ring"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServicesConfig holds endpoints of the collaborating analysis services.
type ServicesConfig struct {
	ClassifierURL string `json:"classifierUrl"`
	OCRURL        string `json:"ocrUrl"`
	CNNURL        string `json:"cnnUrl"`
	FraudRingURL  string `json:"fraudRingUrl"`

	// Per-request timeout for collaborator calls, seconds.
	RequestTimeout int `json:"requestTimeout"`
}

// RingConfig governs the network snapshot coordinator.
type RingConfig struct {
	// SnapshotTTL is how long a fetched snapshot stays fresh.
	SnapshotTTL time.Duration `json:"snapshotTtl"`

	// MaxAttempts bounds retries when the ring service reports an
	// export lock conflict.
	MaxAttempts int `json:"maxAttempts"`

	// InitialBackoff is the first retry delay; each retry doubles it.
	InitialBackoff time.Duration `json:"initialBackoff"`

	// AttemptTimeout bounds a single detection call.
	AttemptTimeout time.Duration `json:"attemptTimeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./insurax.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Services: ServicesConfig{
			ClassifierURL:  "http://localhost:5001",
			OCRURL:         "http://localhost:5002",
			CNNURL:         "http://localhost:5002",
			FraudRingURL:   "http://localhost:5003",
			RequestTimeout: 15,
		},
		Ring: RingConfig{
			SnapshotTTL:    5 * time.Minute,
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			AttemptTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "insurax",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "insurax",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
