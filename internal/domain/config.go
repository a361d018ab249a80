package domain

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the complete CyberTriage configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// RulesDir overrides the embedded rule tables when set.
	RulesDir string `json:"rulesDir"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// AutoPipeline runs triage and routing for every new intake.
	AutoPipeline bool `json:"autoPipeline"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
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
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns a stateless single-process configuration:
// in-memory case store and channel event bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "memory",
			SQLitePath: "./data/cases.db",
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
			NATSQueueGroup:    "cybertriage-pipeline",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "cybertriage",
		},
	}
}

// LoadFromEnv applies CYBERTRIAGE_* environment overrides to the defaults.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CYBERTRIAGE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := envInt("CYBERTRIAGE_PORT"); v > 0 {
		cfg.Server.Port = v
	}
	cfg.RulesDir = os.Getenv("CYBERTRIAGE_RULES_DIR")

	if v := os.Getenv("CYBERTRIAGE_PERSIST_MODE"); v != "" {
		cfg.Repository.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("CYBERTRIAGE_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("CYBERTRIAGE_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := envInt("CYBERTRIAGE_POSTGRES_PORT"); v > 0 {
		cfg.Repository.PostgresPort = v
	}
	cfg.Repository.PostgresUser = os.Getenv("CYBERTRIAGE_POSTGRES_USER")
	cfg.Repository.PostgresPassword = os.Getenv("CYBERTRIAGE_POSTGRES_PASSWORD")
	if v := os.Getenv("CYBERTRIAGE_POSTGRES_DB"); v != "" {
		cfg.Repository.PostgresDB = v
	}
	cfg.Repository.PostgresSSLMode = os.Getenv("CYBERTRIAGE_POSTGRES_SSLMODE")
	if v := os.Getenv("CYBERTRIAGE_REDIS_ADDR"); v != "" {
		cfg.Repository.RedisAddr = v
	}
	cfg.Repository.RedisPassword = os.Getenv("CYBERTRIAGE_REDIS_PASSWORD")
	cfg.Repository.RedisDB = envInt("CYBERTRIAGE_REDIS_DB")

	if v := os.Getenv("CYBERTRIAGE_BUS"); v != "" {
		cfg.EventBus.Type = strings.ToLower(v)
	}
	if v := os.Getenv("CYBERTRIAGE_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	cfg.EventBus.NATSToken = os.Getenv("CYBERTRIAGE_NATS_TOKEN")
	cfg.EventBus.NATSSubjectPrefix = os.Getenv("CYBERTRIAGE_NATS_PREFIX")
	if v, ok := os.LookupEnv("CYBERTRIAGE_NATS_QUEUE"); ok {
		cfg.EventBus.NATSQueueGroup = v
	}

	cfg.AutoPipeline = os.Getenv("CYBERTRIAGE_AUTO_PIPELINE") == "true"

	if os.Getenv("CYBERTRIAGE_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
	if v := os.Getenv("CYBERTRIAGE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	cfg.Tracing.Enabled = os.Getenv("CYBERTRIAGE_TRACING") == "true"

	return cfg
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
