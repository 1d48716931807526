package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	LLM      *llmConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"extraction.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string        `envconfig:"EXTRACTION_PLANNER_ADDRESS" default:":8080"`
	MetricsAddress string        `envconfig:"EXTRACTION_PLANNER_METRICS_ADDRESS" default:":8090"`
	LogLevel       string        `envconfig:"EXTRACTION_PLANNER_LOG_LEVEL" default:"info"`
	AuthToken      string        `envconfig:"EXTRACTION_PLANNER_AUTH_TOKEN" default:""`
	Workers        int           `envconfig:"EXTRACTION_PLANNER_WORKERS" default:"4"`
	QueueDepth     int           `envconfig:"EXTRACTION_PLANNER_QUEUE_DEPTH" default:"64"`
	TaskTTL        time.Duration `envconfig:"EXTRACTION_PLANNER_TASK_TTL" default:"24h"`
}

type llmConfig struct {
	Model       string  `envconfig:"EXTRACTION_PLANNER_LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string  `envconfig:"EXTRACTION_PLANNER_LLM_API_KEY" default:""`
	BaseURL     string  `envconfig:"EXTRACTION_PLANNER_LLM_BASE_URL" default:""`
	Temperature float64 `envconfig:"EXTRACTION_PLANNER_LLM_TEMPERATURE" default:"0.0"`
	MaxTokens   int     `envconfig:"EXTRACTION_PLANNER_LLM_MAX_TOKENS" default:"2000"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewDefault returns the configuration with every field at its default,
// ignoring the environment. Used by tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{Type: "sqlite", Name: ":memory:"},
		Service:  &svcConfig{Address: ":8080", MetricsAddress: ":8090", LogLevel: "info", Workers: 4, QueueDepth: 64, TaskTTL: 24 * time.Hour},
		LLM:      &llmConfig{Model: "gpt-4o-mini", Temperature: 0.0, MaxTokens: 2000},
	}
}
