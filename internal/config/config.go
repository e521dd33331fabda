// Package config loads the matching service's configuration from the
// environment, with an optional checked-in YAML file applied first for
// operators who prefer it, grounded on
// exchange-matching/internal/config/config.go (env defaults) and
// chycee-cryptoGo's YAML-then-env-override layering.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs the matching service and its cmd/matching
// demo read at startup.
type Config struct {
	ServiceName string `yaml:"service_name"`
	Symbol      string `yaml:"symbol"`
	TickSize    int64  `yaml:"tick_size"`
	PriceScale  int    `yaml:"price_scale"`

	MetricsPort int `yaml:"metrics_port"`

	TracingEnabled    bool    `yaml:"tracing_enabled"`
	TracingEndpoint   string  `yaml:"tracing_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate"`

	PostgresDSN string `yaml:"postgres_dsn"`

	RedisAddr         string `yaml:"redis_addr"`
	RedisPassword     string `yaml:"redis_password"`
	RedisDB           int    `yaml:"redis_db"`
	TradeStream       string `yaml:"trade_stream"`
	OrderUpdateStream string `yaml:"order_update_stream"`
	ConsumerGroup     string `yaml:"consumer_group"`
	ConsumerName      string `yaml:"consumer_name"`

	WorkerID int64 `yaml:"worker_id"`

	CommandQueueSize int `yaml:"command_queue_size"`
	EventQueueSize   int `yaml:"event_queue_size"`
}

// Load builds a Config from environment variables with built-in defaults.
func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "matching"),
		Symbol:      getEnv("SYMBOL", "BTC-USD"),
		TickSize:    int64(getEnvInt("TICK_SIZE", 1)),
		PriceScale:  getEnvInt("PRICE_SCALE", 2),

		MetricsPort: getEnvInt("METRICS_PORT", 9090),

		TracingEnabled:    getEnvBool("TRACING_ENABLED", false),
		TracingEndpoint:   getEnv("TRACING_ENDPOINT", "http://localhost:14268/api/traces"),
		TracingSampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 0.1),

		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/matching?sslmode=disable"),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		TradeStream:       getEnv("TRADE_STREAM", "matching:trades"),
		OrderUpdateStream: getEnv("ORDER_UPDATE_STREAM", "matching:order-updates"),
		ConsumerGroup:     getEnv("CONSUMER_GROUP", "matching-group"),
		ConsumerName:      getEnv("CONSUMER_NAME", "matching-1"),

		WorkerID: int64(getEnvInt("WORKER_ID", 1)),

		CommandQueueSize: getEnvInt("COMMAND_QUEUE_SIZE", 1024),
		EventQueueSize:   getEnvInt("EVENT_QUEUE_SIZE", 1024),
	}
}

// LoadYAML reads path and merges its fields onto a fresh Config, then
// re-applies the environment overrides listed on overrideWithEnv on top, so
// for those variables an operator-set env var wins over the checked-in file.
// Missing fields in the file keep their env/default values.
func LoadYAML(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)
	return cfg, nil
}

// overrideWithEnv re-applies SERVICE_NAME, SYMBOL, POSTGRES_DSN, REDIS_ADDR,
// REDIS_PASSWORD, TICK_SIZE, METRICS_PORT, WORKER_ID, PRICE_SCALE and the
// TRACING_* variables when they are set. REDIS_DB, TRADE_STREAM,
// ORDER_UPDATE_STREAM, CONSUMER_GROUP, CONSUMER_NAME and the queue sizes are
// not re-applied, so a YAML value for one of those wins over the env var.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if i, ok := getEnvIntOK("TICK_SIZE"); ok {
		cfg.TickSize = int64(i)
	}
	if i, ok := getEnvIntOK("METRICS_PORT"); ok {
		cfg.MetricsPort = i
	}
	if i, ok := getEnvIntOK("WORKER_ID"); ok {
		cfg.WorkerID = int64(i)
	}
	if i, ok := getEnvIntOK("PRICE_SCALE"); ok {
		cfg.PriceScale = i
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		cfg.TracingEnabled = getEnvBool("TRACING_ENABLED", cfg.TracingEnabled)
	}
	if v := os.Getenv("TRACING_ENDPOINT"); v != "" {
		cfg.TracingEndpoint = v
	}
	if f, ok := getEnvFloatOK("TRACING_SAMPLE_RATE"); ok {
		cfg.TracingSampleRate = f
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if i, ok := getEnvIntOK(key); ok {
		return i
	}
	return defaultValue
}

func getEnvIntOK(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, ok := getEnvFloatOK(key); ok {
		return f
	}
	return defaultValue
}

func getEnvFloatOK(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
