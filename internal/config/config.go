package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Store    StoreConfig    `yaml:"store"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Offers   OffersConfig   `yaml:"offers"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// DynamoDBConfig holds DynamoDB configuration.
type DynamoDBConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // e.g. http://localhost:8000 for dynamodb-local
	TablePrefix     string `yaml:"table_prefix"`
	EnableTTL       bool   `yaml:"enable_ttl"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// PostgresConfig holds the connection settings for the JSONB document backend.
type PostgresConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	SSLMode         string `yaml:"sslmode"`
	MaxConnections  int    `yaml:"max_connections"`
	MinConnections  int    `yaml:"min_connections"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime"`  // seconds
	MaxConnIdleTime int    `yaml:"max_conn_idle_time"` // seconds
}

// RedisConfig holds the partition index cache configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl_seconds"`
}

// KafkaConfig holds order event publishing configuration.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// OffersConfig holds offer housekeeping configuration.
type OffersConfig struct {
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Backend: BackendDynamoDB,
		},
		DynamoDB: DynamoDBConfig{
			Region:    "us-east-1",
			EnableTTL: true,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "ancillary",
			SSLMode:         "disable",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
			MaxConnIdleTime: 1800,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  86400,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "ancillary.orders",
		},
		Offers: OffersConfig{
			SweepIntervalSeconds: 60,
		},
	}
}

// Load builds the configuration from the defaults, an optional YAML file named
// by CONFIG_FILE and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)

	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnv("LOG_FORMAT", c.Logger.Format)

	c.Auth.APIKey = getEnv("API_KEY", c.Auth.APIKey)

	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.AutoMigrate = getEnvAsBool("STORE_AUTO_MIGRATE", c.Store.AutoMigrate)

	c.DynamoDB.Region = getEnv("DYNAMODB_REGION", c.DynamoDB.Region)
	c.DynamoDB.Endpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDB.Endpoint)
	c.DynamoDB.TablePrefix = getEnv("DYNAMODB_TABLE_PREFIX", c.DynamoDB.TablePrefix)
	c.DynamoDB.EnableTTL = getEnvAsBool("DYNAMODB_ENABLE_TTL", c.DynamoDB.EnableTTL)
	c.DynamoDB.AccessKeyID = getEnv("DYNAMODB_ACCESS_KEY_ID", c.DynamoDB.AccessKeyID)
	c.DynamoDB.SecretAccessKey = getEnv("DYNAMODB_SECRET_ACCESS_KEY", c.DynamoDB.SecretAccessKey)

	c.Postgres.Host = getEnv("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = getEnvAsInt("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = getEnv("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.Name = getEnv("POSTGRES_DB", c.Postgres.Name)
	c.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", c.Postgres.SSLMode)
	c.Postgres.MaxConnections = getEnvAsInt("POSTGRES_MAX_CONNECTIONS", c.Postgres.MaxConnections)
	c.Postgres.MinConnections = getEnvAsInt("POSTGRES_MIN_CONNECTIONS", c.Postgres.MinConnections)
	c.Postgres.MaxConnLifetime = getEnvAsInt("POSTGRES_MAX_CONN_LIFETIME", c.Postgres.MaxConnLifetime)
	c.Postgres.MaxConnIdleTime = getEnvAsInt("POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.MaxConnIdleTime)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.TTL = getEnvAsInt("REDIS_TTL_SECONDS", c.Redis.TTL)

	c.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Offers.SweepIntervalSeconds = getEnvAsInt("OFFER_SWEEP_INTERVAL_SECONDS", c.Offers.SweepIntervalSeconds)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	switch c.Store.Backend {
	case BackendDynamoDB:
		if c.DynamoDB.Region == "" {
			return fmt.Errorf("dynamodb region is required")
		}
		if (c.DynamoDB.AccessKeyID == "") != (c.DynamoDB.SecretAccessKey == "") {
			return fmt.Errorf("dynamodb access key id and secret must be set together")
		}
	case BackendPostgres:
		if err := c.Postgres.validate(); err != nil {
			return err
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store backend: %s (must be dynamodb, postgres, or memory)", c.Store.Backend)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if c.Redis.TTL < 0 {
			return fmt.Errorf("redis ttl must not be negative")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.Offers.SweepIntervalSeconds < 1 {
		return fmt.Errorf("offer sweep interval must be at least 1 second")
	}

	return nil
}

func (c *PostgresConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("postgres host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("postgres user is required")
	}

	if c.Name == "" {
		return fmt.Errorf("postgres database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("postgres max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("postgres min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("postgres min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}

// ConnLifetime returns MaxConnLifetime as a duration.
func (c *PostgresConfig) ConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetime) * time.Second
}

// ConnIdleTime returns MaxConnIdleTime as a duration.
func (c *PostgresConfig) ConnIdleTime() time.Duration {
	return time.Duration(c.MaxConnIdleTime) * time.Second
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SweepInterval returns the offer sweep interval as a duration.
func (c *OffersConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// KeyTTL returns the partition index key lifetime.
func (c *RedisConfig) KeyTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable or returns a default value.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
