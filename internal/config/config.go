package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBConfig struct {
		Host     string `env:"LEDGER_DB_HOST"`
		Port     int    `env:"LEDGER_DB_PORT"`
		User     string `env:"LEDGER_DB_USER"`
		Password string `env:"LEDGER_DB_PASSWORD"`
		Name     string `env:"LEDGER_DB_NAME"`
		SSLMode  string `env:"LEDGER_DB_SSLMODE"`
	}

	HTTPPort        int    `env:"LEDGER_HTTP_PORT"`
	DefaultCurrency string `env:"LEDGER_DEFAULT_CURRENCY"`
	MigrationsPath  string `env:"LEDGER_MIGRATIONS_PATH"`

	KafkaBrokerURL           string `env:"KAFKA_BROKER_URL"`
	KafkaMovementEventsTopic string `env:"KAFKA_MOVEMENT_EVENTS_TOPIC"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; in containers everything comes from the environment.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("LEDGER_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("LEDGER_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("LEDGER_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("LEDGER_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("LEDGER_DB_NAME", "ledger_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("LEDGER_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvAsInt("LEDGER_HTTP_PORT", 8080)
	cfg.DefaultCurrency = getEnvOrDefault("LEDGER_DEFAULT_CURRENCY", "BRL")
	cfg.MigrationsPath = getEnvOrDefault("LEDGER_MIGRATIONS_PATH", "file://migrations")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaMovementEventsTopic = getEnvOrDefault("KAFKA_MOVEMENT_EVENTS_TOPIC", "ledger_movement_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)

	return cfg, nil
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
