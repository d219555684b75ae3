package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ordering system
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Kitchen  KitchenConfig  `yaml:"kitchen"`
	Cart     CartConfig     `yaml:"cart"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// RedisConfig holds the key-value store used for the order ledger and cart mirror
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LedgerConfig names the two mirrored keys holding submitted orders
type LedgerConfig struct {
	PrimaryKey string `yaml:"primary_key"`
	MirrorKey  string `yaml:"mirror_key"`
}

// KitchenConfig holds the simulated cooking times per order type
type KitchenConfig struct {
	DineInCookTime   time.Duration `yaml:"dine_in_cook_time"`
	TakeoutCookTime  time.Duration `yaml:"takeout_cook_time"`
	DeliveryCookTime time.Duration `yaml:"delivery_cook_time"`
}

// CartConfig controls how long an untouched cart session is kept
type CartConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// Default returns the configuration used when no file is present.
// Infrastructure hosts are empty, which selects the in-memory adapters.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			MaxConcurrent:   50,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Port: 5432, MaxConns: 25},
		RabbitMQ: RabbitMQConfig{Port: 5672},
		Redis:    RedisConfig{KeyPrefix: "restaurant:"},
		Ledger: LedgerConfig{
			PrimaryKey: "orders",
			MirrorKey:  "kitchen_orders",
		},
		Kitchen: KitchenConfig{
			DineInCookTime:   8 * time.Second,
			TakeoutCookTime:  10 * time.Second,
			DeliveryCookTime: 12 * time.Second,
		},
		Cart: CartConfig{IdleTTL: 30 * time.Minute},
	}
}

// Load reads configuration from a YAML file, a .env file next to the process
// and the environment, in increasing order of precedence. A missing YAML file
// is not an error.
func Load(filename string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envInt("HTTP_PORT", c.Server.Port)
	c.Server.MaxConcurrent = envInt("MAX_CONCURRENT", c.Server.MaxConcurrent)

	c.Database.Host = envOrDefault("DB_HOST", c.Database.Host)
	c.Database.Port = envInt("DB_PORT", c.Database.Port)
	c.Database.User = envOrDefault("DB_USER", c.Database.User)
	c.Database.Password = envOrDefault("DB_PASSWORD", c.Database.Password)
	c.Database.Database = envOrDefault("DB_NAME", c.Database.Database)

	c.RabbitMQ.Host = envOrDefault("RABBITMQ_HOST", c.RabbitMQ.Host)
	c.RabbitMQ.Port = envInt("RABBITMQ_PORT", c.RabbitMQ.Port)
	c.RabbitMQ.User = envOrDefault("RABBITMQ_USER", c.RabbitMQ.User)
	c.RabbitMQ.Password = envOrDefault("RABBITMQ_PASSWORD", c.RabbitMQ.Password)

	c.Redis.Addr = envOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("REDIS_DB", c.Redis.DB)
}

// Validate checks the values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Server.MaxConcurrent <= 0 {
		return fmt.Errorf("server.max_concurrent must be positive")
	}
	if c.Ledger.PrimaryKey == "" || c.Ledger.MirrorKey == "" {
		return fmt.Errorf("ledger.primary_key and ledger.mirror_key are required")
	}
	if c.Ledger.PrimaryKey == c.Ledger.MirrorKey {
		return fmt.Errorf("ledger keys must differ")
	}
	if c.Cart.IdleTTL < time.Minute {
		return fmt.Errorf("cart.idle_ttl must be at least 1m")
	}
	if c.DatabaseEnabled() && (c.Database.User == "" || c.Database.Database == "") {
		return fmt.Errorf("database config incomplete")
	}
	return nil
}

// DatabaseEnabled reports whether a PostgreSQL host is configured
func (c *Config) DatabaseEnabled() bool { return c.Database.Host != "" }

// RabbitMQEnabled reports whether a RabbitMQ host is configured
func (c *Config) RabbitMQEnabled() bool { return c.RabbitMQ.Host != "" }

// RedisEnabled reports whether a Redis address is configured
func (c *Config) RedisEnabled() bool { return c.Redis.Addr != "" }

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
