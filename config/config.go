package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Auth       AuthConfig       `yaml:"auth"`
	Booking    BookingConfig    `yaml:"booking"`
	Worker     WorkerConfig     `yaml:"worker"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	LogLevel   string           `yaml:"log_level"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type BookingConfig struct {
	Timezone              string `yaml:"timezone"`
	EditLockHours         int    `yaml:"edit_lock_hours"`
	MaxOccurrences        int    `yaml:"max_occurrences"`
	RateCacheTTLSeconds   int    `yaml:"rate_cache_ttl_seconds"`
	IdempotencyTTLMinutes int    `yaml:"idempotency_ttl_minutes"`
	NotifyTimeoutSeconds  int    `yaml:"notify_timeout_seconds"`
}

type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

// LoadConfig reads the YAML file at path, expanding ${ENV_VAR} placeholders.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid booking.timezone %q: %w", cfg.Booking.Timezone, err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.EditLockHours <= 0 {
		c.Booking.EditLockHours = 12
	}
	if c.Booking.MaxOccurrences <= 0 {
		c.Booking.MaxOccurrences = 104
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "courtbooking-worker"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Location is the venue time zone used for wall-clock arithmetic.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Booking.Timezone)
}

func (c *Config) EditLock() time.Duration {
	return time.Duration(c.Booking.EditLockHours) * time.Hour
}

func (c *Config) RateCacheTTL() time.Duration {
	if c.Booking.RateCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.RateCacheTTLSeconds) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	if c.Booking.IdempotencyTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.IdempotencyTTLMinutes) * time.Minute
}

func (c *Config) NotifyTimeout() time.Duration {
	if c.Booking.NotifyTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.NotifyTimeoutSeconds) * time.Second
}

func (c *Config) CompletionSweep() time.Duration {
	if c.Worker.CompletionSweepMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Worker.CompletionSweepMinutes) * time.Minute
}
