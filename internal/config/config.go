package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Vault    VaultConfig    `yaml:"vault"`
	OsuAPI   OsuAPIConfig   `yaml:"osu_api"`
	OsuTrack OsuTrackConfig `yaml:"osutrack"`
	Upload   UploadConfig   `yaml:"upload"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	WebhookToken string        `yaml:"webhook_token"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers    []string      `yaml:"brokers"`
	Topic      string        `yaml:"topic"`
	GroupID    string        `yaml:"group_id"`
	Enabled    bool          `yaml:"enabled"`
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// VaultConfig selects the credential store backend
type VaultConfig struct {
	Backend string `yaml:"backend"`
}

// Vault backends
const (
	VaultBackendRedis    = "redis"
	VaultBackendPostgres = "postgres"
	VaultBackendMemory   = "memory"
)

// OsuAPIConfig holds osu! API client configuration
type OsuAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// OsuTrackConfig holds osu!track client configuration
type OsuTrackConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig bounds retries of throttled or transiently failing calls
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// UploadConfig holds score upload configuration
type UploadConfig struct {
	BestLimit int         `yaml:"best_limit"`
	Retry     RetryConfig `yaml:"retry"`
}

// TrackerConfig holds the periodic re-track worker configuration
type TrackerConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Interval time.Duration  `yaml:"interval"`
	Entries  []TrackerEntry `yaml:"entries"`
}

// TrackerEntry names one player to re-track on schedule, using the given
// user's stored credential
type TrackerEntry struct {
	UserID string `yaml:"user_id"`
	Player string `yaml:"player"`
	Mode   string `yaml:"mode"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 20
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 1
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "osu-upload-jobs"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "osutrack-bridge"
	}
	if c.Kafka.JobTimeout == 0 {
		c.Kafka.JobTimeout = 60 * time.Second
	}

	// Vault defaults
	if c.Vault.Backend == "" {
		c.Vault.Backend = VaultBackendRedis
	}

	// Upstream API defaults
	if c.OsuAPI.BaseURL == "" {
		c.OsuAPI.BaseURL = "https://osu.ppy.sh/api"
	}
	if c.OsuAPI.Timeout == 0 {
		c.OsuAPI.Timeout = 10 * time.Second
	}
	if c.OsuTrack.BaseURL == "" {
		c.OsuTrack.BaseURL = "https://osutrack-api.ameo.dev"
	}
	if c.OsuTrack.Timeout == 0 {
		c.OsuTrack.Timeout = 10 * time.Second
	}

	// Upload defaults: one page of best scores, three attempts per step
	if c.Upload.BestLimit == 0 {
		c.Upload.BestLimit = 100
	}
	if c.Upload.Retry.MaxAttempts == 0 {
		c.Upload.Retry.MaxAttempts = 3
	}
	if c.Upload.Retry.BaseDelay == 0 {
		c.Upload.Retry.BaseDelay = 1 * time.Second
	}
	if c.Upload.Retry.MaxDelay == 0 {
		c.Upload.Retry.MaxDelay = 10 * time.Second
	}

	// Tracker defaults
	if c.Tracker.Interval == 0 {
		c.Tracker.Interval = 30 * time.Minute
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
