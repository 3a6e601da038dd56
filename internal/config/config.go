package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	WhatsApp     WhatsAppConfig     `mapstructure:"whatsapp"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Notification NotificationConfig `mapstructure:"notification"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Outbox       OutboxConfig       `mapstructure:"outbox"`
	Dashboard    DashboardConfig    `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" envconfig:"PORT"`
	Mode            string        `mapstructure:"mode" envconfig:"GIN_MODE"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	HSTSMaxAge      int           `mapstructure:"hsts_max_age" envconfig:"HSTS_MAX_AGE"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"ENABLED"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"BURST"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string        `mapstructure:"driver" envconfig:"DRIVER"`
	Host            string        `mapstructure:"host" envconfig:"HOST"`
	Port            int           `mapstructure:"port" envconfig:"PORT"`
	User            string        `mapstructure:"user" envconfig:"USER"`
	Password        string        `mapstructure:"password" envconfig:"PASSWORD"`
	Name            string        `mapstructure:"name" envconfig:"NAME"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"SSLMODE"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"EXPIRY_HOURS"`
	Issuer      string `mapstructure:"issuer" envconfig:"ISSUER"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"LEVEL"`
	Format string `mapstructure:"format" envconfig:"FORMAT"`
}

type WhatsAppConfig struct {
	BaseURL    string        `mapstructure:"base_url" envconfig:"BASE_URL"`
	Token      string        `mapstructure:"token" envconfig:"TOKEN"`
	SenderID   string        `mapstructure:"sender_id" envconfig:"SENDER_ID"`
	Timeout    time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT"`
	RetryCount int           `mapstructure:"retry_count" envconfig:"RETRY_COUNT"`
}

// Enabled reports whether gateway credentials were provided.
func (c WhatsAppConfig) Enabled() bool {
	return c.BaseURL != "" && c.Token != ""
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"HOST"`
	Port     int    `mapstructure:"port" envconfig:"PORT"`
	Username string `mapstructure:"username" envconfig:"USERNAME"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	From     string `mapstructure:"from" envconfig:"FROM"`
	// StaffTo receives intake alerts.
	StaffTo string `mapstructure:"staff_to" envconfig:"STAFF_TO"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.StaffTo != ""
}

type NotificationConfig struct {
	Timeout time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"URL"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"MAX_RETRIES"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"RETRY_BACKOFF"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"POOL_SIZE"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"MIN_IDLE_CONNS"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" envconfig:"BATCH_SIZE"`
	PollInterval  time.Duration `mapstructure:"poll_interval" envconfig:"POLL_INTERVAL"`
	RetryAttempts int           `mapstructure:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" envconfig:"RETRY_DELAY"`
	// HealthPort serves the relay's liveness and metrics endpoints.
	HealthPort int `mapstructure:"health_port" envconfig:"HEALTH_PORT"`
	// Retention is how long relayed events are kept before cleanup.
	Retention       time.Duration `mapstructure:"retention" envconfig:"RETENTION"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"CLEANUP_INTERVAL"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" envconfig:"CACHE_TTL"`
}

// DefaultJWTSecret is only suitable for local development; Load callers warn when it is in use.
const DefaultJWTSecret = "casa-caminho-dev-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.hsts_max_age", 0)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "casa_caminho")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.expiry_hours", 8)
	v.SetDefault("jwt.issuer", "shelter-api")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("whatsapp.timeout", 10*time.Second)
	v.SetDefault("whatsapp.retry_count", 2)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@casacaminho.org")

	v.SetDefault("notification.timeout", 15*time.Second)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 500*time.Millisecond)
	v.SetDefault("outbox.health_port", 8081)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("dashboard.cache_ttl", 15*time.Second)
}

// Load resolves configuration from defaults, an optional config.yml, a .env file and
// the process environment, later sources winning.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []struct {
		prefix string
		target interface{}
	}{
		{"", &cfg.Server},
		{"RATE_LIMIT", &cfg.RateLimit},
		{"DB", &cfg.Database},
		{"JWT", &cfg.JWT},
		{"LOG", &cfg.Log},
		{"WHATSAPP", &cfg.WhatsApp},
		{"SMTP", &cfg.SMTP},
		{"NOTIFY", &cfg.Notification},
		{"REDIS", &cfg.Redis},
		{"OUTBOX", &cfg.Outbox},
		{"DASHBOARD", &cfg.Dashboard},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			name := s.prefix
			if name == "" {
				name = "SERVER"
			}
			return fmt.Errorf("failed to process %s environment: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("jwt expiry must be positive")
	}
	return nil
}
