package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Security      SecurityConfig      `mapstructure:"security"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	AI            AIConfig            `mapstructure:"ai"`
	Voice         VoiceConfig         `mapstructure:"voice"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ContextTTL time.Duration `mapstructure:"context_ttl"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AIConfig holds language model configuration. An empty APIKey disables
// the AI fallback without being an error.
type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Proxy   string        `mapstructure:"proxy"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VoiceConfig holds the defaults of the voice command pipeline
type VoiceConfig struct {
	DefaultAssigneeID    int64         `mapstructure:"default_assignee_id"`
	Timezone             string        `mapstructure:"timezone"`
	DefaultHour          int           `mapstructure:"default_hour"`
	DefaultMinute        int           `mapstructure:"default_minute"`
	DefaultEventDuration time.Duration `mapstructure:"default_event_duration"`
	ContextEventLimit    int           `mapstructure:"context_event_limit"`
}

// NotificationsConfig holds the dispatcher and e-mail settings
type NotificationsConfig struct {
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	SESRegion        string        `mapstructure:"ses_region"`
	SESFromEmail     string        `mapstructure:"ses_from_email"`
	SESFromName      string        `mapstructure:"ses_from_name"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "FamilyHub")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "30s")

	// Storage defaults
	viper.SetDefault("storage.driver", "memory")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "familyhub")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "30s")
	viper.SetDefault("database.migrations_path", "file://migrations")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.context_ttl", "30s")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.filename", "")

	// Security defaults
	viper.SetDefault("security.cors_allowed_origins", "*")
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)

	// AI defaults
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.proxy", "")
	viper.SetDefault("ai.timeout", "60s")

	// Voice defaults
	viper.SetDefault("voice.default_assignee_id", 1)
	viper.SetDefault("voice.timezone", "Local")
	viper.SetDefault("voice.default_hour", 9)
	viper.SetDefault("voice.default_minute", 0)
	viper.SetDefault("voice.default_event_duration", "60m")
	viper.SetDefault("voice.context_event_limit", 10)

	// Notification defaults
	viper.SetDefault("notifications.dispatch_interval", "1m")
	viper.SetDefault("notifications.ses_region", "us-east-1")
	viper.SetDefault("notifications.ses_from_email", "")
	viper.SetDefault("notifications.ses_from_name", "FamilyHub")
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT", "PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	viper.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")

	// Storage
	viper.BindEnv("storage.driver", "STORAGE_DRIVER")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	viper.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")
	viper.BindEnv("database.migrations_path", "DB_MIGRATIONS_PATH")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("redis.context_ttl", "REDIS_CONTEXT_TTL")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	viper.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")

	// AI
	viper.BindEnv("ai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("ai.model", "OPENAI_MODEL")
	viper.BindEnv("ai.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("ai.proxy", "AI_SOCKS_PROXY")
	viper.BindEnv("ai.timeout", "AI_TIMEOUT")

	// Voice
	viper.BindEnv("voice.default_assignee_id", "VOICE_DEFAULT_ASSIGNEE_ID")
	viper.BindEnv("voice.timezone", "VOICE_TIMEZONE")
	viper.BindEnv("voice.default_hour", "VOICE_DEFAULT_HOUR")
	viper.BindEnv("voice.default_minute", "VOICE_DEFAULT_MINUTE")
	viper.BindEnv("voice.default_event_duration", "VOICE_DEFAULT_EVENT_DURATION")
	viper.BindEnv("voice.context_event_limit", "VOICE_CONTEXT_EVENT_LIMIT")

	// Notifications
	viper.BindEnv("notifications.dispatch_interval", "NOTIFICATIONS_DISPATCH_INTERVAL")
	viper.BindEnv("notifications.ses_region", "AWS_REGION")
	viper.BindEnv("notifications.ses_from_email", "SES_FROM_EMAIL")
	viper.BindEnv("notifications.ses_from_name", "SES_FROM_NAME")
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "memory":
	case "postgres":
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Voice.DefaultAssigneeID <= 0 {
		return fmt.Errorf("voice default assignee id must be positive")
	}

	if cfg.Voice.DefaultHour < 0 || cfg.Voice.DefaultHour > 23 || cfg.Voice.DefaultMinute < 0 || cfg.Voice.DefaultMinute > 59 {
		return fmt.Errorf("voice default time must be a valid clock time")
	}

	if _, err := cfg.Voice.Location(); err != nil {
		return fmt.Errorf("voice timezone: %w", err)
	}

	if cfg.Notifications.DispatchInterval <= 0 {
		return fmt.Errorf("notification dispatch interval must be positive")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Location resolves the configured household time zone
func (cfg *VoiceConfig) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.Timezone)
}

// Enabled reports whether an API key is configured
func (cfg *AIConfig) Enabled() bool {
	return cfg.APIKey != ""
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
