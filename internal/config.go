package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Session       SessionConfig       `mapstructure:"session"`
	Activity      ActivityConfig      `mapstructure:"activity"`
	OTP           OTPConfig           `mapstructure:"otp"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	Source          string        `mapstructure:"source"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type SecurityConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"required,min=1m"`
	Issuer    string        `mapstructure:"issuer"`
}

type SessionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
	// Secure forces the Secure cookie attribute. Production always sets it.
	Secure bool `mapstructure:"secure"`
}

type ActivityConfig struct {
	Capacity      int           `mapstructure:"capacity"`
	QueryLimit    int           `mapstructure:"query_limit"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneSchedule string        `mapstructure:"prune_schedule"`

	// Archive settings apply only when a database is configured.
	ArchiveRetention time.Duration `mapstructure:"archive_retention"`
	ArchiveSchedule  string        `mapstructure:"archive_schedule"`
}

type OTPConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	ResendInterval time.Duration `mapstructure:"resend_interval"`
	Length         int           `mapstructure:"length"`
	BCryptCost     int           `mapstructure:"bcrypt_cost"`

	// Codes are only logged when no gateway URL is set.
	GatewayURL     string        `mapstructure:"gateway_url"`
	GatewayAPIKey  string        `mapstructure:"gateway_api_key"`
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
	GatewayWorkers int           `mapstructure:"gateway_workers"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// Defaults returns the configuration used when a key is absent from both the
// config file and the environment.
func Defaults() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Security: SecurityConfig{
			TokenTTL: time.Hour,
			Issuer:   "chitfund-portal",
		},
		Session: SessionConfig{
			MaxAge: 30 * 24 * time.Hour,
		},
		Activity: ActivityConfig{
			Capacity:   1000,
			QueryLimit: 100,
			Retention:  24 * time.Hour,

			ArchiveRetention: 90 * 24 * time.Hour,
		},
		OTP: OTPConfig{
			TTL:            5 * time.Minute,
			MaxAttempts:    5,
			ResendInterval: time.Minute,
			Length:         6,
			BCryptCost:     10,

			GatewayTimeout: 10 * time.Second,
			GatewayWorkers: 4,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SecureCookies reports whether session cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.IsProduction() || c.Session.Secure
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds a Config from plain environment variables on top of
// Defaults. Used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := Defaults()

	cfg.Env = getEnv("APP_ENV", cfg.Env)

	cfg.Server.Port = getEnvAsInt("HTTP_PORT", cfg.Server.Port)
	cfg.Server.BaseURL = getEnv("HTTP_BASE_URL", cfg.Server.BaseURL)
	cfg.Server.AllowedOrigins = getEnv("HTTP_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvAsDuration("HTTP_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Source = getEnv("DB_SOURCE", cfg.Database.Source)
	cfg.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Security.JWTSecret = getEnv("JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.TokenTTL = getEnvAsDuration("JWT_TOKEN_TTL", cfg.Security.TokenTTL)
	cfg.Security.Issuer = getEnv("JWT_ISSUER", cfg.Security.Issuer)

	cfg.Session.MaxAge = getEnvAsDuration("SESSION_MAX_AGE", cfg.Session.MaxAge)
	cfg.Session.Secure = getEnvAsBool("SESSION_SECURE", cfg.Session.Secure)

	cfg.Activity.Capacity = getEnvAsInt("ACTIVITY_CAPACITY", cfg.Activity.Capacity)
	cfg.Activity.QueryLimit = getEnvAsInt("ACTIVITY_QUERY_LIMIT", cfg.Activity.QueryLimit)
	cfg.Activity.Retention = getEnvAsDuration("ACTIVITY_RETENTION", cfg.Activity.Retention)
	cfg.Activity.PruneSchedule = getEnv("ACTIVITY_PRUNE_SCHEDULE", cfg.Activity.PruneSchedule)
	cfg.Activity.ArchiveRetention = getEnvAsDuration("ACTIVITY_ARCHIVE_RETENTION", cfg.Activity.ArchiveRetention)
	cfg.Activity.ArchiveSchedule = getEnv("ACTIVITY_ARCHIVE_SCHEDULE", cfg.Activity.ArchiveSchedule)

	cfg.OTP.TTL = getEnvAsDuration("OTP_TTL", cfg.OTP.TTL)
	cfg.OTP.MaxAttempts = getEnvAsInt("OTP_MAX_ATTEMPTS", cfg.OTP.MaxAttempts)
	cfg.OTP.ResendInterval = getEnvAsDuration("OTP_RESEND_INTERVAL", cfg.OTP.ResendInterval)
	cfg.OTP.GatewayURL = getEnv("OTP_GATEWAY_URL", cfg.OTP.GatewayURL)
	cfg.OTP.GatewayAPIKey = getEnv("OTP_GATEWAY_API_KEY", cfg.OTP.GatewayAPIKey)
	cfg.OTP.GatewayTimeout = getEnvAsDuration("OTP_GATEWAY_TIMEOUT", cfg.OTP.GatewayTimeout)
	cfg.OTP.GatewayWorkers = getEnvAsInt("OTP_GATEWAY_WORKERS", cfg.OTP.GatewayWorkers)

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", "json")

	return &cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Activity.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("activity config: %v", err))
	}

	if err := c.OTP.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("otp config: %v", err))
	}

	if c.Session.MaxAge <= 0 {
		errs = append(errs, "session config: max_age must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins on commas.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite, DriverPostgres:
		if c.Source == "" {
			return fmt.Errorf("source is required for driver %s", c.Driver)
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) Persistent() bool {
	return c.Driver == DriverSQLite || c.Driver == DriverPostgres
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.TokenTTL < time.Minute {
		return errors.New("token_ttl must be at least 1m")
	}
	return nil
}

func (c *ActivityConfig) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if c.QueryLimit <= 0 {
		return errors.New("query_limit must be positive")
	}
	if c.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.PruneSchedule); err != nil {
			return fmt.Errorf("invalid prune_schedule: %w", err)
		}
	}
	if c.ArchiveSchedule != "" {
		if _, err := cron.ParseStandard(c.ArchiveSchedule); err != nil {
			return fmt.Errorf("invalid archive_schedule: %w", err)
		}
		if c.ArchiveRetention <= 0 {
			return errors.New("archive_retention must be positive when archive_schedule is set")
		}
	}
	return nil
}

func (c *OTPConfig) Validate() error {
	if c.Length < 4 || c.Length > 10 {
		return errors.New("length must be between 4 and 10")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("max_attempts must be positive")
	}
	if c.TTL <= 0 {
		return errors.New("ttl must be positive")
	}
	if c.GatewayURL != "" {
		u, err := url.Parse(c.GatewayURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid gateway_url %q", c.GatewayURL)
		}
	}
	return nil
}
