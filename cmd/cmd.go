package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chitfund-portal",
	Short: "Chit Fund Portal",
	Long:  `Access gating, session issuance and security activity for the chit fund portal.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads .env (if any), then either the environment alone
// (APP_ENV=production or DOCKER_ENV=true) or config.yml with ENV_ overrides.
// The result is validated and the process logger initialised from it.
func loadConfig(path string) (*internal.Config, error) {
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := internal.Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	return &cfg, nil
}

// setDefaults registers every key so ENV_ variables apply even when the key is
// absent from config.yml.
func setDefaults(v *viper.Viper) {
	d := internal.Defaults()

	v.SetDefault("env", d.Env)

	v.SetDefault("http_server.port", d.Server.Port)
	v.SetDefault("http_server.base_url", d.Server.BaseURL)
	v.SetDefault("http_server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("http_server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("http_server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("http_server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("http_server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("http_server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.source", d.Database.Source)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("security.jwt_secret", d.Security.JWTSecret)
	v.SetDefault("security.token_ttl", d.Security.TokenTTL)
	v.SetDefault("security.issuer", d.Security.Issuer)

	v.SetDefault("session.max_age", d.Session.MaxAge)
	v.SetDefault("session.secure", d.Session.Secure)

	v.SetDefault("activity.capacity", d.Activity.Capacity)
	v.SetDefault("activity.query_limit", d.Activity.QueryLimit)
	v.SetDefault("activity.retention", d.Activity.Retention)
	v.SetDefault("activity.prune_schedule", d.Activity.PruneSchedule)
	v.SetDefault("activity.archive_retention", d.Activity.ArchiveRetention)
	v.SetDefault("activity.archive_schedule", d.Activity.ArchiveSchedule)

	v.SetDefault("otp.ttl", d.OTP.TTL)
	v.SetDefault("otp.max_attempts", d.OTP.MaxAttempts)
	v.SetDefault("otp.resend_interval", d.OTP.ResendInterval)
	v.SetDefault("otp.length", d.OTP.Length)
	v.SetDefault("otp.bcrypt_cost", d.OTP.BCryptCost)
	v.SetDefault("otp.gateway_url", d.OTP.GatewayURL)
	v.SetDefault("otp.gateway_api_key", d.OTP.GatewayAPIKey)
	v.SetDefault("otp.gateway_timeout", d.OTP.GatewayTimeout)
	v.SetDefault("otp.gateway_workers", d.OTP.GatewayWorkers)

	v.SetDefault("observability.logging.level", d.Observability.Logging.Level)
	v.SetDefault("observability.logging.format", d.Observability.Logging.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}
