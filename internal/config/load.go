package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults keep the service runnable with only a database URL supplied.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("reminder.scan_spec", "* * * * *")
	v.SetDefault("reminder.lookahead", "0s")
	v.SetDefault("reminder.worker_count", 5)
	v.SetDefault("reminder.dispatch_timeout", "10s")
	v.SetDefault("reminder.suppress_disabled_channel", true)
	v.SetDefault("summary.digest_spec", "0 8 * * *")
	v.SetDefault("summary.timezone", "UTC")
	v.SetDefault("summary.upcoming_days", 7)
	v.SetDefault("summary.upcoming_limit", 5)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover everything.
	}

	// Environment variables take precedence, e.g. REMINDERD_DATABASE_URL
	// overrides database.url.
	v.SetEnvPrefix("REMINDERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not register keys for Unmarshal, so bind each key
	// we expect explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"reminder.scan_spec",
		"reminder.lookahead",
		"reminder.worker_count",
		"reminder.dispatch_timeout",
		"reminder.suppress_disabled_channel",
		"summary.digest_spec",
		"summary.timezone",
		"summary.upcoming_days",
		"summary.upcoming_limit",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
