package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
	Summary  SummaryConfig  `mapstructure:"summary"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// ReminderConfig controls the due-reminder scan and dispatch behavior.
type ReminderConfig struct {
	// ScanSpec is the cron expression that drives the reminder scan cycle.
	ScanSpec string `mapstructure:"scan_spec" validate:"required"`

	// Lookahead widens the due window to smooth polling-interval boundary
	// effects. Tasks fetched early are never dispatched before their
	// remind-at time.
	Lookahead time.Duration `mapstructure:"lookahead" validate:"min=0"`

	// WorkerCount bounds how many dispatches run concurrently in one cycle.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0,lte=64"`

	// DispatchTimeout bounds a single notifier call so a hung notifier
	// cannot stall the cycle.
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout" validate:"required,gt=0"`

	// SuppressDisabledChannel controls what happens when a task's owner has
	// the reminder channel disabled: true disables the task's reminder so
	// it stops being rescanned every cycle, false leaves it armed and
	// re-evaluates the preference each cycle.
	SuppressDisabledChannel bool `mapstructure:"suppress_disabled_channel"`
}

// SummaryConfig controls digest aggregation and its day-window arithmetic.
type SummaryConfig struct {
	// DigestSpec is the cron expression that drives the daily digest cycle.
	DigestSpec string `mapstructure:"digest_spec" validate:"required"`

	// Timezone is the single reference location for start-of-day and
	// end-of-day boundaries. Both bounds of every window are computed in
	// this one location; mixing locations between the two bounds is the
	// classic midnight-straddle bug.
	Timezone string `mapstructure:"timezone" validate:"required"`

	// UpcomingDays is the length of the "upcoming" window in days.
	UpcomingDays int `mapstructure:"upcoming_days" validate:"required,gt=0,lte=31"`

	// UpcomingLimit caps how many upcoming tasks a summary lists.
	UpcomingLimit int `mapstructure:"upcoming_limit" validate:"required,gt=0,lte=50"`
}
