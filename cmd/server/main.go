// Package main implements the entry point for the reminderd server, which
// scans tasks for due reminders, dispatches at-most-once notifications, and
// sends daily digest summaries.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tasknest/reminderd/internal/api"
	"github.com/tasknest/reminderd/internal/config"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/platform/logger"
	"github.com/tasknest/reminderd/internal/platform/postgres"
	"github.com/tasknest/reminderd/internal/reminder"
	"github.com/tasknest/reminderd/internal/scheduler"
	"github.com/tasknest/reminderd/internal/summary"
)

// application bundles the long-lived components main owns after
// initialization.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	scheduler *scheduler.Scheduler
	handler   *api.AdminHandler
}

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server terminated with error: %v", err)
	}
}

// initializeApp loads configuration and wires every component the server
// needs: logger, database, stores, notifier, dispatcher, scanner, aggregator,
// scheduler, and the admin HTTP handler.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"scan_spec", cfg.Reminder.ScanSpec,
		"digest_spec", cfg.Summary.DigestSpec)

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db)
	userStore := postgres.NewPostgresUserStore(db)
	notifier := notify.NewLogNotifier(appLogger)

	dispatcher, err := reminder.NewDispatcher(
		taskStore,
		userStore,
		notifier,
		reminder.DispatcherConfig{
			Timeout:                 cfg.Reminder.DispatchTimeout,
			SuppressDisabledChannel: cfg.Reminder.SuppressDisabledChannel,
		},
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	scanner, err := reminder.NewScanner(
		taskStore,
		dispatcher,
		reminder.ScannerConfig{
			WorkerCount: cfg.Reminder.WorkerCount,
			Lookahead:   cfg.Reminder.Lookahead,
		},
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	location, err := time.LoadLocation(cfg.Summary.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Summary.Timezone, err)
	}

	aggregator, err := summary.NewAggregator(
		taskStore,
		userStore,
		notifier,
		summary.AggregatorConfig{
			Location:       location,
			UpcomingWindow: time.Duration(cfg.Summary.UpcomingDays) * 24 * time.Hour,
			UpcomingLimit:  cfg.Summary.UpcomingLimit,
		},
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator: %w", err)
	}

	sched, err := scheduler.New(
		scanner,
		aggregator,
		scheduler.Config{
			ScanSpec:   cfg.Reminder.ScanSpec,
			DigestSpec: cfg.Summary.DigestSpec,
			Location:   location,
		},
		nil, // wall clock
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	handler := api.NewAdminHandler(scanner, aggregator, aggregator, db, appLogger)

	return &application{
		config:    cfg,
		logger:    appLogger,
		db:        db,
		scheduler: sched,
		handler:   handler,
	}, nil
}
