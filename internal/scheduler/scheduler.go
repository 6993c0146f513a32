package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tasknest/reminderd/internal/reminder"
	"github.com/tasknest/reminderd/internal/summary"
)

// Common scheduler construction errors
var (
	ErrNilScanner    = errors.New("scanner cannot be nil")
	ErrNilAggregator = errors.New("aggregator cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
)

// ReminderRunner is the slice of the scanner the scheduler drives.
type ReminderRunner interface {
	TryRunCycle(ctx context.Context, now time.Time) (reminder.CycleReport, bool, error)
}

// DigestRunner is the slice of the aggregator the scheduler drives.
type DigestRunner interface {
	RunDigestCycle(ctx context.Context, now time.Time) (summary.DigestReport, error)
}

// Config holds the cron expressions and reference location for the two jobs.
type Config struct {
	// ScanSpec is the cron expression for the reminder scan, e.g. every
	// minute.
	ScanSpec string

	// DigestSpec is the cron expression for the daily digest.
	DigestSpec string

	// Location is the timezone the cron expressions are evaluated in.
	Location *time.Location
}

// Scheduler owns the cron instance and the clock that timestamps each cycle.
type Scheduler struct {
	cron    *cron.Cron
	config  Config
	scanner ReminderRunner
	digests DigestRunner
	clock   func() time.Time
	logger  *slog.Logger
}

// New creates a Scheduler. The clock may be nil, in which case time.Now is
// used; tests inject a fixed clock to pin cycle instants.
func New(
	scanner ReminderRunner,
	digests DigestRunner,
	config Config,
	clock func() time.Time,
	logger *slog.Logger,
) (*Scheduler, error) {
	if scanner == nil {
		return nil, ErrNilScanner
	}
	if digests == nil {
		return nil, ErrNilAggregator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(config.Location)),
		config:  config,
		scanner: scanner,
		digests: digests,
		clock:   clock,
		logger:  logger.With(slog.String("component", "scheduler")),
	}, nil
}

// Start registers both jobs and begins triggering them. It returns an error
// if either cron expression fails to parse.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.ScanSpec, s.runScan); err != nil {
		return fmt.Errorf("register reminder scan (%q): %w", s.config.ScanSpec, err)
	}
	if _, err := s.cron.AddFunc(s.config.DigestSpec, s.runDigest); err != nil {
		return fmt.Errorf("register digest cycle (%q): %w", s.config.DigestSpec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("scan_spec", s.config.ScanSpec),
		slog.String("digest_spec", s.config.DigestSpec),
		slog.String("timezone", s.config.Location.String()))
	return nil
}

// Stop halts triggering and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns how many jobs are registered; used by health reporting.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// runScan runs one reminder cycle at the clock's current instant. A trigger
// that lands while the previous cycle is still running is skipped; the
// compare-and-swap would keep an overlap safe, skipping just avoids
// doubling notifier load.
func (s *Scheduler) runScan() {
	now := s.clock()
	report, ran, err := s.scanner.TryRunCycle(context.Background(), now)
	if !ran {
		s.logger.Debug("reminder cycle still running, trigger skipped")
		return
	}
	if err != nil {
		s.logger.Error("reminder cycle aborted", "error", err)
		return
	}
	s.logger.Info("reminder cycle complete", slog.Any("report", report))
}

// runDigest runs one digest cycle at the clock's current instant.
func (s *Scheduler) runDigest() {
	now := s.clock()
	report, err := s.digests.RunDigestCycle(context.Background(), now)
	if err != nil {
		s.logger.Error("digest cycle aborted", "error", err)
		return
	}
	s.logger.Info("digest cycle complete", slog.Any("report", report))
}
