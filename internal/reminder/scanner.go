package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/store"
)

// ScannerConfig holds configuration for the reminder scanner
type ScannerConfig struct {
	// WorkerCount bounds how many dispatches run concurrently within one
	// cycle. Concurrency is purely a latency measure; correctness comes
	// from the store's compare-and-swap, not from the pool.
	WorkerCount int

	// Lookahead widens the fetch window past the cycle instant to smooth
	// polling-interval boundary effects. Fetched tasks that are not yet
	// due are filtered out before dispatch, so nothing ever fires early.
	Lookahead time.Duration
}

// DefaultScannerConfig returns a ScannerConfig with reasonable defaults
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		WorkerCount: 5,
		Lookahead:   0,
	}
}

// Scanner drives one reminder cycle: fetch the due set and feed each task to
// the dispatcher through a bounded worker pool. Cycles are run-to-completion
// units invoked by the external scheduler; overlapping cycles are safe
// because every mark-as-sent is a store-level conditional update.
type Scanner struct {
	tasks      store.TaskStore
	dispatcher *Dispatcher
	config     ScannerConfig
	logger     *slog.Logger

	// running backs the optional overlap guard. Purely a resource-usage
	// optimization; not part of the correctness argument.
	running atomic.Bool
}

// NewScanner creates a new Scanner
func NewScanner(
	tasks store.TaskStore,
	dispatcher *Dispatcher,
	config ScannerConfig,
	logger *slog.Logger,
) (*Scanner, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", DefaultScannerConfig().WorkerCount)
		config.WorkerCount = DefaultScannerConfig().WorkerCount
	}
	if config.Lookahead < 0 {
		config.Lookahead = 0
	}

	return &Scanner{
		tasks:      tasks,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger.With(slog.String("component", "reminder_scanner")),
	}, nil
}

// RunCycle executes one scan cycle as of the given instant and reports what
// happened. An empty due set is a normal zero report. Store unavailability
// aborts the cycle with a zero report and the error; the next scheduled
// trigger simply tries again.
func (s *Scanner) RunCycle(ctx context.Context, now time.Time) (CycleReport, error) {
	start := time.Now()
	var report CycleReport
	defer func() { report.DurationMs = time.Since(start).Milliseconds() }()

	due, err := s.tasks.FindDueReminders(ctx, now, s.config.Lookahead)
	if err != nil {
		if store.IsUnavailable(err) {
			s.logger.Warn("store unavailable, skipping reminder cycle", "error", err)
		} else {
			s.logger.Error("failed to fetch due reminders", "error", err)
		}
		return report, fmt.Errorf("fetch due reminders: %w", err)
	}

	// The lookahead only widens the fetch; anything not yet due waits for
	// a later cycle.
	due = filterDueNow(due, now)

	if len(due) == 0 {
		s.logger.Debug("no due reminders", slog.Time("as_of", now))
		return report, nil
	}

	s.logger.Info("dispatching due reminders",
		slog.Int("count", len(due)),
		slog.Time("as_of", now))

	for res := range s.dispatchAll(ctx, due) {
		report.record(res)
	}

	return report, nil
}

// TryRunCycle runs a cycle unless one is already in flight, in which case it
// reports false without blocking. Overlap is safe either way; skipping just
// avoids doubling the load on the notifier when a cycle overruns its
// interval.
func (s *Scanner) TryRunCycle(ctx context.Context, now time.Time) (CycleReport, bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("previous cycle still running, skipping trigger")
		return CycleReport{}, false, nil
	}
	defer s.running.Store(false)

	report, err := s.RunCycle(ctx, now)
	return report, true, err
}

// dispatchAll fans the due set out to a bounded pool of workers and returns
// a channel of per-task results. The channel is closed once every task has
// been handled.
func (s *Scanner) dispatchAll(ctx context.Context, due []*domain.Task) <-chan Result {
	taskChan := make(chan *domain.Task)
	results := make(chan Result, len(due))

	var wg sync.WaitGroup
	for i := 0; i < s.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				results <- s.dispatchOne(ctx, task)
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for _, task := range due {
			select {
			case <-ctx.Done():
				return
			case taskChan <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// dispatchOne isolates a single dispatch, converting panics and context
// expiry into failed results so one task can never abort the cycle for the
// rest.
func (s *Scanner) dispatchOne(ctx context.Context, task *domain.Task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panicked",
				"task_id", task.ID,
				"panic", r)
			res = Result{Outcome: OutcomeFailed, Err: fmt.Errorf("dispatch panicked: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	return s.dispatcher.Dispatch(ctx, task)
}

// filterDueNow drops tasks fetched by the lookahead window whose remind-at
// is still in the future.
func filterDueNow(tasks []*domain.Task, now time.Time) []*domain.Task {
	due := tasks[:0]
	for _, task := range tasks {
		if task.Reminder.RemindAt != nil && !task.Reminder.RemindAt.After(now) {
			due = append(due, task)
		}
	}
	return due
}
