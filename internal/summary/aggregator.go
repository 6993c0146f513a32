package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/store"
)

// Common aggregator construction errors
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilUserStore = errors.New("user store cannot be nil")
	ErrNilNotifier  = errors.New("notifier cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// AggregatorConfig holds configuration for the summary aggregator
type AggregatorConfig struct {
	// Location is the single reference location used for every day-boundary
	// computation. Both bounds of each window derive from the same snapshot
	// instant in this one location.
	Location *time.Location

	// UpcomingWindow is how far past the snapshot the upcoming list looks.
	UpcomingWindow time.Duration

	// UpcomingLimit caps how many upcoming tasks a summary carries.
	UpcomingLimit int
}

// DefaultAggregatorConfig returns an AggregatorConfig with reasonable defaults
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Location:       time.UTC,
		UpcomingWindow: 7 * 24 * time.Hour,
		UpcomingLimit:  5,
	}
}

// Aggregator computes per-user summaries and runs the digest fan-out.
type Aggregator struct {
	tasks    store.TaskStore
	users    store.UserStore
	notifier notify.Notifier
	config   AggregatorConfig
	logger   *slog.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(
	tasks store.TaskStore,
	users store.UserStore,
	notifier notify.Notifier,
	config AggregatorConfig,
	logger *slog.Logger,
) (*Aggregator, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if users == nil {
		return nil, ErrNilUserStore
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.UpcomingWindow <= 0 {
		config.UpcomingWindow = DefaultAggregatorConfig().UpcomingWindow
	}
	if config.UpcomingLimit <= 0 {
		config.UpcomingLimit = DefaultAggregatorConfig().UpcomingLimit
	}

	return &Aggregator{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		config:   config,
		logger:   logger.With(slog.String("component", "summary_aggregator")),
	}, nil
}

// Summarize computes the user's rollup as of the single snapshot instant.
// All sub-queries derive their windows from that one instant; "now" is never
// recomputed between them.
func (a *Aggregator) Summarize(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*domain.Summary, error) {
	if _, err := a.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	startOfDay, endOfDay := dayBounds(now, a.config.Location)

	counts, err := a.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	completed := counts[domain.TaskStatusCompleted]

	// Overdue means strictly before the start of the snapshot's day, not
	// merely before the snapshot instant: something due earlier today is
	// "due today", not overdue.
	overdue, err := a.tasks.CountOverdue(ctx, userID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("count overdue tasks: %w", err)
	}

	// Due today: [startOfDay, endOfDay], both bounds inclusive.
	dueToday, err := a.tasks.FindByDueWindow(ctx, userID, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("find tasks due today: %w", err)
	}

	// Upcoming: (now, now+window]. The store's window query is inclusive
	// on both ends, so nudge the lower bound just past the snapshot.
	upcomingTasks, err := a.tasks.FindByDueWindow(
		ctx,
		userID,
		now.Add(time.Nanosecond),
		now.Add(a.config.UpcomingWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("find upcoming tasks: %w", err)
	}

	upcoming := make([]domain.UpcomingTask, 0, a.config.UpcomingLimit)
	for _, task := range upcomingTasks {
		if len(upcoming) == a.config.UpcomingLimit {
			break
		}
		upcoming = append(upcoming, domain.UpcomingTask{
			ID:       task.ID,
			Title:    task.Title,
			DueDate:  *task.DueDate,
			Priority: task.Priority,
		})
	}

	return &domain.Summary{
		UserID:         userID,
		GeneratedAt:    now,
		TotalTasks:     total,
		Completed:      completed,
		Pending:        counts[domain.TaskStatusPending] + counts[domain.TaskStatusInProgress],
		Overdue:        overdue,
		DueToday:       len(dueToday),
		Upcoming:       upcoming,
		CompletionRate: domain.CompletionRate(completed, total),
	}, nil
}

// dayBounds computes the inclusive start and end of the day containing t in
// the given location. Both bounds come from the same instant; computing them
// from two separately taken "now" values is the classic way to silently
// shift the window across midnight. The end bound derives from the next
// calendar day rather than start+24h: local days are 23 or 25 hours long on
// DST transition days, and time.Date normalizes day overflow correctly.
func dayBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	year, month, day := local.Date()
	start = time.Date(year, month, day, 0, 0, 0, 0, loc)
	end = time.Date(year, month, day+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	return start, end
}
