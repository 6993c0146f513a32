package summary

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/reminder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fixture bundles the mock stores and an aggregator for one user.
type fixture struct {
	tasks    *reminder.MockTaskStore
	users    *reminder.MockUserStore
	notifier *reminder.MockNotifier
	agg      *Aggregator
	user     *domain.User
}

func newFixture(t *testing.T, cfg AggregatorConfig) *fixture {
	t.Helper()

	tasks := reminder.NewMockTaskStore()
	users := reminder.NewMockUserStore()
	notifier := reminder.NewMockNotifier()

	user, err := domain.NewUser("grace@example.com", "Grace")
	require.NoError(t, err)
	users.Put(user)

	agg, err := NewAggregator(tasks, users, notifier, cfg, testLogger())
	require.NoError(t, err)

	return &fixture{tasks: tasks, users: users, notifier: notifier, agg: agg, user: user}
}

// addTask seeds a task with the given due date and status.
func (f *fixture) addTask(t *testing.T, due *time.Time, status domain.TaskStatus) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(f.user.ID, "errand")
	require.NoError(t, err)
	task.Status = status
	task.DueDate = due
	f.tasks.Put(task)
	return task
}

func ptr(t time.Time) *time.Time { return &t }

func TestSummarize_EmptyUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultAggregatorConfig())

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, time.Now().UTC())

	require.NoError(t, err)
	assert.Zero(t, summary.TotalTasks)
	assert.Zero(t, summary.CompletionRate, "zero tasks must yield zero, not a division by zero")
	assert.Empty(t, summary.Upcoming)
}

func TestSummarize_CompletionRate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultAggregatorConfig())
	for i := 0; i < 3; i++ {
		f.addTask(t, nil, domain.TaskStatusCompleted)
	}
	for i := 0; i < 7; i++ {
		f.addTask(t, nil, domain.TaskStatusPending)
	}

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, time.Now().UTC())

	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalTasks)
	assert.Equal(t, 3, summary.Completed)
	assert.Equal(t, 7, summary.Pending)
	assert.Equal(t, 30, summary.CompletionRate)
}

// TestSummarize_MidnightBoundary pins the reference-timezone behavior: a
// task due ten minutes after midnight UTC is "due tomorrow" for a UTC
// aggregator but "due today" for a New York one, because both instants fall
// in the same New York day.
func TestSummarize_MidnightBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 23, 50, 0, 0, time.UTC)
	due := time.Date(2024, 6, 16, 0, 10, 0, 0, time.UTC)

	t.Run("UTC reference", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, DefaultAggregatorConfig())
		f.addTask(t, ptr(due), domain.TaskStatusPending)

		summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

		require.NoError(t, err)
		assert.Zero(t, summary.DueToday, "00:10Z on the 16th is tomorrow in UTC")
		require.Len(t, summary.Upcoming, 1, "it is upcoming instead")
		assert.Zero(t, summary.Overdue)
	})

	t.Run("New York reference", func(t *testing.T) {
		t.Parallel()
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		cfg := DefaultAggregatorConfig()
		cfg.Location = loc
		f := newFixture(t, cfg)
		f.addTask(t, ptr(due), domain.TaskStatusPending)

		summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.DueToday,
			"19:50 and 20:10 local are the same New York day")
	})
}

func TestSummarize_DSTTransitionDays(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	cfg := DefaultAggregatorConfig()
	cfg.Location = loc

	t.Run("spring forward day is 23 hours", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, cfg)

		// Snapshot on 2025-03-09, the day the clocks skip 02:00-03:00.
		// A task due at 00:30 local the next day must not leak into
		// today just because start+24h lands past the short day's end.
		now := time.Date(2025, 3, 9, 12, 0, 0, 0, loc)
		f.addTask(t, ptr(time.Date(2025, 3, 10, 0, 30, 0, 0, loc)), domain.TaskStatusPending)

		summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

		require.NoError(t, err)
		assert.Zero(t, summary.DueToday, "00:30 local on the 10th is tomorrow")
		assert.Len(t, summary.Upcoming, 1)
	})

	t.Run("fall back day is 25 hours", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, cfg)

		// 2025-11-02 repeats the 01:00-02:00 hour. A task due in the
		// last local hour still belongs to today even though it sits
		// more than 24 hours after local midnight.
		now := time.Date(2025, 11, 2, 12, 0, 0, 0, loc)
		f.addTask(t, ptr(time.Date(2025, 11, 2, 23, 30, 0, 0, loc)), domain.TaskStatusPending)

		summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.DueToday, "23:30 local is still the 2nd")
		assert.Zero(t, summary.Overdue)
	})
}

func TestSummarize_DueTodayBoundsInclusive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, DefaultAggregatorConfig())

	// Exactly at start of day and in the last nanosecond of the day.
	f.addTask(t, ptr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)), domain.TaskStatusPending)
	f.addTask(t, ptr(time.Date(2024, 6, 15, 23, 59, 59, 999999999, time.UTC)), domain.TaskStatusPending)
	// Just outside on both sides.
	f.addTask(t, ptr(time.Date(2024, 6, 14, 23, 59, 59, 999999999, time.UTC)), domain.TaskStatusPending)
	f.addTask(t, ptr(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)), domain.TaskStatusPending)

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.DueToday, "both day bounds are inclusive")
	assert.Equal(t, 1, summary.Overdue, "yesterday's task is overdue")
}

func TestSummarize_OverdueClassification(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, DefaultAggregatorConfig())

	yesterday := ptr(time.Date(2024, 6, 14, 17, 0, 0, 0, time.UTC))
	f.addTask(t, yesterday, domain.TaskStatusPending)
	f.addTask(t, yesterday, domain.TaskStatusInProgress)
	f.addTask(t, yesterday, domain.TaskStatusCompleted)
	f.addTask(t, yesterday, domain.TaskStatusCancelled)

	archived := f.addTask(t, yesterday, domain.TaskStatusPending)
	archived.Archive()
	f.tasks.Put(archived)

	// Due earlier today is "due today", never overdue.
	f.addTask(t, ptr(time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)), domain.TaskStatusPending)

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Overdue,
		"completed, cancelled, and archived tasks never count as overdue")
	assert.Equal(t, 1, summary.DueToday)
}

func TestSummarize_UpcomingWindowSortedAndCapped(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, DefaultAggregatorConfig())

	// Eight tasks inside (now, now+7d], seeded out of order.
	for _, hours := range []int{60, 12, 96, 36, 144, 24, 120, 72} {
		f.addTask(t, ptr(now.Add(time.Duration(hours)*time.Hour)), domain.TaskStatusPending)
	}
	// At the snapshot instant: excluded, the window is open at "now".
	f.addTask(t, ptr(now), domain.TaskStatusPending)
	// Past seven days: excluded.
	f.addTask(t, ptr(now.Add(8*24*time.Hour)), domain.TaskStatusPending)

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

	require.NoError(t, err)
	require.Len(t, summary.Upcoming, 5, "upcoming is capped")
	for i := 1; i < len(summary.Upcoming); i++ {
		assert.False(t, summary.Upcoming[i].DueDate.Before(summary.Upcoming[i-1].DueDate),
			"upcoming must be sorted ascending by due date")
	}
	assert.Equal(t, now.Add(12*time.Hour), summary.Upcoming[0].DueDate)
}

func TestSummarize_SevenDayBoundInclusive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, DefaultAggregatorConfig())
	f.addTask(t, ptr(now.Add(7*24*time.Hour)), domain.TaskStatusPending)

	summary, err := f.agg.Summarize(context.Background(), f.user.ID, now)

	require.NoError(t, err)
	assert.Len(t, summary.Upcoming, 1, "exactly now+7d is inside the half-open window")
}
