package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
)

// TaskStore defines the interface for task persistence as consumed by the
// reminder scanner, dispatcher, and summary aggregator.
//
// All mutation of reminder state is expressed as single-statement
// conditional updates. Implementations must never expand these into
// read-modify-write sequences: the conditional update is the only thing
// that keeps concurrent dispatches and overlapping scan cycles safe.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// FindDueReminders returns tasks whose reminder is due as of
	// asOf+lookahead: reminder enabled, not yet sent, remind-at within the
	// window, status pending or in-progress, and not archived. Order is
	// unspecified and must not be relied upon across calls.
	FindDueReminders(ctx context.Context, asOf time.Time, lookahead time.Duration) ([]*domain.Task, error)

	// MarkReminderSent conditionally flips reminder_sent to true, but only
	// if the stored remind-at still equals expectedRemindAt and the
	// reminder has not already been marked sent. It reports whether the
	// update applied. A false return with a nil error means the task was
	// edited or handled concurrently; callers treat that as already
	// handled, never as a reason to retry.
	MarkReminderSent(ctx context.Context, taskID uuid.UUID, expectedRemindAt time.Time) (bool, error)

	// UpdateReminder replaces the task's reminder sub-record. Setting a
	// remind-at different from the stored one resets the sent flag, so an
	// edited reminder becomes eligible again. Bumps last_modified.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateReminder(ctx context.Context, taskID uuid.UUID, reminder domain.ReminderState) error

	// DisableReminder switches the task's reminder off so it stops being
	// selected by FindDueReminders. Used to suppress reminders for owners
	// who disabled the channel. Returns ErrTaskNotFound if the task does
	// not exist.
	DisableReminder(ctx context.Context, taskID uuid.UUID) error

	// CountByStatus returns the number of the user's non-archived tasks per
	// status. Statuses with no tasks are absent from the map.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.TaskStatus]int, error)

	// CountOverdue returns the number of the user's non-archived,
	// still-actionable tasks whose due date is strictly before the given
	// instant.
	CountOverdue(ctx context.Context, userID uuid.UUID, before time.Time) (int, error)

	// FindByDueWindow returns the user's non-archived tasks whose due date
	// falls within [start, end], both bounds inclusive, ordered by due date
	// ascending.
	FindByDueWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.Task, error)
}
