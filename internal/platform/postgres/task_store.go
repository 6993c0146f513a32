package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/platform/logger"
	"github.com/tasknest/reminderd/internal/store"
)

// taskColumns is the column list every task query selects, in scanTask order.
const taskColumns = `id, user_id, title, status, priority, due_date, archived,
	reminder_enabled, reminder_remind_at, reminder_sent, last_modified, created_at`

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)


// Create persists a new task to the database
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Status,
		task.Priority,
		task.DueDate,
		task.Archived,
		task.Reminder.Enabled,
		task.Reminder.RemindAt,
		task.Reminder.Sent,
		task.LastModified,
		task.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"error", err)
		return MapError(fmt.Errorf("failed to create task: %w", err))
	}

	return nil
}

// GetByID retrieves a task by its unique ID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get task: %w", err))
	}

	return task, nil
}

// FindDueReminders returns tasks whose armed reminder falls due within
// asOf+lookahead. Archived tasks and tasks in a terminal status are excluded
// at the query level so a long-dormant scanner never has to page through
// ineligible rows.
func (s *PostgresTaskStore) FindDueReminders(
	ctx context.Context,
	asOf time.Time,
	lookahead time.Duration,
) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE reminder_enabled = TRUE
		  AND reminder_sent = FALSE
		  AND reminder_remind_at IS NOT NULL
		  AND reminder_remind_at <= $1
		  AND status IN ($2, $3)
		  AND archived = FALSE
	`

	rows, err := s.db.QueryContext(ctx, query,
		asOf.Add(lookahead),
		domain.TaskStatusPending,
		domain.TaskStatusInProgress,
	)
	if err != nil {
		log.Error("failed to query due reminders", "as_of", asOf, "error", err)
		return nil, MapError(fmt.Errorf("failed to query due reminders: %w", err))
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// MarkReminderSent conditionally flips the sent flag. The WHERE clause is
// the compare-and-swap: it only matches while the stored remind-at still
// equals the value the dispatcher captured and the flag is still false, so
// out of any number of concurrent dispatches exactly one observes an applied
// update.
func (s *PostgresTaskStore) MarkReminderSent(
	ctx context.Context,
	taskID uuid.UUID,
	expectedRemindAt time.Time,
) (bool, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET reminder_sent = TRUE, last_modified = $1
		WHERE id = $2
		  AND reminder_remind_at = $3
		  AND reminder_sent = FALSE
	`

	result, err := s.db.ExecContext(ctx, query,
		time.Now().UTC(),
		taskID,
		expectedRemindAt,
	)
	if err != nil {
		log.Error("failed to mark reminder sent",
			"task_id", taskID,
			"error", err)
		return false, MapError(fmt.Errorf("failed to mark reminder sent: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// UpdateReminder replaces the task's reminder sub-record. The CASE resets
// the sent flag in the same statement whenever remind-at changes, keeping
// the edit path race-free against an in-flight dispatch.
func (s *PostgresTaskStore) UpdateReminder(
	ctx context.Context,
	taskID uuid.UUID,
	reminder domain.ReminderState,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET reminder_enabled = $1,
		    reminder_remind_at = $2,
		    reminder_sent = CASE
		        WHEN reminder_remind_at IS DISTINCT FROM $2 THEN FALSE
		        ELSE $3
		    END,
		    last_modified = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		reminder.Enabled,
		reminder.RemindAt,
		reminder.Sent,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update reminder",
			"task_id", taskID,
			"error", err)
		return MapError(fmt.Errorf("failed to update reminder: %w", err))
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	return nil
}

// DisableReminder switches the reminder off so the task stops being selected
// by FindDueReminders.
func (s *PostgresTaskStore) DisableReminder(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET reminder_enabled = FALSE, last_modified = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to disable reminder",
			"task_id", taskID,
			"error", err)
		return MapError(fmt.Errorf("failed to disable reminder: %w", err))
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return err
	}

	return nil
}

// CountByStatus returns the number of the user's non-archived tasks per status
func (s *PostgresTaskStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskStatus]int, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND archived = FALSE
		GROUP BY status
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to count tasks by status", "user_id", userID, "error", err)
		return nil, MapError(fmt.Errorf("failed to count tasks by status: %w", err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("failed to iterate status counts: %w", err))
	}

	return counts, nil
}

// CountOverdue returns the number of still-actionable tasks due before the
// given instant
func (s *PostgresTaskStore) CountOverdue(
	ctx context.Context,
	userID uuid.UUID,
	before time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1
		  AND archived = FALSE
		  AND due_date IS NOT NULL
		  AND due_date < $2
		  AND status NOT IN ($3, $4)
	`

	var count int
	err := s.db.QueryRowContext(ctx, query,
		userID,
		before,
		domain.TaskStatusCompleted,
		domain.TaskStatusCancelled,
	).Scan(&count)
	if err != nil {
		return 0, MapError(fmt.Errorf("failed to count overdue tasks: %w", err))
	}

	return count, nil
}

// FindByDueWindow returns non-archived tasks due within [start, end], both
// bounds inclusive, ordered by due date ascending
func (s *PostgresTaskStore) FindByDueWindow(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		  AND archived = FALSE
		  AND due_date IS NOT NULL
		  AND due_date >= $2
		  AND due_date <= $3
		ORDER BY due_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		log.Error("failed to query due window",
			"user_id", userID,
			"error", err)
		return nil, MapError(fmt.Errorf("failed to query due window: %w", err))
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate, remindAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Status,
		&task.Priority,
		&dueDate,
		&task.Archived,
		&task.Reminder.Enabled,
		&remindAt,
		&task.Reminder.Sent,
		&task.LastModified,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t := dueDate.Time.UTC()
		task.DueDate = &t
	}
	if remindAt.Valid {
		t := remindAt.Time.UTC()
		task.Reminder.RemindAt = &t
	}

	return &task, nil
}

// collectTasks drains rows into a slice of tasks.
func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("failed to iterate task rows: %w", err))
	}
	return tasks, nil
}
