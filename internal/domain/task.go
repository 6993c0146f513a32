package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Priority represents the relative importance of a task. It is carried into
// notification payloads so the rendering collaborator can style messages.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrReminderWithoutTime is returned when a reminder is enabled but has
	// no remind-at instant.
	ErrReminderWithoutTime = errors.New("enabled reminder must have a remind-at time")
)

// ReminderState is the reminder sub-record of a task.
//
// A reminder is "armed" once Enabled is true, RemindAt is set, and Sent is
// false. Sent may only transition to true after a successful notification
// delivery for the current RemindAt value; any edit that changes RemindAt
// must reset Sent to false so the new instant fires again.
type ReminderState struct {
	Enabled  bool       `json:"enabled"`
	RemindAt *time.Time `json:"remind_at,omitempty"`
	Sent     bool       `json:"sent"`
}

// Armed reports whether the reminder is eligible for future delivery.
func (r ReminderState) Armed() bool {
	return r.Enabled && !r.Sent && r.RemindAt != nil
}

// Due reports whether the reminder should fire at the given instant.
// A zero lookahead means only reminders at or before asOf are due.
func (r ReminderState) Due(asOf time.Time, lookahead time.Duration) bool {
	if !r.Armed() {
		return false
	}
	return !r.RemindAt.After(asOf.Add(lookahead))
}

// Task represents a task record as seen by the reminder subsystem. The
// surrounding task-management service owns the canonical record; this
// subsystem only observes it and conditionally mutates the Reminder
// sub-record.
type Task struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Title        string        `json:"title"`
	Status       TaskStatus    `json:"status"`
	Priority     Priority      `json:"priority"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	Archived     bool          `json:"archived"`
	Reminder     ReminderState `json:"reminder"`
	LastModified time.Time     `json:"last_modified"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewTask creates a new Task with the given user ID and title.
// It generates a new UUID for the task ID, sets the status to pending with
// medium priority, and sets the creation/modification timestamps.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Status:       TaskStatusPending,
		Priority:     PriorityMedium,
		LastModified: now,
		CreatedAt:    now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if !isValidPriority(t.Priority) {
		return ErrInvalidPriority
	}

	if t.Reminder.Enabled && t.Reminder.RemindAt == nil {
		return ErrReminderWithoutTime
	}

	return nil
}

// ReminderEligible reports whether the task may participate in reminder
// processing at all: archived tasks and tasks in a terminal status never
// fire, regardless of reminder state.
func (t *Task) ReminderEligible() bool {
	if t.Archived {
		return false
	}
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

// SetReminder arms the reminder for the given instant.
// Changing the remind-at time always resets Sent, so an edited reminder
// fires again for its new instant even if the previous one was delivered.
func (t *Task) SetReminder(at time.Time) {
	t.Reminder.Enabled = true
	if t.Reminder.RemindAt == nil || !t.Reminder.RemindAt.Equal(at) {
		t.Reminder.Sent = false
	}
	at = at.UTC()
	t.Reminder.RemindAt = &at
	t.touch()
}

// DisableReminder switches the reminder off without touching Sent, removing
// the task from future scans.
func (t *Task) DisableReminder() {
	t.Reminder.Enabled = false
	t.touch()
}

// Complete moves the task to the completed status.
func (t *Task) Complete() {
	t.Status = TaskStatusCompleted
	t.touch()
}

// Cancel moves the task to the cancelled status.
func (t *Task) Cancel() {
	t.Status = TaskStatusCancelled
	t.touch()
}

// Archive flags the task as archived, excluding it from all reminder and
// summary processing.
func (t *Task) Archive() {
	t.Archived = true
	t.touch()
}

// Overdue reports whether the task's due date has passed the given day
// boundary and the task is still actionable.
func (t *Task) Overdue(startOfDay time.Time) bool {
	if t.DueDate == nil || t.Archived {
		return false
	}
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate.Before(startOfDay)
}

// touch bumps LastModified; used to detect edits racing with in-flight
// dispatch.
func (t *Task) touch() {
	t.LastModified = time.Now().UTC()
}

func isValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

func isValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
