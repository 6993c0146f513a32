package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
)

// Kind identifies the class of notification being delivered.
type Kind string

// Possible notification kinds
const (
	KindReminder     Kind = "reminder"
	KindDailyDigest  Kind = "daily_digest"
	KindOverdueAlert Kind = "overdue_alert"
)

// Payload carries the structured fields a notification is built from.
// Only the fields relevant to the Kind are populated; rendering decides
// what to show.
type Payload struct {
	TaskID   uuid.UUID       `json:"task_id,omitempty"`
	Title    string          `json:"title,omitempty"`
	Priority domain.Priority `json:"priority,omitempty"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
	RemindAt *time.Time      `json:"remind_at,omitempty"`
	Summary  *domain.Summary `json:"summary,omitempty"`
}

// ReminderPayload builds the payload for a single due-reminder notification.
func ReminderPayload(task *domain.Task) Payload {
	return Payload{
		TaskID:   task.ID,
		Title:    task.Title,
		Priority: task.Priority,
		DueDate:  task.DueDate,
		RemindAt: task.Reminder.RemindAt,
	}
}

// DigestPayload builds the payload for a daily digest notification.
func DigestPayload(summary *domain.Summary) Payload {
	return Payload{Summary: summary}
}

// Notifier is the injected delivery capability. Implementations must honor
// context cancellation: the dispatcher bounds each call with a timeout and
// treats expiry as a retryable delivery failure.
type Notifier interface {
	Notify(ctx context.Context, recipient *domain.User, kind Kind, payload Payload) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, recipient *domain.User, kind Kind, payload Payload) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(
	ctx context.Context,
	recipient *domain.User,
	kind Kind,
	payload Payload,
) error {
	return f(ctx, recipient, kind, payload)
}
