package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/store"
)

// Common dispatcher construction errors
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilUserStore = errors.New("user store cannot be nil")
	ErrNilNotifier  = errors.New("notifier cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// DispatcherConfig holds configuration for the dispatcher
type DispatcherConfig struct {
	// Timeout bounds a single notifier call. Expiry counts as a delivery
	// failure and the reminder is retried next cycle.
	Timeout time.Duration

	// SuppressDisabledChannel controls the disabled-channel policy: when
	// true, a task whose owner has reminders switched off gets its
	// reminder disabled so it stops reappearing in every scan; when false
	// the preference is re-evaluated each cycle.
	SuppressDisabledChannel bool
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Timeout:                 10 * time.Second,
		SuppressDisabledChannel: true,
	}
}

// Dispatcher delivers one notification per due reminder and records the
// delivery through the store's compare-and-swap. It never mutates any task
// field other than the reminder sub-record.
type Dispatcher struct {
	tasks    store.TaskStore
	users    store.UserStore
	notifier notify.Notifier
	config   DispatcherConfig
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	tasks store.TaskStore,
	users store.UserStore,
	notifier notify.Notifier,
	config DispatcherConfig,
	logger *slog.Logger,
) (*Dispatcher, error) {
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
	if config.Timeout <= 0 {
		config.Timeout = DefaultDispatcherConfig().Timeout
	}

	return &Dispatcher{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		config:   config,
		logger:   logger.With(slog.String("component", "reminder_dispatcher")),
	}, nil
}

// Dispatch handles a single due reminder. The ordering is the correctness
// property: resolve the owner, deliver, and only then mark sent. Marking
// before delivering could silently lose a reminder (marked but never
// notified); delivering before marking risks at most a duplicate when the
// task is edited mid-flight, which is the accepted trade-off.
func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.Task) Result {
	log := d.logger.With(
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
	)

	if task.Reminder.RemindAt == nil {
		log.Warn("task selected for dispatch has no remind-at time")
		return Result{Outcome: OutcomeSkipped, Err: domain.ErrReminderNotArmed}
	}
	remindAt := *task.Reminder.RemindAt

	// Snapshot the owner before delivery; the same snapshot feeds the
	// notification payload.
	owner, err := d.users.GetByID(ctx, task.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Data-integrity warning: the task outlived its owner. Skip
			// and leave it for cleanup tooling.
			log.Warn("task owner not found, skipping reminder")
			return Result{Outcome: OutcomeSkipped}
		}
		log.Error("failed to resolve task owner", "error", err)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("resolve owner: %w", err)}
	}

	if !owner.Preferences.Reminders {
		if !d.config.SuppressDisabledChannel {
			return Result{Outcome: OutcomeSkipped}
		}
		// Stop the task from reappearing in every scan. The reminder is
		// not marked sent: nothing was delivered.
		if err := d.tasks.DisableReminder(ctx, task.ID); err != nil {
			log.Error("failed to suppress reminder for disabled channel", "error", err)
			return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("suppress reminder: %w", err)}
		}
		log.Info("reminder suppressed, owner has channel disabled")
		return Result{Outcome: OutcomeAlreadyHandled}
	}

	notifyCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	if err := d.notifier.Notify(notifyCtx, owner, notify.KindReminder, notify.ReminderPayload(task)); err != nil {
		// Leave the reminder unsent; the next cycle retries with the same
		// content.
		log.Error("reminder delivery failed", "error", err)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("deliver reminder: %w", err)}
	}

	applied, err := d.tasks.MarkReminderSent(ctx, task.ID, remindAt)
	if err != nil {
		// The notification went out but the mark did not stick; the next
		// cycle may deliver again. Surfaced as a failure so operators see
		// the store problem.
		log.Error("failed to mark reminder sent after delivery", "error", err)
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("mark reminder sent: %w", err)}
	}
	if !applied {
		// Lost the compare-and-swap: the task was edited while the
		// notification was in flight, or another dispatch won. The user
		// was still notified once for this remind-at value.
		log.Info("reminder already handled, conditional update did not apply")
		return Result{Outcome: OutcomeAlreadyHandled}
	}

	log.Info("reminder sent", slog.Time("remind_at", remindAt))
	return Result{Outcome: OutcomeSent}
}
