package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newArmedTask builds a task owned by owner with a reminder armed for remindAt.
func newArmedTask(t *testing.T, owner uuid.UUID, remindAt time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, "water the plants")
	require.NoError(t, err)
	task.SetReminder(remindAt)
	return task
}

func newTestUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("ada@example.com", "Ada")
	require.NoError(t, err)
	return user
}

func newTestDispatcher(
	t *testing.T,
	tasks *MockTaskStore,
	users *MockUserStore,
	notifier notify.Notifier,
	config DispatcherConfig,
) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(tasks, users, notifier, config, testLogger())
	require.NoError(t, err)
	return d
}

func TestNewDispatcher_Validation(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()
	cfg := DefaultDispatcherConfig()

	_, err := NewDispatcher(nil, users, notifier, cfg, testLogger())
	assert.ErrorIs(t, err, ErrNilTaskStore)

	_, err = NewDispatcher(tasks, nil, notifier, cfg, testLogger())
	assert.ErrorIs(t, err, ErrNilUserStore)

	_, err = NewDispatcher(tasks, users, nil, cfg, testLogger())
	assert.ErrorIs(t, err, ErrNilNotifier)

	_, err = NewDispatcher(tasks, users, notifier, cfg, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestDispatch_SendsAndMarks(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	users.Put(user)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, notifier.CallsForTask(task.ID))
	assert.True(t, tasks.Get(task.ID).Reminder.Sent, "reminder should be marked sent after delivery")

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, notify.KindReminder, calls[0].Kind)
	assert.Equal(t, task.Title, calls[0].Payload.Title)
	assert.Equal(t, user.ID, calls[0].Recipient)
}

func TestDispatch_DeliveryFailureLeavesTaskEligible(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	users.Put(user)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)
	notifier.FailFor[task.ID] = errors.New("smtp gateway down")

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.False(t, tasks.Get(task.ID).Reminder.Sent,
		"failed delivery must not mark the reminder sent")

	// Once the transport recovers, the next attempt delivers and marks.
	delete(notifier.FailFor, task.ID)
	res = d.Dispatch(context.Background(), tasks.Get(task.ID))
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.True(t, tasks.Get(task.ID).Reminder.Sent)
}

func TestDispatch_ConcurrentEditLosesCompareAndSwap(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	users.Put(user)
	remindAt := time.Now().UTC().Add(-time.Minute)
	task := newArmedTask(t, user.ID, remindAt)
	tasks.Put(task)

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	// Simulate an edit landing while the notification is in flight: the
	// stored remind-at moves, so the captured value no longer matches.
	snapshot := tasks.Get(task.ID)
	newAt := remindAt.Add(time.Hour)
	require.NoError(t, tasks.UpdateReminder(context.Background(), task.ID,
		domain.ReminderState{Enabled: true, RemindAt: &newAt}))

	res := d.Dispatch(context.Background(), snapshot)

	assert.Equal(t, OutcomeAlreadyHandled, res.Outcome)
	assert.Equal(t, 1, notifier.CallsForTask(task.ID), "the user was still notified once")
	assert.False(t, tasks.Get(task.ID).Reminder.Sent,
		"the edited reminder keeps its own unsent state for the new instant")
}

func TestDispatch_UnarmedReminderSkips(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	users.Put(user)

	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	task.Reminder.RemindAt = nil
	tasks.Put(task)

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrReminderNotArmed)
	assert.Empty(t, notifier.Calls())
}

func TestDispatch_OwnerNotFoundSkips(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	task := newArmedTask(t, uuid.New(), time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Empty(t, notifier.Calls())
	assert.False(t, tasks.Get(task.ID).Reminder.Sent)
}

func TestDispatch_OwnerStoreErrorFails(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)
	users.GetFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
		return nil, store.ErrStoreUnavailable
	}

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, store.ErrStoreUnavailable)
	assert.Empty(t, notifier.Calls())
}

func TestDispatch_DisabledChannelSuppresses(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	user.Preferences.Reminders = false
	users.Put(user)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)

	d := newTestDispatcher(t, tasks, users, notifier, DefaultDispatcherConfig())

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeAlreadyHandled, res.Outcome)
	assert.Empty(t, notifier.Calls(), "a disabled channel must not be notified")

	stored := tasks.Get(task.ID)
	assert.False(t, stored.Reminder.Enabled,
		"suppression disables the reminder so it stops being rescanned")
	assert.False(t, stored.Reminder.Sent,
		"nothing was delivered, so the reminder is not marked sent")

	// The task no longer appears in due scans.
	due, err := tasks.FindDueReminders(context.Background(), time.Now().UTC(), 0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDispatch_DisabledChannelWithoutSuppression(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()

	user := newTestUser(t)
	user.Preferences.Reminders = false
	users.Put(user)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)

	cfg := DefaultDispatcherConfig()
	cfg.SuppressDisabledChannel = false
	d := newTestDispatcher(t, tasks, users, notifier, cfg)

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.True(t, tasks.Get(task.ID).Reminder.Enabled,
		"without suppression the reminder stays armed for re-evaluation")
}

func TestDispatch_NotifierTimeoutFails(t *testing.T) {
	t.Parallel()

	tasks := NewMockTaskStore()
	users := NewMockUserStore()
	notifier := NewMockNotifier()
	notifier.Delay = 200 * time.Millisecond

	user := newTestUser(t)
	users.Put(user)
	task := newArmedTask(t, user.ID, time.Now().UTC().Add(-time.Minute))
	tasks.Put(task)

	cfg := DefaultDispatcherConfig()
	cfg.Timeout = 20 * time.Millisecond
	d := newTestDispatcher(t, tasks, users, notifier, cfg)

	res := d.Dispatch(context.Background(), task)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.False(t, tasks.Get(task.ID).Reminder.Sent,
		"a hung notifier counts as delivery failure and stays retryable")
}
