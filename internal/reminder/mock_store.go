package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/store"
)

// MockTaskStore implements the store.TaskStore interface for testing.
// MarkReminderSent performs a real mutex-guarded compare-and-swap so
// concurrency properties can be exercised against it.
type MockTaskStore struct {
	mutex sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	// MarkAttempts counts every MarkReminderSent call, applied or not.
	MarkAttempts int

	// FindFn, when set, overrides FindDueReminders.
	FindFn func(ctx context.Context, asOf time.Time, lookahead time.Duration) ([]*domain.Task, error)

	// MarkFn, when set, overrides MarkReminderSent.
	MarkFn func(ctx context.Context, taskID uuid.UUID, expectedRemindAt time.Time) (bool, error)
}

// NewMockTaskStore creates a new MockTaskStore
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// Ensure MockTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*MockTaskStore)(nil)

// Put seeds a task into the mock store.
func (s *MockTaskStore) Put(task *domain.Task) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
}

// Get returns the stored task, or nil when absent.
func (s *MockTaskStore) Get(id uuid.UUID) *domain.Task {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil
	}
	copied := *task
	return &copied
}

// Create stores a new task
func (s *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.Put(task)
	return nil
}

// GetByID retrieves a task by ID
func (s *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task := s.Get(id)
	if task == nil {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// FindDueReminders returns armed, eligible tasks due within asOf+lookahead
func (s *MockTaskStore) FindDueReminders(
	ctx context.Context,
	asOf time.Time,
	lookahead time.Duration,
) ([]*domain.Task, error) {
	if s.FindFn != nil {
		return s.FindFn(ctx, asOf, lookahead)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var due []*domain.Task
	for _, task := range s.tasks {
		if task.ReminderEligible() && task.Reminder.Due(asOf, lookahead) {
			copied := *task
			due = append(due, &copied)
		}
	}
	return due, nil
}

// MarkReminderSent performs the compare-and-swap under the store mutex,
// mirroring the atomicity of the single-statement UPDATE in the real store.
func (s *MockTaskStore) MarkReminderSent(
	ctx context.Context,
	taskID uuid.UUID,
	expectedRemindAt time.Time,
) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.MarkAttempts++

	if s.MarkFn != nil {
		return s.MarkFn(ctx, taskID, expectedRemindAt)
	}

	task, ok := s.tasks[taskID]
	if !ok {
		return false, nil
	}
	if task.Reminder.Sent || task.Reminder.RemindAt == nil {
		return false, nil
	}
	if !task.Reminder.RemindAt.Equal(expectedRemindAt) {
		return false, nil
	}

	task.Reminder.Sent = true
	task.LastModified = time.Now().UTC()
	return true, nil
}

// UpdateReminder replaces the reminder sub-record, resetting Sent when the
// remind-at changes
func (s *MockTaskStore) UpdateReminder(
	ctx context.Context,
	taskID uuid.UUID,
	reminder domain.ReminderState,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}

	sameInstant := task.Reminder.RemindAt != nil && reminder.RemindAt != nil &&
		task.Reminder.RemindAt.Equal(*reminder.RemindAt)
	if !sameInstant {
		reminder.Sent = false
	}
	task.Reminder = reminder
	task.LastModified = time.Now().UTC()
	return nil
}

// DisableReminder switches the reminder off
func (s *MockTaskStore) DisableReminder(ctx context.Context, taskID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Reminder.Enabled = false
	task.LastModified = time.Now().UTC()
	return nil
}

// CountByStatus counts the user's non-archived tasks per status
func (s *MockTaskStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskStatus]int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	counts := make(map[domain.TaskStatus]int)
	for _, task := range s.tasks {
		if task.UserID == userID && !task.Archived {
			counts[task.Status]++
		}
	}
	return counts, nil
}

// CountOverdue counts still-actionable tasks due before the given instant
func (s *MockTaskStore) CountOverdue(
	ctx context.Context,
	userID uuid.UUID,
	before time.Time,
) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, task := range s.tasks {
		if task.UserID == userID && task.Overdue(before) {
			count++
		}
	}
	return count, nil
}

// FindByDueWindow returns non-archived tasks due within [start, end]
func (s *MockTaskStore) FindByDueWindow(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var tasks []*domain.Task
	for _, task := range s.tasks {
		if task.UserID != userID || task.Archived || task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(start) || task.DueDate.After(end) {
			continue
		}
		copied := *task
		tasks = append(tasks, &copied)
	}
	sortTasksByDueDate(tasks)
	return tasks, nil
}


func sortTasksByDueDate(tasks []*domain.Task) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].DueDate.Before(*tasks[j-1].DueDate); j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

// MockUserStore implements the store.UserStore interface for testing
type MockUserStore struct {
	mutex sync.RWMutex
	users map[uuid.UUID]*domain.User

	// GetFn, when set, overrides GetByID.
	GetFn func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// NewMockUserStore creates a new MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[uuid.UUID]*domain.User),
	}
}

// Ensure MockUserStore implements store.UserStore interface
var _ store.UserStore = (*MockUserStore)(nil)

// Put seeds a user into the mock store.
func (s *MockUserStore) Put(user *domain.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := *user
	s.users[user.ID] = &copied
}

// Create stores a new user
func (s *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	s.Put(user)
	return nil
}

// GetByID retrieves a user by ID
func (s *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// ListActiveIDs returns all stored user IDs
func (s *MockUserStore) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}


// MockNotifier implements notify.Notifier for testing, recording every call
// and optionally failing selected tasks.
type MockNotifier struct {
	mutex sync.Mutex
	calls []NotifierCall

	// FailFor holds task IDs whose deliveries should fail.
	FailFor map[uuid.UUID]error

	// Delay, when non-zero, makes every delivery block for the duration or
	// until the context expires.
	Delay time.Duration
}

// NotifierCall records one delivery attempt.
type NotifierCall struct {
	Recipient uuid.UUID
	Kind      notify.Kind
	Payload   notify.Payload
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		FailFor: make(map[uuid.UUID]error),
	}
}

// Ensure MockNotifier implements notify.Notifier
var _ notify.Notifier = (*MockNotifier)(nil)

// Notify records the call and applies the configured failure or delay.
func (n *MockNotifier) Notify(
	ctx context.Context,
	recipient *domain.User,
	kind notify.Kind,
	payload notify.Payload,
) error {
	if n.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.Delay):
		}
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.calls = append(n.calls, NotifierCall{
		Recipient: recipient.ID,
		Kind:      kind,
		Payload:   payload,
	})

	if err, ok := n.FailFor[payload.TaskID]; ok {
		return err
	}
	return nil
}

// Calls returns a snapshot of recorded deliveries.
func (n *MockNotifier) Calls() []NotifierCall {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	out := make([]NotifierCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// CallsForTask returns the number of deliveries recorded for the given task.
func (n *MockNotifier) CallsForTask(taskID uuid.UUID) int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	count := 0
	for _, call := range n.calls {
		if call.Payload.TaskID == taskID {
			count++
		}
	}
	return count
}
