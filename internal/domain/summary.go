package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// UpcomingTask is the slice of task fields a digest surfaces for tasks due
// in the near future.
type UpcomingTask struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	Priority Priority  `json:"priority"`
}

// Summary is a point-in-time per-user rollup of task state. It is computed
// on demand from a single snapshot instant and never persisted.
type Summary struct {
	UserID         uuid.UUID      `json:"user_id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	TotalTasks     int            `json:"total_tasks"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	Overdue        int            `json:"overdue"`
	DueToday       int            `json:"due_today"`
	Upcoming       []UpcomingTask `json:"upcoming"`
	CompletionRate int            `json:"completion_rate"`
}

// CompletionRate computes the percentage of completed tasks, rounded to the
// nearest integer. A zero total yields zero rather than dividing by zero.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
