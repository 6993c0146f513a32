package reminder

import "log/slog"

// Outcome classifies the result of dispatching a single due reminder.
type Outcome string

// Possible dispatch outcomes
const (
	// OutcomeSent means the notification was delivered and the reminder
	// marked sent.
	OutcomeSent Outcome = "sent"

	// OutcomeAlreadyHandled means no further work is needed: the reminder
	// was marked sent by a concurrent dispatch, the task was edited while
	// the notification was in flight, or the owner has the channel
	// disabled and the reminder was suppressed.
	OutcomeAlreadyHandled Outcome = "already_handled"

	// OutcomeSkipped means the task was not actionable this cycle (owner
	// missing, channel disabled without suppression) and produced no
	// notification.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means delivery failed; the reminder stays unsent and
	// is retried on the next cycle.
	OutcomeFailed Outcome = "failed"
)

// Result is the per-task unit the cycle report accumulates. Failures are
// carried as values rather than raised, so one task's error never aborts the
// cycle for the others.
type Result struct {
	Outcome Outcome
	Err     error
}

// CycleReport summarizes one scan cycle. It is the unit the scheduler logs
// and tests assert against.
type CycleReport struct {
	Attempted  int   `json:"attempted"`
	Sent       int   `json:"sent"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// record folds one dispatch result into the report.
func (r *CycleReport) record(res Result) {
	r.Attempted++
	switch res.Outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeFailed:
		r.Failed++
	case OutcomeAlreadyHandled, OutcomeSkipped:
		r.Skipped++
	}
}

// LogValue implements slog.LogValuer so reports log as structured groups.
func (r CycleReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("attempted", r.Attempted),
		slog.Int("sent", r.Sent),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed),
		slog.Int64("duration_ms", r.DurationMs),
	)
}
