package notify

import (
	"context"
	"log/slog"

	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/platform/logger"
)

// LogNotifier is a Notifier that records every notification as a structured
// log line. It is the default wiring for local runs and operational testing;
// production deployments inject the real email transport in its place.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LogNotifier")
	}
	return &LogNotifier{
		logger: logger.With(slog.String("component", "log_notifier")),
	}
}

// Ensure LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)

// Notify implements Notifier by logging the notification.
func (n *LogNotifier) Notify(
	ctx context.Context,
	recipient *domain.User,
	kind Kind,
	payload Payload,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attrs := []any{
		"recipient", recipient.Email,
		"kind", string(kind),
	}
	if payload.Title != "" {
		attrs = append(attrs, "task_title", payload.Title, "task_id", payload.TaskID)
	}
	if payload.Summary != nil {
		attrs = append(attrs,
			"total_tasks", payload.Summary.TotalTasks,
			"overdue", payload.Summary.Overdue,
			"due_today", payload.Summary.DueToday,
			"completion_rate", payload.Summary.CompletionRate)
	}

	// Prefer a request-scoped logger when the caller carries one, so
	// deliveries triggered by an admin request keep its correlation
	// attributes.
	log := logger.FromContextOrDefault(ctx, n.logger)
	log.InfoContext(ctx, "notification delivered", attrs...)
	return nil
}
