package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/notify"
	"github.com/tasknest/reminderd/internal/store"
)

// DigestReport summarizes one digest fan-out cycle.
type DigestReport struct {
	Attempted     int   `json:"attempted"`
	Digests       int   `json:"digests"`
	OverdueAlerts int   `json:"overdue_alerts"`
	Skipped       int   `json:"skipped"`
	Failed        int   `json:"failed"`
	DurationMs    int64 `json:"duration_ms"`
}

// LogValue implements slog.LogValuer so reports log as structured groups.
func (r DigestReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("attempted", r.Attempted),
		slog.Int("digests", r.Digests),
		slog.Int("overdue_alerts", r.OverdueAlerts),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed),
		slog.Int64("duration_ms", r.DurationMs),
	)
}

// RunDigestCycle computes and delivers a daily digest for every eligible
// user as of the given snapshot instant. Per-user failures are contained:
// one user's bad day never blocks another user's digest. Only a store-wide
// failure (cannot enumerate users at all) aborts the cycle, and that abort
// is non-fatal to the process.
func (a *Aggregator) RunDigestCycle(ctx context.Context, now time.Time) (DigestReport, error) {
	start := time.Now()
	var report DigestReport
	defer func() { report.DurationMs = time.Since(start).Milliseconds() }()

	userIDs, err := a.users.ListActiveIDs(ctx)
	if err != nil {
		if store.IsUnavailable(err) {
			a.logger.Warn("store unavailable, skipping digest cycle", "error", err)
		} else {
			a.logger.Error("failed to list users for digest", "error", err)
		}
		return report, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		report.Attempted++
		a.digestOne(ctx, userID, now, &report)
	}

	a.logger.Info("digest cycle complete", slog.Any("report", report))
	return report, nil
}

// digestOne handles a single user's digest, folding the outcome into the
// report.
func (a *Aggregator) digestOne(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	report *DigestReport,
) {
	log := a.logger.With(slog.String("user_id", userID.String()))

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		log.Error("failed to load user for digest", "error", err)
		report.Failed++
		return
	}

	if !user.Preferences.DailyDigest && !user.Preferences.OverdueAlerts {
		report.Skipped++
		return
	}

	summary, err := a.Summarize(ctx, userID, now)
	if err != nil {
		log.Error("failed to summarize user tasks", "error", err)
		report.Failed++
		return
	}

	delivered := false

	if user.Preferences.DailyDigest {
		if err := a.notifier.Notify(ctx, user, notify.KindDailyDigest, notify.DigestPayload(summary)); err != nil {
			log.Error("digest delivery failed", "error", err)
			report.Failed++
			return
		}
		report.Digests++
		delivered = true
	}

	if user.Preferences.OverdueAlerts && summary.Overdue > 0 {
		if err := a.notifier.Notify(ctx, user, notify.KindOverdueAlert, notify.DigestPayload(summary)); err != nil {
			log.Error("overdue alert delivery failed", "error", err)
			report.Failed++
			return
		}
		report.OverdueAlerts++
		delivered = true
	}

	if !delivered {
		report.Skipped++
	}
}
