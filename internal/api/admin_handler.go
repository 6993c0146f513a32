package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/reminder"
	"github.com/tasknest/reminderd/internal/store"
	"github.com/tasknest/reminderd/internal/summary"
)

// CycleRunner runs one reminder cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (reminder.CycleReport, error)
}

// DigestRunner runs one digest cycle on demand.
type DigestRunner interface {
	RunDigestCycle(ctx context.Context, now time.Time) (summary.DigestReport, error)
}

// Summarizer computes a single user's summary on demand.
type Summarizer interface {
	Summarize(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Summary, error)
}

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdminHandler handles operational requests: manual cycle triggers, user
// summaries, and health.
type AdminHandler struct {
	cycles     CycleRunner
	digests    DigestRunner
	summarizer Summarizer
	db         Pinger
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	cycles CycleRunner,
	digests DigestRunner,
	summarizer Summarizer,
	db Pinger,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		cycles:     cycles,
		digests:    digests,
		summarizer: summarizer,
		db:         db,
		logger:     logger.With(slog.String("component", "admin_handler")),
	}
}

// Routes mounts the handler's endpoints on a new chi router.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/admin/cycles/reminders", h.RunReminderCycle)
	r.Post("/admin/cycles/digests", h.RunDigestCycle)
	r.Get("/admin/users/{id}/summary", h.GetUserSummary)
	r.Get("/healthz", h.Health)
	return r
}

// RunReminderCycle handles POST /admin/cycles/reminders.
// It runs one scan cycle immediately and returns the cycle report.
func (h *AdminHandler) RunReminderCycle(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	report, err := h.cycles.RunCycle(r.Context(), now)
	if err != nil {
		h.logger.Error("manual reminder cycle failed", "error", err)
		if store.IsUnavailable(err) {
			RespondWithError(w, r, http.StatusServiceUnavailable, "Task store unavailable")
			return
		}
		RespondWithError(w, r, http.StatusInternalServerError, "Reminder cycle failed")
		return
	}

	h.logger.Info("manual reminder cycle complete", slog.Any("report", report))
	RespondWithJSON(w, r, http.StatusOK, report)
}

// RunDigestCycle handles POST /admin/cycles/digests.
func (h *AdminHandler) RunDigestCycle(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	report, err := h.digests.RunDigestCycle(r.Context(), now)
	if err != nil {
		h.logger.Error("manual digest cycle failed", "error", err)
		if store.IsUnavailable(err) {
			RespondWithError(w, r, http.StatusServiceUnavailable, "Task store unavailable")
			return
		}
		RespondWithError(w, r, http.StatusInternalServerError, "Digest cycle failed")
		return
	}

	h.logger.Info("manual digest cycle complete", slog.Any("report", report))
	RespondWithJSON(w, r, http.StatusOK, report)
}

// GetUserSummary handles GET /admin/users/{id}/summary.
func (h *AdminHandler) GetUserSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	result, err := h.summarizer.Summarize(r.Context(), userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to compute user summary",
			"user_id", userID,
			"error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Health handles GET /healthz. It reports 503 when the database cannot be
// pinged.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": "database unreachable",
			})
			return
		}
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
