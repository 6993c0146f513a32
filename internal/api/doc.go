// Package api provides the operational HTTP surface of the reminder
// subsystem: manual cycle triggers, on-demand user summaries, and a health
// check. The surrounding task-management service owns the user-facing HTTP
// API; nothing here is exposed to end users.
package api
