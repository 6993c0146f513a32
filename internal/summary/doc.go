// Package summary computes per-user task rollups (counts by status, overdue
// and due-today sets, upcoming window) and drives the daily digest cycle.
// Aggregation is read-only with respect to reminder state: every window is
// derived from a single snapshot instant in one configured reference
// location, so the two bounds of a day can never straddle midnight in
// different clocks.
package summary
