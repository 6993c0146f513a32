// Package scheduler provides the periodic trigger that drives the reminder
// scan and the daily digest. It is an explicit component with a
// Start/Stop lifecycle and an injected clock; nothing registers jobs
// through package-level state.
package scheduler
