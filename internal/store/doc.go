// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the reminder subsystem's core logic, allowing scan, dispatch, and
// summary rules to remain independent of specific database technologies.
package store
