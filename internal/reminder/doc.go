// Package reminder implements the due-reminder scan and dispatch pipeline:
// a Scanner that periodically selects armed reminders that have fallen due,
// and a Dispatcher that delivers one notification per due reminder and marks
// it sent through a store-level compare-and-swap.
//
// Delivery is at-most-once per remind-at value. The dispatcher notifies
// first and marks second: a failed delivery leaves the task eligible for the
// next cycle, while a lost compare-and-swap after a successful delivery is a
// normal outcome (the task was edited or handled concurrently), never a
// reason to send again.
package reminder
