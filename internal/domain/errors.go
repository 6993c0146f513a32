package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidTaskStatus is returned when a task status is not one of the
	// known status values.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is not valid.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrReminderNotArmed is returned when an operation requires an armed
	// reminder but the task's reminder is disabled or has no remind-at time.
	ErrReminderNotArmed = errors.New("reminder is not armed")
)
