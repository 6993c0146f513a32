package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUserEmailEmpty is returned when a user's email is empty.
	ErrUserEmailEmpty = errors.New("user email cannot be empty")
)

// NotificationPreferences is the explicit, enumerated set of notification
// channels a user can toggle. A missing stored value decodes to the default
// (all channels enabled) rather than being treated as "all off".
type NotificationPreferences struct {
	Reminders     bool `json:"reminders"`
	DailyDigest   bool `json:"daily_digest"`
	OverdueAlerts bool `json:"overdue_alerts"`
}

// DefaultNotificationPreferences returns the preferences applied when a user
// has never configured notifications.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Reminders:     true,
		DailyDigest:   true,
		OverdueAlerts: true,
	}
}

// User represents a task owner as seen by the reminder subsystem.
// Authentication and profile management belong to the surrounding service;
// only identity, contact address, and notification preferences matter here.
type User struct {
	ID          uuid.UUID               `json:"id"`
	Email       string                  `json:"email"`
	DisplayName string                  `json:"display_name"`
	Preferences NotificationPreferences `json:"preferences"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NewUser creates a new User with the given email and display name and the
// default notification preferences. Returns an error if validation fails.
func NewUser(email, displayName string) (*User, error) {
	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		Preferences: DefaultNotificationPreferences(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrUserEmailEmpty
	}

	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}

	return nil
}
