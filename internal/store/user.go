package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
)

// UserStore defines the interface for user data persistence.
// The reminder subsystem only resolves task owners and enumerates digest
// recipients; account management lives in the surrounding service.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrDuplicate if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist. Users with no
	// stored preferences are returned with the default preferences.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListActiveIDs returns the IDs of all users eligible for digest
	// fan-out, in unspecified order.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}
