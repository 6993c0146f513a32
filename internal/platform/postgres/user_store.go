package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tasknest/reminderd/internal/domain"
	"github.com/tasknest/reminderd/internal/platform/logger"
	"github.com/tasknest/reminderd/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db store.DBTX
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{
		db: db,
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)


// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal notification preferences: %w", err)
	}

	query := `
		INSERT INTO users (id, email, display_name, notification_preferences, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		prefs,
		user.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("email already registered",
				"user_id", user.ID)
			return fmt.Errorf("%w: email already registered", store.ErrDuplicate)
		}
		log.Error("failed to create user",
			"user_id", user.ID,
			"error", err)
		return MapError(fmt.Errorf("failed to create user: %w", err))
	}

	return nil
}

// GetByID implements store.UserStore.GetByID. A user row with NULL
// preferences decodes to the default preferences, never to "all off".
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, display_name, notification_preferences, created_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	var prefs []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&prefs,
		&user.CreatedAt,
	)
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get user: %w", err))
	}

	user.Preferences = domain.DefaultNotificationPreferences()
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &user.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification preferences: %w", err)
		}
	}

	return &user, nil
}

// ListActiveIDs implements store.UserStore.ListActiveIDs
func (s *PostgresUserStore) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContext(ctx)

	query := `SELECT id FROM users`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list user IDs", "error", err)
		return nil, MapError(fmt.Errorf("failed to list user IDs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("failed to iterate user IDs: %w", err))
	}

	return ids, nil
}
