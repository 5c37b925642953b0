package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cenolover-auction-engine/internal/domain/shared"
)

// UserRepository implements the user repository interface
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new user repository
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Upsert creates the user on first interaction or refreshes the display name
func (r *UserRepository) Upsert(ctx context.Context, id int64, name string) error {
	query := `
		INSERT INTO users (user_id, user_name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*shared.User, error) {
	query := `
		SELECT user_id, user_name, warnings, banned_until, created_at
		FROM users
		WHERE user_id = $1
	`

	var user shared.User
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Warnings,
		&user.BannedUntil,
		&user.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// RecordWarning increments the warning counter and applies a ban once the
// threshold is reached. Read, increment and the ban decision run as one
// transaction with the user row locked.
func (r *UserRepository) RecordWarning(ctx context.Context, id int64, threshold int, banFor time.Duration) error {
	return r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var warnings int
		err := tx.QueryRowContext(ctx,
			`SELECT warnings FROM users WHERE user_id = $1 FOR UPDATE`, id,
		).Scan(&warnings)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user for warning: %w", err)
		}

		warnings++
		var bannedUntil *time.Time
		if warnings >= threshold {
			until := time.Now().Add(banFor)
			bannedUntil = &until
		}

		if bannedUntil != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET warnings = $2, banned_until = $3 WHERE user_id = $1`,
				id, warnings, bannedUntil,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET warnings = $2 WHERE user_id = $1`,
				id, warnings,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to record warning: %w", err)
		}

		return nil
	})
}
