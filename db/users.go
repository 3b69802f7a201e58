package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by lookup methods when no row matches.
var ErrNotFound = errors.New("db: not found")

// ErrDuplicate is returned when an insert violates a UNIQUE constraint.
var ErrDuplicate = errors.New("db: duplicate")

// UserRepository provides CRUD operations for the users table.
type UserRepository struct {
	db *Database
}

// NewUserRepository creates a UserRepository backed by the given database.
func NewUserRepository(database *Database) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user and returns its ID.
// The username and email UNIQUE constraints surface as errors here.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("failed to insert user: %w", ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a user by primary key. Returns ErrNotFound if missing.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email. Returns ErrNotFound if missing.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg interface{}) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + where

	var u User
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt = parseSQLiteTime(createdAt)
	return &u, nil
}
