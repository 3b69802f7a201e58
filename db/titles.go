package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TitleRepository provides CRUD operations for the titles table.
// All lookups are owner-scoped: a user can only see their own titles.
type TitleRepository struct {
	db *Database
}

// NewTitleRepository creates a TitleRepository backed by the given database.
func NewTitleRepository(database *Database) *TitleRepository {
	return &TitleRepository{db: database}
}

// Create inserts a new title for the user and returns its ID. Empty
// instructions are stored as NULL.
func (r *TitleRepository) Create(ctx context.Context, userID int64, title, instructions string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO titles (user_id, title, instructions) VALUES (?, ?, ?)`,
		userID, title, nullIfEmpty(instructions),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert title: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a title owned by the user. Returns ErrNotFound if the
// title doesn't exist or belongs to someone else.
func (r *TitleRepository) GetByID(ctx context.Context, id, userID int64) (*Title, error) {
	var t Title
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, COALESCE(instructions, ''), created_at
		 FROM titles WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Instructions, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query title: %w", err)
	}

	t.CreatedAt = parseSQLiteTime(createdAt)
	return &t, nil
}

// ListByUser retrieves all titles owned by the user, newest first.
func (r *TitleRepository) ListByUser(ctx context.Context, userID int64) ([]Title, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, COALESCE(instructions, ''), created_at
		 FROM titles WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var titles []Title
	for rows.Next() {
		var t Title
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Instructions, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		t.CreatedAt = parseSQLiteTime(createdAt)
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title rows: %w", err)
	}

	return titles, nil
}

// Update changes the title text and instructions. Returns ErrNotFound if
// no owned row matched.
func (r *TitleRepository) Update(ctx context.Context, id, userID int64, title, instructions string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE titles SET title = ?, instructions = ? WHERE id = ? AND user_id = ?`,
		title, nullIfEmpty(instructions), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return requireRowAffected(result, "update title")
}

// Delete removes a title. Ideas, paintings and title-scoped references
// cascade via foreign keys. Returns ErrNotFound if no owned row matched.
func (r *TitleRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM titles WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return requireRowAffected(result, "delete title")
}

// nullIfEmpty maps the empty string to a SQL NULL write.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// requireRowAffected converts a zero-row write into ErrNotFound.
func requireRowAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
