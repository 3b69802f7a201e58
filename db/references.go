package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ReferenceRepository provides CRUD operations for the reference_images
// table. A reference with a NULL title_id is user-global: it participates
// in renders for every title the user owns.
type ReferenceRepository struct {
	db *Database
}

// NewReferenceRepository creates a ReferenceRepository backed by the given database.
func NewReferenceRepository(database *Database) *ReferenceRepository {
	return &ReferenceRepository{db: database}
}

// Create inserts a reference image and returns its ID.
// Pass titleID of 0 for a user-global reference.
func (r *ReferenceRepository) Create(ctx context.Context, userID, titleID int64, imageData, description string) (int64, error) {
	var titleArg interface{}
	if titleID != 0 {
		titleArg = titleID
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reference_images (user_id, title_id, image_data, description) VALUES (?, ?, ?, ?)`,
		userID, titleArg, imageData, nullString(description),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reference image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a reference image owned by the user.
func (r *ReferenceRepository) GetByID(ctx context.Context, id, userID int64) (*ReferenceImage, error) {
	query := referenceSelect + ` WHERE id = ? AND user_id = ?`

	ref, err := scanReference(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reference image: %w", err)
	}
	return ref, nil
}

// ListForTitle retrieves the references that apply to a render for the
// given title: title-scoped ones plus the user's global ones, oldest first
// so snapshot ordering is stable.
func (r *ReferenceRepository) ListForTitle(ctx context.Context, userID, titleID int64) ([]ReferenceImage, error) {
	query := referenceSelect + `
		WHERE user_id = ? AND (title_id = ? OR title_id IS NULL)
		ORDER BY id ASC`

	return r.list(ctx, query, userID, titleID)
}

// ListByUser retrieves all of the user's references, newest first.
func (r *ReferenceRepository) ListByUser(ctx context.Context, userID int64) ([]ReferenceImage, error) {
	query := referenceSelect + ` WHERE user_id = ? ORDER BY id DESC`
	return r.list(ctx, query, userID)
}

// GetByIDs retrieves references by primary key regardless of owner.
// Used to build the reference data map for status responses, where the IDs
// come from painting snapshots. Missing IDs are silently skipped: a
// snapshot may name references deleted since the render.
func (r *ReferenceRepository) GetByIDs(ctx context.Context, ids []int64) ([]ReferenceImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := referenceSelect + ` WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.list(ctx, query, args...)
}

// Delete removes a reference image. Returns ErrNotFound if no owned row
// matched. Painting snapshots that name this reference are unaffected.
func (r *ReferenceRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reference_images WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reference image: %w", err)
	}
	return requireRowAffected(result, "delete reference image")
}

const referenceSelect = `
	SELECT id, user_id, COALESCE(title_id, 0), image_data, COALESCE(description, ''), created_at
	FROM reference_images`

func (r *ReferenceRepository) list(ctx context.Context, query string, args ...interface{}) ([]ReferenceImage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference images: %w", err)
	}
	defer rows.Close()

	var refs []ReferenceImage
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference image row: %w", err)
		}
		refs = append(refs, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference image rows: %w", err)
	}

	return refs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReference(row rowScanner) (*ReferenceImage, error) {
	var ref ReferenceImage
	var createdAt string
	err := row.Scan(
		&ref.ID,
		&ref.UserID,
		&ref.TitleID,
		&ref.ImageData,
		&ref.Description,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	ref.CreatedAt = parseSQLiteTime(createdAt)
	return &ref, nil
}

// nullString converts an empty string to NULL for optional columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
