package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status write finds the painting
// in a state the transition is not allowed from. The state machine is
// strictly monotonic: pending -> processing -> completed or failed.
var ErrInvalidTransition = errors.New("db: invalid painting status transition")

// MaxErrorMessageLen caps stored failure messages.
const MaxErrorMessageLen = 255

// PaintingRepository provides operations for the paintings table.
// Status transitions are guarded in SQL so that a write racing a
// concurrent transition can never skip or revert a state.
type PaintingRepository struct {
	db *Database
}

// NewPaintingRepository creates a PaintingRepository backed by the given database.
func NewPaintingRepository(database *Database) *PaintingRepository {
	return &PaintingRepository{db: database}
}

// CreatePending inserts a pending painting for the idea and returns its ID.
// Called immediately after idea persistence, before any render work, so
// status polls observe the painting from the moment the batch returns.
func (r *PaintingRepository) CreatePending(ctx context.Context, ideaID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO paintings (idea_id, status) VALUES (?, ?)`,
		ideaID, StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert painting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// MarkProcessing transitions a painting from pending to processing.
// Returns ErrInvalidTransition if the painting was not pending.
func (r *PaintingRepository) MarkProcessing(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE paintings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		StatusProcessing, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark painting processing: %w", err)
	}
	return requireTransition(result)
}

// MarkCompleted transitions a painting from processing to completed,
// storing the image URL, the base64 payload, and the JSON snapshot of the
// reference IDs that were supplied to the image call. An empty snapshot
// means no references were used and is stored as NULL.
// Returns ErrInvalidTransition if the painting was not processing.
func (r *PaintingRepository) MarkCompleted(ctx context.Context, id int64, imageURL, imageData, usedReferenceIDs string) error {
	var snapshot any
	if usedReferenceIDs != "" {
		snapshot = usedReferenceIDs
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE paintings
		 SET status = ?, image_url = ?, image_data = ?, used_reference_ids = ?,
		     error_message = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		StatusCompleted, imageURL, imageData, snapshot, id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark painting completed: %w", err)
	}
	return requireTransition(result)
}

// MarkFailed transitions a painting from processing to failed, recording a
// truncated failure message. No image fields are written.
// Returns ErrInvalidTransition if the painting was not processing.
func (r *PaintingRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	if len(message) > MaxErrorMessageLen {
		message = message[:MaxErrorMessageLen]
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE paintings
		 SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		StatusFailed, message, id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark painting failed: %w", err)
	}
	return requireTransition(result)
}

// GetByID retrieves a painting by primary key.
func (r *PaintingRepository) GetByID(ctx context.Context, id int64) (*Painting, error) {
	query := paintingSelect + ` WHERE id = ?`

	p, err := scanPainting(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query painting: %w", err)
	}
	return p, nil
}

// ListByTitle retrieves the paintings for an owned title joined with their
// idea text, newest first. Returns an empty slice when the title has no
// paintings yet.
func (r *PaintingRepository) ListByTitle(ctx context.Context, titleID, userID int64) ([]PaintingView, error) {
	query := `
		SELECT p.id, p.idea_id, p.status,
		       COALESCE(p.image_url, ''), COALESCE(p.image_data, ''),
		       COALESCE(p.error_message, ''), COALESCE(p.used_reference_ids, ''),
		       p.created_at, p.updated_at,
		       i.summary, i.full_prompt, t.title, t.id
		FROM paintings p
		JOIN ideas i ON i.id = p.idea_id
		JOIN titles t ON t.id = i.title_id
		WHERE t.id = ? AND t.user_id = ?
		ORDER BY p.id DESC`

	rows, err := r.db.QueryContext(ctx, query, titleID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paintings: %w", err)
	}
	defer rows.Close()

	views := []PaintingView{}
	for rows.Next() {
		var v PaintingView
		var createdAt, updatedAt string
		err := rows.Scan(
			&v.ID, &v.IdeaID, &v.Status,
			&v.ImageURL, &v.ImageData,
			&v.ErrorMessage, &v.UsedReferenceIDs,
			&createdAt, &updatedAt,
			&v.Summary, &v.FullPrompt, &v.TitleText, &v.TitleID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan painting row: %w", err)
		}
		v.CreatedAt = parseSQLiteTime(createdAt)
		v.UpdatedAt = parseSQLiteTime(updatedAt)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating painting rows: %w", err)
	}

	return views, nil
}

const paintingSelect = `
	SELECT id, idea_id, status,
	       COALESCE(image_url, ''), COALESCE(image_data, ''),
	       COALESCE(error_message, ''), COALESCE(used_reference_ids, ''),
	       created_at, updated_at
	FROM paintings`

func scanPainting(row rowScanner) (*Painting, error) {
	var p Painting
	var createdAt, updatedAt string
	err := row.Scan(
		&p.ID, &p.IdeaID, &p.Status,
		&p.ImageURL, &p.ImageData,
		&p.ErrorMessage, &p.UsedReferenceIDs,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseSQLiteTime(createdAt)
	p.UpdatedAt = parseSQLiteTime(updatedAt)
	return &p, nil
}

func requireTransition(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}
