package db

import (
	"context"
	"fmt"
)

// IdeaRepository provides operations for the ideas table.
type IdeaRepository struct {
	db *Database
}

// NewIdeaRepository creates an IdeaRepository backed by the given database.
func NewIdeaRepository(database *Database) *IdeaRepository {
	return &IdeaRepository{db: database}
}

// Create inserts an idea and returns its ID.
func (r *IdeaRepository) Create(ctx context.Context, titleID int64, summary, fullPrompt string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ideas (title_id, summary, full_prompt) VALUES (?, ?, ?)`,
		titleID, summary, fullPrompt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert idea: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// ListByTitle retrieves all ideas for a title in creation order.
// Creation order matters: summaries feed the anti-duplication digest for
// subsequent generations.
func (r *IdeaRepository) ListByTitle(ctx context.Context, titleID int64) ([]Idea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title_id, summary, full_prompt, created_at FROM ideas WHERE title_id = ? ORDER BY id ASC`,
		titleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var idea Idea
		var createdAt string
		if err := rows.Scan(&idea.ID, &idea.TitleID, &idea.Summary, &idea.FullPrompt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea row: %w", err)
		}
		idea.CreatedAt = parseSQLiteTime(createdAt)
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating idea rows: %w", err)
	}

	return ideas, nil
}

// ListSummariesByTitle retrieves only the summaries for a title in creation
// order. This is the digest input for the concept service.
func (r *IdeaRepository) ListSummariesByTitle(ctx context.Context, titleID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT summary FROM ideas WHERE title_id = ? ORDER BY id ASC`,
		titleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query idea summaries: %w", err)
	}
	defer rows.Close()

	var summaries []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return summaries, nil
}
