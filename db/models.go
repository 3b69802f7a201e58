package db

import "time"

// Painting status values. A painting moves pending -> processing and then
// to exactly one of completed or failed. Terminal states never change.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// User represents a record in the users table.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Title represents a record in the titles table: a user-owned subject
// that ideas and paintings are generated for. Instructions is free-form
// steering text fed into every idea generation for the title; empty means
// none (NULL in the database).
type Title struct {
	ID           int64
	UserID       int64
	Title        string
	Instructions string
	CreatedAt    time.Time
}

// ReferenceImage represents a record in the reference_images table.
// TitleID of 0 (NULL in the database) means the reference is user-global
// and applies to every title the user owns.
type ReferenceImage struct {
	ID          int64
	UserID      int64
	TitleID     int64 // 0 = user-global
	ImageData   string
	Description string
	CreatedAt   time.Time
}

// Idea represents a record in the ideas table: one textual painting concept
// produced by the concept service.
type Idea struct {
	ID         int64
	TitleID    int64
	Summary    string
	FullPrompt string
	CreatedAt  time.Time
}

// Painting represents a record in the paintings table: the render state and
// result for one idea. UsedReferenceIDs is a JSON array snapshot of the
// reference image IDs supplied to the image call, kept even if those
// references are later deleted.
type Painting struct {
	ID               int64
	IdeaID           int64
	Status           string
	ImageURL         string
	ImageData        string
	ErrorMessage     string
	UsedReferenceIDs string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PaintingView is a painting joined with its idea and title text, as
// returned by status queries.
type PaintingView struct {
	Painting
	Summary    string
	FullPrompt string
	TitleText  string
	TitleID    int64
}

// parseSQLiteTime parses the DATETIME format SQLite stores for
// CURRENT_TIMESTAMP defaults. Falls back to the zero time on mismatch.
func parseSQLiteTime(s string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}
