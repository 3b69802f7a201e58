package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// setupTestDatabase creates a migrated database in a temp directory.
// The real migrations under db/migrations are used so the schema tested is
// the schema shipped.
func setupTestDatabase(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := NewDatabase(dbPath, "file://migrations")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}

// createTestUser inserts a user and returns its ID.
func createTestUser(t *testing.T, database *Database, username string) int64 {
	t.Helper()

	users := NewUserRepository(database)
	id, err := users.Create(context.Background(), username, username+"@example.com", "$2a$10$hash")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return id
}

func TestUserRepository(t *testing.T) {
	database := setupTestDatabase(t)
	users := NewUserRepository(database)
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		id, err := users.Create(ctx, "ada", "ada@example.com", "$2a$10$hash")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		byID, err := users.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if byID.Username != "ada" || byID.Email != "ada@example.com" {
			t.Errorf("unexpected user: %+v", byID)
		}

		byEmail, err := users.GetByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("GetByEmail failed: %v", err)
		}
		if byEmail.ID != id {
			t.Errorf("GetByEmail ID = %d, want %d", byEmail.ID, id)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		if _, err := users.Create(ctx, "ada2", "ada@example.com", "$2a$10$hash"); err == nil {
			t.Error("expected UNIQUE violation for duplicate email")
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := users.GetByID(ctx, 99999); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTitleRepository(t *testing.T) {
	database := setupTestDatabase(t)
	titles := NewTitleRepository(database)
	ctx := context.Background()

	owner := createTestUser(t, database, "owner")
	stranger := createTestUser(t, database, "stranger")

	titleID, err := titles.Create(ctx, owner, "Storm over a lighthouse", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("owner scoping", func(t *testing.T) {
		if _, err := titles.GetByID(ctx, titleID, owner); err != nil {
			t.Errorf("owner lookup failed: %v", err)
		}
		if _, err := titles.GetByID(ctx, titleID, stranger); !errors.Is(err, ErrNotFound) {
			t.Errorf("stranger lookup: expected ErrNotFound, got %v", err)
		}
		if err := titles.Delete(ctx, titleID, stranger); !errors.Is(err, ErrNotFound) {
			t.Errorf("stranger delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := titles.Update(ctx, titleID, owner, "Calm over a lighthouse", ""); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, err := titles.GetByID(ctx, titleID, owner)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Title != "Calm over a lighthouse" {
			t.Errorf("title = %q after update", got.Title)
		}
	})

	t.Run("instructions round-trip through NULL", func(t *testing.T) {
		id, err := titles.Create(ctx, owner, "Cliffs at dusk", "palette knife only")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		got, err := titles.GetByID(ctx, id, owner)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Instructions != "palette knife only" {
			t.Errorf("instructions = %q", got.Instructions)
		}

		if err := titles.Update(ctx, id, owner, "Cliffs at dusk", ""); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, err = titles.GetByID(ctx, id, owner)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Instructions != "" {
			t.Errorf("instructions after clear = %q", got.Instructions)
		}
	})

	t.Run("delete cascades to ideas and paintings", func(t *testing.T) {
		ideas := NewIdeaRepository(database)
		paintings := NewPaintingRepository(database)

		ideaID, err := ideas.Create(ctx, titleID, "a summary", "a full prompt")
		if err != nil {
			t.Fatalf("idea Create failed: %v", err)
		}
		paintingID, err := paintings.CreatePending(ctx, ideaID)
		if err != nil {
			t.Fatalf("CreatePending failed: %v", err)
		}

		if err := titles.Delete(ctx, titleID, owner); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := paintings.GetByID(ctx, paintingID); !errors.Is(err, ErrNotFound) {
			t.Errorf("painting survived title delete: %v", err)
		}
	})
}

func TestReferenceRepository(t *testing.T) {
	database := setupTestDatabase(t)
	titles := NewTitleRepository(database)
	refs := NewReferenceRepository(database)
	ctx := context.Background()

	owner := createTestUser(t, database, "painter")
	titleID, err := titles.Create(ctx, owner, "Village in winter", "")
	if err != nil {
		t.Fatalf("title Create failed: %v", err)
	}

	scopedID, err := refs.Create(ctx, owner, titleID, "data:image/png;base64,AAAA", "brush style")
	if err != nil {
		t.Fatalf("scoped Create failed: %v", err)
	}
	globalID, err := refs.Create(ctx, owner, 0, "data:image/png;base64,BBBB", "")
	if err != nil {
		t.Fatalf("global Create failed: %v", err)
	}

	t.Run("ListForTitle includes scoped and global", func(t *testing.T) {
		got, err := refs.ListForTitle(ctx, owner, titleID)
		if err != nil {
			t.Fatalf("ListForTitle failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d references, want 2", len(got))
		}
		// Oldest first: scoped was created before global
		if got[0].ID != scopedID || got[1].ID != globalID {
			t.Errorf("unexpected order: %d, %d", got[0].ID, got[1].ID)
		}
		if got[0].TitleID != titleID {
			t.Errorf("scoped TitleID = %d, want %d", got[0].TitleID, titleID)
		}
		if got[1].TitleID != 0 {
			t.Errorf("global TitleID = %d, want 0", got[1].TitleID)
		}
	})

	t.Run("ListForTitle excludes other titles", func(t *testing.T) {
		otherTitle, err := titles.Create(ctx, owner, "Harbor at dawn", "")
		if err != nil {
			t.Fatalf("title Create failed: %v", err)
		}
		got, err := refs.ListForTitle(ctx, owner, otherTitle)
		if err != nil {
			t.Fatalf("ListForTitle failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != globalID {
			t.Errorf("expected only the global reference, got %+v", got)
		}
	})

	t.Run("GetByIDs skips missing", func(t *testing.T) {
		got, err := refs.GetByIDs(ctx, []int64{scopedID, 424242})
		if err != nil {
			t.Fatalf("GetByIDs failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != scopedID {
			t.Errorf("GetByIDs = %+v", got)
		}
	})

	t.Run("GetByIDs empty input", func(t *testing.T) {
		got, err := refs.GetByIDs(ctx, nil)
		if err != nil {
			t.Fatalf("GetByIDs failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for empty input, got %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := refs.Delete(ctx, scopedID, owner); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := refs.GetByID(ctx, scopedID, owner); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestIdeaRepository(t *testing.T) {
	database := setupTestDatabase(t)
	titles := NewTitleRepository(database)
	ideas := NewIdeaRepository(database)
	ctx := context.Background()

	owner := createTestUser(t, database, "thinker")
	titleID, err := titles.Create(ctx, owner, "Forest interior", "")
	if err != nil {
		t.Fatalf("title Create failed: %v", err)
	}

	for _, s := range []string{"first", "second", "third"} {
		if _, err := ideas.Create(ctx, titleID, s, s+" prompt"); err != nil {
			t.Fatalf("Create %q failed: %v", s, err)
		}
	}

	t.Run("creation order preserved", func(t *testing.T) {
		summaries, err := ideas.ListSummariesByTitle(ctx, titleID)
		if err != nil {
			t.Fatalf("ListSummariesByTitle failed: %v", err)
		}
		want := []string{"first", "second", "third"}
		if len(summaries) != len(want) {
			t.Fatalf("got %d summaries, want %d", len(summaries), len(want))
		}
		for i := range want {
			if summaries[i] != want[i] {
				t.Errorf("summaries[%d] = %q, want %q", i, summaries[i], want[i])
			}
		}
	})

	t.Run("empty title", func(t *testing.T) {
		emptyTitle, err := titles.Create(ctx, owner, "Blank canvas", "")
		if err != nil {
			t.Fatalf("title Create failed: %v", err)
		}
		got, err := ideas.ListByTitle(ctx, emptyTitle)
		if err != nil {
			t.Fatalf("ListByTitle failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no ideas, got %d", len(got))
		}
	})
}
