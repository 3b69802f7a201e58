package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"paintflow/db"
	"paintflow/logging"
)

type apiFixture struct {
	database *db.Database
	titles   *db.TitleRepository
	refs     *db.ReferenceRepository
	userID   int64
	otherID  int64
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "test.db"), "file://../db/migrations")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	users := db.NewUserRepository(database)
	userID, err := users.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("user create failed: %v", err)
	}
	otherID, err := users.Create(ctx, "bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("user create failed: %v", err)
	}

	return &apiFixture{
		database: database,
		titles:   db.NewTitleRepository(database),
		refs:     db.NewReferenceRepository(database),
		userID:   userID,
		otherID:  otherID,
	}
}

func apiLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(true, filepath.Join(t.TempDir(), "test.log"))
	if err != nil {
		t.Fatalf("logger failed: %v", err)
	}
	return logger
}

// authedRequest builds a request carrying the user identity the way the
// auth middleware would.
func authedRequest(method, target string, body []byte, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(WithUserID(req.Context(), userID))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestTitlesAPI_CreateAndGet(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	w := httptest.NewRecorder()
	api.HandleCollection(w, authedRequest(http.MethodPost, "/api/titles", []byte(`{"title":"Night harbor"}`), f.userID))

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var created TitleResponse
	decodeBody(t, w, &created)
	if created.Title != "Night harbor" {
		t.Errorf("created title = %q", created.Title)
	}

	w = httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodGet, fmt.Sprintf("/api/titles/%d", created.ID), nil, f.userID))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}
}

func TestTitlesAPI_CreateValidation(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	for name, body := range map[string]string{
		"empty title":           `{"title":""}`,
		"whitespace title":      `{"title":"   "}`,
		"bad JSON":              `{"title":`,
		"instructions too long": fmt.Sprintf(`{"title":"ok","instructions":%q}`, bytes.Repeat([]byte("x"), MaxInstructionsLength+1)),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			api.HandleCollection(w, authedRequest(http.MethodPost, "/api/titles", []byte(body), f.userID))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestTitlesAPI_ListIsOwnerScoped(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	ctx := context.Background()
	f.titles.Create(ctx, f.userID, "Mine", "")
	f.titles.Create(ctx, f.otherID, "Theirs", "")

	w := httptest.NewRecorder()
	api.HandleCollection(w, authedRequest(http.MethodGet, "/api/titles", nil, f.userID))

	var resp struct {
		Titles []TitleResponse `json:"titles"`
		Count  int             `json:"count"`
	}
	decodeBody(t, w, &resp)
	if resp.Count != 1 || len(resp.Titles) != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Titles[0].Title != "Mine" {
		t.Errorf("listed title = %q, want Mine", resp.Titles[0].Title)
	}
}

func TestTitlesAPI_Instructions(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	w := httptest.NewRecorder()
	api.HandleCollection(w, authedRequest(http.MethodPost, "/api/titles",
		[]byte(`{"title":"Night harbor","instructions":"watercolor, muted palette"}`), f.userID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var created TitleResponse
	decodeBody(t, w, &created)
	if created.Instructions != "watercolor, muted palette" {
		t.Errorf("created instructions = %q", created.Instructions)
	}

	target := fmt.Sprintf("/api/titles/%d", created.ID)
	w = httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodGet, target, nil, f.userID))
	var fetched TitleResponse
	decodeBody(t, w, &fetched)
	if fetched.Instructions != "watercolor, muted palette" {
		t.Errorf("fetched instructions = %q", fetched.Instructions)
	}

	// Updating without instructions clears them back to NULL
	w = httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodPut, target, []byte(`{"title":"Night harbor"}`), f.userID))
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", w.Code)
	}
	var updated TitleResponse
	decodeBody(t, w, &updated)
	if updated.Instructions != "" {
		t.Errorf("instructions after clearing update = %q", updated.Instructions)
	}

	stored, err := f.titles.GetByID(context.Background(), created.ID, f.userID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Instructions != "" {
		t.Errorf("stored instructions after clear = %q", stored.Instructions)
	}
}

func TestTitlesAPI_UpdateAndDelete(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	id, err := f.titles.Create(context.Background(), f.userID, "Old name", "")
	if err != nil {
		t.Fatalf("title create failed: %v", err)
	}
	target := fmt.Sprintf("/api/titles/%d", id)

	w := httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodPut, target, []byte(`{"title":"New name"}`), f.userID))
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", w.Code)
	}
	var updated TitleResponse
	decodeBody(t, w, &updated)
	if updated.Title != "New name" {
		t.Errorf("updated title = %q", updated.Title)
	}

	w = httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodDelete, target, nil, f.userID))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}

	w = httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodGet, target, nil, f.userID))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestTitlesAPI_OtherUsersTitleIsNotFound(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	id, _ := f.titles.Create(context.Background(), f.otherID, "Theirs", "")

	w := httptest.NewRecorder()
	api.HandleItem(w, authedRequest(http.MethodGet, fmt.Sprintf("/api/titles/%d", id), nil, f.userID))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTitlesAPI_InvalidID(t *testing.T) {
	f := setupAPI(t)
	api := NewTitlesAPI(f.titles, apiLogger(t))

	for _, target := range []string{"/api/titles/abc", "/api/titles/0", "/api/titles/1/extra"} {
		w := httptest.NewRecorder()
		api.HandleItem(w, authedRequest(http.MethodGet, target, nil, f.userID))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}
