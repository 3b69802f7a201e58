package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"paintflow/core"
	"paintflow/db"
	"paintflow/logging"
)

// newConceptServer returns a fake chat completions endpoint that replies
// with the given tool call arguments, plus a pointer to the last request
// body it saw.
func newConceptServer(t *testing.T, arguments string) (*httptest.Server, *string) {
	t.Helper()

	var lastBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody = string(body)

		resp := map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role": "assistant",
						"tool_calls": []map[string]interface{}{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]interface{}{
									"name":      "savePaintingIdea",
									"arguments": arguments,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	return server, &lastBody
}

func setupGenerator(t *testing.T, serverURL string) (*Generator, *db.Database, *db.Title) {
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
	userID, err := db.NewUserRepository(database).Create(ctx, "u", "u@example.com", "hash")
	if err != nil {
		t.Fatalf("user create failed: %v", err)
	}
	titleID, err := db.NewTitleRepository(database).Create(ctx, userID, "Autumn river", "")
	if err != nil {
		t.Fatalf("title create failed: %v", err)
	}

	logger, err := logging.NewLogger(true, filepath.Join(t.TempDir(), "test.log"))
	if err != nil {
		t.Fatalf("logger failed: %v", err)
	}

	cfg := &core.Config{
		OpenRouterAPIKey: "sk-or-test",
		OpenRouterModel:  "test-model",
		OpenRouterURL:    serverURL + "/v1",
		AITimeout:        5 * time.Second,
	}

	gen := NewGenerator(cfg, db.NewIdeaRepository(database), logger)
	return gen, database, &db.Title{ID: titleID, UserID: userID, Title: "Autumn river"}
}

func TestGenerateIdea(t *testing.T) {
	t.Run("persists before returning", func(t *testing.T) {
		server, _ := newConceptServer(t, `{"summary":"misty river bend","fullPrompt":"Paint a misty autumn river bend at dawn"}`)
		gen, database, title := setupGenerator(t, server.URL)

		idea, err := gen.GenerateIdea(context.Background(), title, nil, nil)
		if err != nil {
			t.Fatalf("GenerateIdea failed: %v", err)
		}
		if idea.ID == 0 {
			t.Error("returned idea has no database ID")
		}
		if idea.Summary != "misty river bend" {
			t.Errorf("summary = %q", idea.Summary)
		}

		stored, err := db.NewIdeaRepository(database).ListByTitle(context.Background(), title.ID)
		if err != nil {
			t.Fatalf("ListByTitle failed: %v", err)
		}
		if len(stored) != 1 || stored[0].FullPrompt != "Paint a misty autumn river bend at dawn" {
			t.Errorf("idea not persisted correctly: %+v", stored)
		}
	})

	t.Run("prior summaries reach the prompt", func(t *testing.T) {
		server, lastBody := newConceptServer(t, `{"summary":"s","fullPrompt":"p"}`)
		gen, _, title := setupGenerator(t, server.URL)

		prior := []string{"river at night", "river frozen over"}
		if _, err := gen.GenerateIdea(context.Background(), title, nil, prior); err != nil {
			t.Fatalf("GenerateIdea failed: %v", err)
		}

		for _, s := range prior {
			if !strings.Contains(*lastBody, s) {
				t.Errorf("request body missing prior summary %q", s)
			}
		}
	})

	t.Run("title instructions reach the prompt", func(t *testing.T) {
		server, lastBody := newConceptServer(t, `{"summary":"s","fullPrompt":"p"}`)
		gen, _, title := setupGenerator(t, server.URL)
		title.Instructions = "oil on canvas, impressionist brushwork"

		if _, err := gen.GenerateIdea(context.Background(), title, nil, nil); err != nil {
			t.Fatalf("GenerateIdea failed: %v", err)
		}

		if !strings.Contains(*lastBody, "oil on canvas, impressionist brushwork") {
			t.Error("request body missing the title instructions")
		}
	})

	t.Run("no instructions line when the title has none", func(t *testing.T) {
		server, lastBody := newConceptServer(t, `{"summary":"s","fullPrompt":"p"}`)
		gen, _, title := setupGenerator(t, server.URL)

		if _, err := gen.GenerateIdea(context.Background(), title, nil, nil); err != nil {
			t.Fatalf("GenerateIdea failed: %v", err)
		}

		if strings.Contains(*lastBody, "Custom instructions") {
			t.Error("request body has an instructions line for a title without instructions")
		}
	})

	t.Run("reference descriptions reach the prompt", func(t *testing.T) {
		server, lastBody := newConceptServer(t, `{"summary":"s","fullPrompt":"p"}`)
		gen, _, title := setupGenerator(t, server.URL)

		refs := []db.ReferenceImage{
			{ID: 1, Description: "loose impressionist brushwork"},
			{ID: 2, Description: ""}, // no description, should not add a bullet
		}
		if _, err := gen.GenerateIdea(context.Background(), title, refs, nil); err != nil {
			t.Fatalf("GenerateIdea failed: %v", err)
		}
		if !strings.Contains(*lastBody, "loose impressionist brushwork") {
			t.Error("request body missing reference description")
		}
	})

	t.Run("missing summary is fatal", func(t *testing.T) {
		server, _ := newConceptServer(t, `{"summary":"","fullPrompt":"p"}`)
		gen, database, title := setupGenerator(t, server.URL)

		_, err := gen.GenerateIdea(context.Background(), title, nil, nil)
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}

		stored, _ := db.NewIdeaRepository(database).ListByTitle(context.Background(), title.ID)
		if len(stored) != 0 {
			t.Error("invalid concept was persisted")
		}
	})

	t.Run("malformed arguments", func(t *testing.T) {
		server, _ := newConceptServer(t, `{not json`)
		gen, _, title := setupGenerator(t, server.URL)

		_, err := gen.GenerateIdea(context.Background(), title, nil, nil)
		if !errors.Is(err, ErrMalformedArguments) {
			t.Fatalf("expected ErrMalformedArguments, got %v", err)
		}
	})

	t.Run("no tool call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"a plain answer"},"finish_reason":"stop"}]}`)
		}))
		t.Cleanup(server.Close)

		gen, _, title := setupGenerator(t, server.URL)
		_, err := gen.GenerateIdea(context.Background(), title, nil, nil)
		if !errors.Is(err, ErrNoToolCall) {
			t.Fatalf("expected ErrNoToolCall, got %v", err)
		}
	})
}
