// This file contains the TitlesAPI organism for the /api/titles endpoints.
package webui

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/logging"
)

// MaxTitleLength caps the stored title text.
const MaxTitleLength = 500

// MaxInstructionsLength caps the optional steering instructions.
const MaxInstructionsLength = 2000

// TitlesAPI provides CRUD handlers for painting titles. Every operation
// is scoped to the authenticated user.
//
// Endpoints:
//   - POST   /api/titles       - create a title
//   - GET    /api/titles       - list the user's titles
//   - GET    /api/titles/{id}  - fetch one title
//   - PUT    /api/titles/{id}  - rename a title
//   - DELETE /api/titles/{id}  - delete a title and everything under it
type TitlesAPI struct {
	titles *db.TitleRepository
	logger *logging.Logger
}

// NewTitlesAPI creates a TitlesAPI over the given repository.
func NewTitlesAPI(titles *db.TitleRepository, logger *logging.Logger) *TitlesAPI {
	return &TitlesAPI{
		titles: titles,
		logger: logger.Named("titles"),
	}
}

// RegisterRoutes attaches the title endpoints to the mux, wrapped with
// the given auth middleware function.
func (api *TitlesAPI) RegisterRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/titles", protect(api.HandleCollection))
	mux.HandleFunc("/api/titles/", protect(api.HandleItem))
}

// TitleResponse is the JSON shape of one title.
type TitleResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func titleResponse(t *db.Title) TitleResponse {
	return TitleResponse{
		ID:           t.ID,
		Title:        t.Title,
		Instructions: t.Instructions,
		CreatedAt:    t.CreatedAt,
	}
}

type titleRequest struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

func (req *titleRequest) validate() (string, string, bool) {
	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > MaxTitleLength {
		return "", "", false
	}
	instructions := strings.TrimSpace(req.Instructions)
	if len(instructions) > MaxInstructionsLength {
		return "", "", false
	}
	return title, instructions, true
}

// HandleCollection handles POST and GET on /api/titles.
func (api *TitlesAPI) HandleCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "not authenticated")
		return
	}

	switch r.Method {
	case http.MethodPost:
		api.create(w, r, userID)
	case http.MethodGet:
		api.list(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (api *TitlesAPI) create(w http.ResponseWriter, r *http.Request, userID int64) {
	var req titleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	title, instructions, ok := req.validate()
	if !ok {
		writeError(w, http.StatusBadRequest, "title must be 1-500 characters, instructions at most 2000")
		return
	}

	id, err := api.titles.Create(r.Context(), userID, title, instructions)
	if err != nil {
		api.logger.Error("title create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := api.titles.GetByID(r.Context(), id, userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, titleResponse(created))
}

func (api *TitlesAPI) list(w http.ResponseWriter, r *http.Request, userID int64) {
	titles, err := api.titles.ListByUser(r.Context(), userID)
	if err != nil {
		api.logger.Error("title list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	responses := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		responses = append(responses, titleResponse(&titles[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"titles": responses,
		"count":  len(responses),
	})
}

// HandleItem handles GET, PUT and DELETE on /api/titles/{id}.
func (api *TitlesAPI) HandleItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "not authenticated")
		return
	}

	id, ok := parseIDSuffix(r.URL.Path, "/api/titles/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid title id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		title, err := api.titles.GetByID(r.Context(), id, userID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, titleResponse(title))

	case http.MethodPut:
		var req titleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		title, instructions, okTitle := req.validate()
		if !okTitle {
			writeError(w, http.StatusBadRequest, "title must be 1-500 characters, instructions at most 2000")
			return
		}
		if err := api.titles.Update(r.Context(), id, userID, title, instructions); err != nil {
			writeRepoError(w, err)
			return
		}
		updated, err := api.titles.GetByID(r.Context(), id, userID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, titleResponse(updated))

	case http.MethodDelete:
		if err := api.titles.Delete(r.Context(), id, userID); err != nil {
			writeRepoError(w, err)
			return
		}
		api.logger.Info("title deleted",
			zap.Int64("title_id", id),
			zap.Int64("user_id", userID),
		)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
