// This file contains the ReferencesAPI organism for the /api/references
// endpoints.
package webui

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/imagegen"
	"paintflow/logging"
)

// MaxDescriptionLength caps reference descriptions.
const MaxDescriptionLength = 1000

// ReferencesAPI provides handlers for reference image uploads. References
// are either scoped to one title or user-global (no titleId), in which
// case they apply to every batch the user runs.
//
// Endpoints:
//   - POST   /api/references          - upload a reference (data-URL payload)
//   - GET    /api/references          - list references (?titleId= scopes)
//   - GET    /api/references/{id}     - fetch one reference
//   - DELETE /api/references/{id}     - delete a reference
type ReferencesAPI struct {
	refs   *db.ReferenceRepository
	titles *db.TitleRepository
	logger *logging.Logger
}

// NewReferencesAPI creates a ReferencesAPI.
func NewReferencesAPI(refs *db.ReferenceRepository, titles *db.TitleRepository, logger *logging.Logger) *ReferencesAPI {
	return &ReferencesAPI{
		refs:   refs,
		titles: titles,
		logger: logger.Named("references"),
	}
}

// RegisterRoutes attaches the reference endpoints to the mux, wrapped
// with the given auth middleware function.
func (api *ReferencesAPI) RegisterRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/references", protect(api.HandleCollection))
	mux.HandleFunc("/api/references/", protect(api.HandleItem))
}

// ReferenceResponse is the JSON shape of one reference image.
type ReferenceResponse struct {
	ID          int64     `json:"id"`
	TitleID     int64     `json:"titleId,omitempty"`
	ImageData   string    `json:"imageData"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func referenceResponse(ref *db.ReferenceImage) ReferenceResponse {
	return ReferenceResponse{
		ID:          ref.ID,
		TitleID:     ref.TitleID,
		ImageData:   ref.ImageData,
		Description: ref.Description,
		CreatedAt:   ref.CreatedAt,
	}
}

type createReferenceRequest struct {
	TitleID     int64  `json:"titleId"`
	ImageData   string `json:"imageData"`
	Description string `json:"description"`
}

// HandleCollection handles POST and GET on /api/references.
func (api *ReferencesAPI) HandleCollection(w http.ResponseWriter, r *http.Request) {
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

func (api *ReferencesAPI) create(w http.ResponseWriter, r *http.Request, userID int64) {
	var req createReferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := imagegen.DecodeDataURL(req.ImageData); err != nil {
		writeError(w, http.StatusBadRequest, "imageData must be a base64 image payload")
		return
	}
	description := strings.TrimSpace(req.Description)
	if len(description) > MaxDescriptionLength {
		writeError(w, http.StatusBadRequest, "description is too long")
		return
	}

	// A title-scoped reference must point at a title the user owns
	if req.TitleID != 0 {
		if _, err := api.titles.GetByID(r.Context(), req.TitleID, userID); err != nil {
			writeRepoError(w, err)
			return
		}
	}

	id, err := api.refs.Create(r.Context(), userID, req.TitleID, req.ImageData, description)
	if err != nil {
		api.logger.Error("reference create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := api.refs.GetByID(r.Context(), id, userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	api.logger.Info("reference uploaded",
		zap.Int64("reference_id", id),
		zap.Int64("title_id", req.TitleID),
		zap.Int64("user_id", userID),
	)
	writeJSON(w, http.StatusCreated, referenceResponse(created))
}

func (api *ReferencesAPI) list(w http.ResponseWriter, r *http.Request, userID int64) {
	var (
		refs []db.ReferenceImage
		err  error
	)

	if raw := r.URL.Query().Get("titleId"); raw != "" {
		titleID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || titleID < 1 {
			writeError(w, http.StatusBadRequest, "invalid titleId")
			return
		}
		// Scoped list includes user-global references, matching what a
		// batch for this title would use
		refs, err = api.refs.ListForTitle(r.Context(), userID, titleID)
	} else {
		refs, err = api.refs.ListByUser(r.Context(), userID)
	}
	if err != nil {
		api.logger.Error("reference list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	responses := make([]ReferenceResponse, 0, len(refs))
	for i := range refs {
		responses = append(responses, referenceResponse(&refs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"references": responses,
		"count":      len(responses),
	})
}

// HandleItem handles GET and DELETE on /api/references/{id}.
func (api *ReferencesAPI) HandleItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "not authenticated")
		return
	}

	id, ok := parseIDSuffix(r.URL.Path, "/api/references/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reference id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ref, err := api.refs.GetByID(r.Context(), id, userID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, referenceResponse(ref))

	case http.MethodDelete:
		if err := api.refs.Delete(r.Context(), id, userID); err != nil {
			writeRepoError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
