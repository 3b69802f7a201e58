// This file contains the PaintingsAPI organism: the batch trigger and the
// polling endpoint the frontend drives progress from.
package webui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/logging"
	"paintflow/pipeline"
)

// PaintingsAPI provides the generation trigger and status endpoints.
//
// Endpoints:
//   - POST /api/paintings/generate   - start a batch for a title
//   - GET  /api/paintings/{titleId}  - paintings joined with idea and title
//
// The status endpoint is polled by the frontend; completed paintings stay
// in the response so a poll loop can stop once no painting is pending or
// processing.
type PaintingsAPI struct {
	coordinator *pipeline.Coordinator
	paintings   *db.PaintingRepository
	refs        *db.ReferenceRepository
	logger      *logging.Logger
}

// NewPaintingsAPI creates a PaintingsAPI.
func NewPaintingsAPI(coordinator *pipeline.Coordinator, paintings *db.PaintingRepository, refs *db.ReferenceRepository, logger *logging.Logger) *PaintingsAPI {
	return &PaintingsAPI{
		coordinator: coordinator,
		paintings:   paintings,
		refs:        refs,
		logger:      logger.Named("paintings"),
	}
}

// RegisterRoutes attaches the painting endpoints to the mux, wrapped with
// the given auth middleware function.
func (api *PaintingsAPI) RegisterRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/paintings/generate", protect(api.HandleGenerate))
	mux.HandleFunc("/api/paintings/", protect(api.HandleStatus))
}

type generateRequest struct {
	TitleID  int64 `json:"titleId"`
	Quantity int   `json:"quantity"`
}

// GeneratedIdeaResponse pairs a created idea with its pending painting.
type GeneratedIdeaResponse struct {
	PaintingID int64  `json:"paintingId"`
	IdeaID     int64  `json:"ideaId"`
	Summary    string `json:"summary"`
	FullPrompt string `json:"fullPrompt"`
}

// GenerateResponse is the reply to a batch trigger. All listed paintings
// exist as pending rows when this response is written; rendering continues
// in the background.
type GenerateResponse struct {
	TitleID int64                   `json:"titleId"`
	Ideas   []GeneratedIdeaResponse `json:"ideas"`
	Count   int                     `json:"count"`
}

// HandleGenerate handles POST /api/paintings/generate requests.
func (api *PaintingsAPI) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "not authenticated")
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TitleID < 1 {
		writeError(w, http.StatusBadRequest, "titleId is required")
		return
	}

	entries, err := api.coordinator.StartBatch(r.Context(), userID, req.TitleID, req.Quantity)
	if err != nil {
		api.logger.Warn("batch start failed",
			zap.Int64("title_id", req.TitleID),
			zap.Error(err),
		)
		if errors.Is(err, pipeline.ErrQuantityOutOfRange) {
			writeError(w, http.StatusBadRequest, "quantity out of range")
			return
		}
		writeRepoError(w, err)
		return
	}

	ideas := make([]GeneratedIdeaResponse, 0, len(entries))
	for _, e := range entries {
		ideas = append(ideas, GeneratedIdeaResponse{
			PaintingID: e.PaintingID,
			IdeaID:     e.Idea.ID,
			Summary:    e.Idea.Summary,
			FullPrompt: e.Idea.FullPrompt,
		})
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		TitleID: req.TitleID,
		Ideas:   ideas,
		Count:   len(ideas),
	})
}

// PaintingResponse is the JSON shape of one painting in status replies.
type PaintingResponse struct {
	ID               int64   `json:"id"`
	IdeaID           int64   `json:"ideaId"`
	Status           string  `json:"status"`
	Summary          string  `json:"summary"`
	FullPrompt       string  `json:"fullPrompt"`
	Title            string  `json:"title"`
	ImageURL         string  `json:"imageUrl,omitempty"`
	ImageData        string  `json:"imageData,omitempty"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	UsedReferenceIDs []int64 `json:"usedReferenceIds"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// ReferenceData is one entry in the referenceDataMap.
type ReferenceData struct {
	ImageData   string `json:"imageData"`
	Description string `json:"description"`
}

// StatusResponse is the reply to a status poll. ReferenceDataMap carries
// each referenced image payload exactly once, keyed by reference ID, so
// paintings sharing references do not repeat the base64 data.
type StatusResponse struct {
	Paintings        []PaintingResponse       `json:"paintings"`
	ReferenceDataMap map[string]ReferenceData `json:"referenceDataMap"`
	Count            int                      `json:"count"`
}

// HandleStatus handles GET /api/paintings/{titleId} requests.
func (api *PaintingsAPI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "not authenticated")
		return
	}

	titleID, ok := parseIDSuffix(r.URL.Path, "/api/paintings/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid title id")
		return
	}

	views, err := api.paintings.ListByTitle(r.Context(), titleID, userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	paintings := make([]PaintingResponse, 0, len(views))
	usedIDs := make(map[int64]bool)
	for i := range views {
		v := &views[i]
		ids := parseReferenceIDs(v.UsedReferenceIDs)
		for _, id := range ids {
			usedIDs[id] = true
		}
		paintings = append(paintings, PaintingResponse{
			ID:               v.ID,
			IdeaID:           v.IdeaID,
			Status:           v.Status,
			Summary:          v.Summary,
			FullPrompt:       v.FullPrompt,
			Title:            v.TitleText,
			ImageURL:         v.ImageURL,
			ImageData:        v.ImageData,
			ErrorMessage:     v.ErrorMessage,
			UsedReferenceIDs: ids,
			CreatedAt:        v.CreatedAt.Format(time.RFC3339),
			UpdatedAt:        v.UpdatedAt.Format(time.RFC3339),
		})
	}

	refMap, err := api.buildReferenceDataMap(r, usedIDs)
	if err != nil {
		api.logger.Error("reference map build failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Paintings:        paintings,
		ReferenceDataMap: refMap,
		Count:            len(paintings),
	})
}

// buildReferenceDataMap loads every referenced image once. References
// deleted since the render are simply absent from the map; the snapshot
// IDs on the painting remain.
func (api *PaintingsAPI) buildReferenceDataMap(r *http.Request, usedIDs map[int64]bool) (map[string]ReferenceData, error) {
	refMap := make(map[string]ReferenceData, len(usedIDs))
	if len(usedIDs) == 0 {
		return refMap, nil
	}

	ids := make([]int64, 0, len(usedIDs))
	for id := range usedIDs {
		ids = append(ids, id)
	}

	refs, err := api.refs.GetByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	for i := range refs {
		refMap[formatID(refs[i].ID)] = ReferenceData{
			ImageData:   refs[i].ImageData,
			Description: refs[i].Description,
		}
	}
	return refMap, nil
}

// parseReferenceIDs decodes the stored JSON snapshot. Bad data yields an
// empty slice rather than a failed status reply.
func parseReferenceIDs(snapshot string) []int64 {
	if snapshot == "" {
		return []int64{}
	}
	var ids []int64
	if err := json.Unmarshal([]byte(snapshot), &ids); err != nil || ids == nil {
		return []int64{}
	}
	return ids
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
