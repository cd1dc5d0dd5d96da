package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/internal/mapgen"
	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/prompts"
	"github.com/roomforge/map-engine/pkg/storage"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MapStateHandler serves the /v1/mapstate tree: session collection
// CRUD plus the map, character, import/export, generation, and
// context sub-resources.
type MapStateHandler struct {
	storage       storage.Storage
	generator     *mapgen.Generator
	logger        *slog.Logger
	defaultDetail prompts.Detail
}

func NewMapStateHandler(storage storage.Storage, generator *mapgen.Generator, logger *slog.Logger, defaultDetail prompts.Detail) *MapStateHandler {
	return &MapStateHandler{
		storage:       storage,
		generator:     generator,
		logger:        logger,
		defaultDetail: defaultDetail,
	}
}

// ServeHTTP routes map state requests.
// Routes:
// POST   /v1/mapstate                          - Create new session map state
// GET    /v1/mapstate/{id}                     - Read map state
// DELETE /v1/mapstate/{id}                     - Delete map state
// POST   /v1/mapstate/{id}/maps                - Create an empty map
// DELETE /v1/mapstate/{id}/maps/{mapID}        - Delete a map
// POST   /v1/mapstate/{id}/maps/{mapID}/select - Make a map active
// GET    /v1/mapstate/{id}/maps/{mapID}/export - Export a map
// POST   /v1/mapstate/{id}/import              - Import an exported map
// POST   /v1/mapstate/{id}/characters          - Set a character location
// POST   /v1/mapstate/{id}/generate            - Generate a map via the LLM
// GET    /v1/mapstate/{id}/context             - Location context for a character
func (h *MapStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/mapstate"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a map state.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	segments := strings.Split(path, "/")
	id, err := uuid.Parse(segments[0])
	if err != nil {
		h.logger.Warn("Invalid map state ID", "id", segments[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid map state ID format")
		return
	}

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}

	case segments[1] == "maps":
		h.serveMaps(w, r, id, segments[2:])

	case segments[1] == "import" && len(segments) == 2:
		h.requirePost(w, r, func() { h.handleImport(w, r, id) })

	case segments[1] == "characters" && len(segments) == 2:
		h.requirePost(w, r, func() { h.handleSetCharacter(w, r, id) })

	case segments[1] == "generate" && len(segments) == 2:
		h.requirePost(w, r, func() { h.handleGenerate(w, r, id) })

	case segments[1] == "context" && len(segments) == 2:
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported for context.")
			return
		}
		h.handleContext(w, r, id)

	default:
		h.writeError(w, http.StatusNotFound, "Unknown map state resource")
	}
}

func (h *MapStateHandler) requirePost(w http.ResponseWriter, r *http.Request, fn func()) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}
	fn()
}

func (h *MapStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c := mapstore.NewCollection()
	if err := h.storage.SaveMapState(r.Context(), c.ID, c); err != nil {
		h.logger.Error("Failed to save new map state", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create map state")
		return
	}

	h.logger.Info("Map state created", "id", c.ID)
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *MapStateHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *MapStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteMapState(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete map state", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete map state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load fetches a collection, writing a 404 or 500 on failure. The
// second return value reports whether the caller may proceed.
func (h *MapStateHandler) load(w http.ResponseWriter, ctx context.Context, id uuid.UUID) (*mapstore.Collection, bool) {
	c, err := h.storage.LoadMapState(ctx, id)
	if err != nil {
		h.logger.Error("Failed to load map state", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load map state")
		return nil, false
	}
	if c == nil {
		h.writeError(w, http.StatusNotFound, "Map state not found")
		return nil, false
	}
	return c, true
}

// save persists a mutated collection, writing a 500 on failure.
func (h *MapStateHandler) save(w http.ResponseWriter, ctx context.Context, c *mapstore.Collection) bool {
	if err := h.storage.SaveMapState(ctx, c.ID, c); err != nil {
		h.logger.Error("Failed to save map state", "id", c.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save map state")
		return false
	}
	return true
}

func (h *MapStateHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *MapStateHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}
