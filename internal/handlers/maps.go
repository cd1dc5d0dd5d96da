package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/pkg/worldmap"
)

// CreateMapRequest defines the request body for creating an empty map.
type CreateMapRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// SetCharacterRequest defines the request body for placing a character.
// An empty map_id clears the character's location.
type SetCharacterRequest struct {
	Name   string `json:"name"`
	MapID  string `json:"map_id"`
	RoomID string `json:"room_id"`
}

// serveMaps routes the /maps sub-resource of a map state.
func (h *MapStateHandler) serveMaps(w http.ResponseWriter, r *http.Request, id uuid.UUID, rest []string) {
	switch {
	case len(rest) == 0:
		h.requirePost(w, r, func() { h.handleCreateMap(w, r, id) })

	case len(rest) == 1:
		if r.Method != http.MethodDelete {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only DELETE is supported for a map.")
			return
		}
		h.handleDeleteMap(w, r, id, rest[0])

	case len(rest) == 2 && rest[1] == "select":
		h.requirePost(w, r, func() { h.handleSelectMap(w, r, id, rest[0]) })

	case len(rest) == 2 && rest[1] == "export":
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported for export.")
			return
		}
		h.handleExportMap(w, r, id, rest[0])

	default:
		h.writeError(w, http.StatusNotFound, "Unknown map resource")
	}
}

func (h *MapStateHandler) handleCreateMap(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CreateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Map name is required")
		return
	}

	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	m := c.CreateMap(req.Name, req.Type, req.Description)
	if !h.save(w, r.Context(), c) {
		return
	}

	h.logger.Info("Map created", "session", id, "map_id", m.ID, "name", m.Name)
	h.writeJSON(w, http.StatusCreated, m)
}

func (h *MapStateHandler) handleDeleteMap(w http.ResponseWriter, r *http.Request, id uuid.UUID, mapID string) {
	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	if !c.DeleteMap(mapID) {
		h.writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	if !h.save(w, r.Context(), c) {
		return
	}

	h.logger.Info("Map deleted", "session", id, "map_id", mapID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MapStateHandler) handleSelectMap(w http.ResponseWriter, r *http.Request, id uuid.UUID, mapID string) {
	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	if !c.SelectMap(mapID) {
		h.writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	if !h.save(w, r.Context(), c) {
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *MapStateHandler) handleExportMap(w http.ResponseWriter, r *http.Request, id uuid.UUID, mapID string) {
	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	exp, found := c.ExportMap(mapID)
	if !found {
		h.writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	h.writeJSON(w, http.StatusOK, exp)
}

func (h *MapStateHandler) handleImport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var exp worldmap.MapExport
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid export file")
		return
	}

	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	m := c.ImportMap(&exp)
	if m == nil {
		h.writeError(w, http.StatusBadRequest, "Export file has no map")
		return
	}
	if !h.save(w, r.Context(), c) {
		return
	}

	h.logger.Info("Map imported", "session", id, "map_id", m.ID, "name", m.Name)
	h.writeJSON(w, http.StatusCreated, m)
}

func (h *MapStateHandler) handleSetCharacter(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req SetCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Character name is required")
		return
	}

	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	if !c.SetCharacterLocation(req.Name, req.MapID, req.RoomID) {
		h.writeError(w, http.StatusNotFound, "Map or room not found")
		return
	}
	if !h.save(w, r.Context(), c) {
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}
