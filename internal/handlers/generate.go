package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/internal/mapgen"
	"github.com/roomforge/map-engine/pkg/parse"
)

// handleGenerate runs the full generation flow for a session and
// merges the result into its collection. A second request while one is
// outstanding is rejected with 409 rather than queued; a response the
// parser cannot recover gets 422 with a retry hint.
func (h *MapStateHandler) handleGenerate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req mapgen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.LocationName == "" {
		h.writeError(w, http.StatusBadRequest, "location_name is required")
		return
	}

	// Confirm the session exists before the expensive call.
	if _, ok := h.load(w, r.Context(), id); !ok {
		return
	}

	m, err := h.generator.Generate(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, mapgen.ErrGenerationInFlight):
			h.writeError(w, http.StatusConflict, "A map is already being generated for this session. Please wait for it to finish.")
		case errors.Is(err, parse.ErrParse):
			h.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:     "The generated response could not be parsed into a map. Try again.",
				Retryable: true,
			})
		default:
			h.logger.Error("Map generation failed", "session", id, "error", err)
			h.writeError(w, http.StatusBadGateway, "Map generation failed")
		}
		return
	}

	// Re-load and merge: the generation call was the only suspension
	// point, and store mutations stay synchronous after it.
	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}
	c.AddMap(m)
	if !h.save(w, r.Context(), c) {
		return
	}

	h.writeJSON(w, http.StatusCreated, m)
}
