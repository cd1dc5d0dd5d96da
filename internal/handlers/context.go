package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/pkg/prompts"
)

// ContextResponse carries the location context block for prompt
// injection. Context is empty when the character has no resolved
// location; that is not an error.
type ContextResponse struct {
	Character string `json:"character"`
	Detail    string `json:"detail"`
	Context   string `json:"context"`
}

// handleContext builds the location context for a character.
// Query params: character (required), detail (room|adjacent|full).
func (h *MapStateHandler) handleContext(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	character := r.URL.Query().Get("character")
	if character == "" {
		h.writeError(w, http.StatusBadRequest, "character query parameter is required")
		return
	}

	detail := h.defaultDetail
	if d := r.URL.Query().Get("detail"); d != "" {
		detail = prompts.ParseDetail(d)
	}

	c, ok := h.load(w, r.Context(), id)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, ContextResponse{
		Character: character,
		Detail:    string(detail),
		Context:   prompts.LocationContext(c, character, detail),
	})
}
