// Package mapgen orchestrates one map generation: prompt rendering,
// the single awaited call to the generative service, response parsing,
// and layout solving. It owns the per-session in-flight gate.
package mapgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/internal/services"
	"github.com/roomforge/map-engine/pkg/layout"
	"github.com/roomforge/map-engine/pkg/parse"
	"github.com/roomforge/map-engine/pkg/prompts"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

// ErrGenerationInFlight is returned when a session requests a second
// generation while one is outstanding. The request is discarded, not
// queued, and the in-flight call is not cancelled.
var ErrGenerationInFlight = errors.New("a map generation is already in progress for this session")

// Request describes the map to generate.
type Request struct {
	LocationName      string `json:"location_name"`
	Description       string `json:"description,omitempty"`
	ExtraInstructions string `json:"extra_instructions,omitempty"`
	MapType           string `json:"type,omitempty"`
}

// Generator runs map generations against an injected LLM collaborator.
type Generator struct {
	llm    services.LLMService
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

func New(llm services.LLMService, logger *slog.Logger) *Generator {
	return &Generator{
		llm:      llm,
		logger:   logger,
		inFlight: make(map[uuid.UUID]bool),
	}
}

// Generate produces a fully laid-out map for the given session. A
// parse failure returns parse.ErrParse with no partial map, so the
// caller can offer a retry. The result is not merged into any
// collection; that is the caller's synchronous critical section.
func (g *Generator) Generate(ctx context.Context, sessionID uuid.UUID, req Request) (*worldmap.Map, error) {
	if req.LocationName == "" {
		return nil, errors.New("location name is required")
	}

	if !g.begin(sessionID) {
		return nil, ErrGenerationInFlight
	}
	defer g.end(sessionID)

	prompt := prompts.MapGenPrompt(req.LocationName, req.Description, req.ExtraInstructions)
	raw, err := g.llm.Generate(ctx, prompts.MapGenSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	rooms, err := parse.ParseRooms(parse.Normalize(raw))
	if err != nil {
		g.logger.Warn("Generated response did not parse",
			"session", sessionID,
			"location", req.LocationName,
			"error", err)
		return nil, err
	}

	solved := layout.Solve(rooms)

	m := worldmap.NewMap(req.LocationName, req.MapType, req.Description)
	m.Layout = solved.Layout
	m.Rooms = solved.Rooms

	g.logger.Info("Map generated",
		"session", sessionID,
		"map_id", m.ID,
		"rooms", len(m.Rooms),
		"grid", m.Layout.GridSize.Rows)
	return m, nil
}

// begin claims the session's generation slot. Returns false when a
// generation is already outstanding.
func (g *Generator) begin(sessionID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[sessionID] {
		return false
	}
	g.inFlight[sessionID] = true
	return true
}

func (g *Generator) end(sessionID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, sessionID)
}
