// Package mapstore holds the maps of one chat session and the
// cross-map location of each tracked actor. The collection is an
// explicit session-scoped object owned by its caller; there is no
// shared module-level store. All operations are synchronous, and an
// invalid id is a silent no-op signalled by the return value rather
// than an error.
package mapstore

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

// Collection is the set of maps for a single session, serialized and
// restored with the session's persisted state.
type Collection struct {
	ID                 uuid.UUID                              `json:"id"`
	Maps               []*worldmap.Map                        `json:"maps"`
	ActiveMapID        string                                 `json:"activeMapId,omitempty"`
	CharacterLocations map[string]worldmap.CharacterLocation  `json:"characterLocations,omitempty"`
	CreatedAt          time.Time                              `json:"createdAt"`
	UpdatedAt          time.Time                              `json:"updatedAt"`
}

// NewCollection creates an empty collection for a new session.
func NewCollection() *Collection {
	now := time.Now().UTC()
	return &Collection{
		ID:                 uuid.New(),
		Maps:               []*worldmap.Map{},
		CharacterLocations: make(map[string]worldmap.CharacterLocation),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// touch bumps the modification timestamp after a successful mutation.
func (c *Collection) touch() {
	c.UpdatedAt = time.Now().UTC()
}

// CreateMap appends a new empty map and makes it active.
func (c *Collection) CreateMap(name, mapType, description string) *worldmap.Map {
	m := worldmap.NewMap(name, mapType, description)
	c.Maps = append(c.Maps, m)
	c.ActiveMapID = m.ID
	c.touch()
	return m
}

// AddMap appends an already-built map (e.g. a generation result) and
// makes it active. A nil map is ignored.
func (c *Collection) AddMap(m *worldmap.Map) {
	if m == nil {
		return
	}
	c.Maps = append(c.Maps, m)
	c.ActiveMapID = m.ID
	c.touch()
}

// FindMap resolves a map by id. Returns nil when not found.
func (c *Collection) FindMap(id string) *worldmap.Map {
	for _, m := range c.Maps {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ActiveMap returns the currently selected map, or nil when none is
// selected or the selection dangles.
func (c *Collection) ActiveMap() *worldmap.Map {
	if c.ActiveMapID == "" {
		return nil
	}
	return c.FindMap(c.ActiveMapID)
}

// SelectMap makes the given map active. An empty id clears the
// selection. Returns false (and changes nothing) for an unknown id.
func (c *Collection) SelectMap(id string) bool {
	if id == "" {
		c.ActiveMapID = ""
		c.touch()
		return true
	}
	if c.FindMap(id) == nil {
		return false
	}
	c.ActiveMapID = id
	c.touch()
	return true
}

// DeleteMap removes a map and purges every character location that
// references it. Returns false for an unknown id.
func (c *Collection) DeleteMap(id string) bool {
	idx := -1
	for i, m := range c.Maps {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	c.Maps = append(c.Maps[:idx], c.Maps[idx+1:]...)
	if c.ActiveMapID == id {
		c.ActiveMapID = ""
	}
	for name, loc := range c.CharacterLocations {
		if loc.MapID == id {
			delete(c.CharacterLocations, name)
		}
	}
	c.touch()
	return true
}

// SetCharacterLocation records which room of which map an actor
// occupies. An empty map id clears the actor's location. Returns false
// when the map or room does not exist.
func (c *Collection) SetCharacterLocation(name, mapID, roomID string) bool {
	if name == "" {
		return false
	}
	if mapID == "" {
		delete(c.CharacterLocations, name)
		c.touch()
		return true
	}

	m := c.FindMap(mapID)
	if m == nil || m.FindRoom(roomID) == nil {
		return false
	}
	if c.CharacterLocations == nil {
		c.CharacterLocations = make(map[string]worldmap.CharacterLocation)
	}
	c.CharacterLocations[name] = worldmap.CharacterLocation{MapID: mapID, RoomID: roomID}
	c.touch()
	return true
}

// ResolveCharacter resolves an actor's location at read time. A
// dangling reference (map or room since deleted) resolves to "no
// location" rather than an error.
func (c *Collection) ResolveCharacter(name string) (*worldmap.Map, *worldmap.Room, bool) {
	loc, ok := c.CharacterLocations[name]
	if !ok {
		return nil, nil, false
	}
	m := c.FindMap(loc.MapID)
	if m == nil {
		return nil, nil, false
	}
	room := m.FindRoom(loc.RoomID)
	if room == nil {
		return nil, nil, false
	}
	return m, room, true
}

// CharactersIn lists the actors whose location resolves to the given
// map and room, sorted for stable output.
func (c *Collection) CharactersIn(mapID, roomID string) []string {
	var names []string
	for name, loc := range c.CharacterLocations {
		if loc.MapID == mapID && loc.RoomID == roomID {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// ExportMap snapshots a map into the versioned export envelope.
// Returns false for an unknown id.
func (c *Collection) ExportMap(id string) (*worldmap.MapExport, bool) {
	m := c.FindMap(id)
	if m == nil {
		return nil, false
	}
	return &worldmap.MapExport{
		Version:    worldmap.ExportVersion,
		ExportedAt: time.Now().UTC(),
		Map:        m.Clone(),
	}, true
}

// ImportMap appends a snapshot's map under a fresh id (avoiding
// collision with existing maps) and makes it active. Returns nil for
// an empty or malformed snapshot.
func (c *Collection) ImportMap(exp *worldmap.MapExport) *worldmap.Map {
	if exp == nil || exp.Map == nil || exp.Map.Name == "" {
		return nil
	}

	m := exp.Map.Clone()
	m.ID = uuid.New().String()
	m.UpdatedAt = time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	c.Maps = append(c.Maps, m)
	c.ActiveMapID = m.ID
	c.touch()
	return m
}
