package worldmap

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Map types. Regional maps describe an outdoor area; location maps
// describe the interior of a single building.
const (
	TypeRegional = "regional"
	TypeLocation = "location"
)

// GridSize is the dimensions of a map grid.
type GridSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Layout holds the solved spatial arrangement of a map: the grid
// dimensions and the corridor cells connecting placed rooms.
type Layout struct {
	GridSize  GridSize   `json:"gridSize"`
	Corridors []Position `json:"corridors"`
}

// Map is a laid-out set of rooms for one area of the game world.
type Map struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Layout      Layout    `json:"layout"`
	Rooms       []Room    `json:"rooms"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewMap creates an empty map of the given type with a fresh id.
// Unknown types fall back to "location".
func NewMap(name, mapType, description string) *Map {
	if mapType != TypeRegional && mapType != TypeLocation {
		mapType = TypeLocation
	}
	now := time.Now().UTC()
	return &Map{
		ID:          uuid.New().String(),
		Name:        name,
		Type:        mapType,
		Description: description,
		Layout:      Layout{GridSize: GridSize{Rows: 5, Cols: 5}, Corridors: []Position{}},
		Rooms:       []Room{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FindRoom resolves a room by id. Returns nil when not found.
func (m *Map) FindRoom(roomID string) *Room {
	for i := range m.Rooms {
		if m.Rooms[i].ID == roomID {
			return &m.Rooms[i]
		}
	}
	return nil
}

// FindRoomByName resolves a room by case-insensitive name match.
// Returns nil when not found.
func (m *Map) FindRoomByName(name string) *Room {
	for i := range m.Rooms {
		if strings.EqualFold(m.Rooms[i].Name, name) {
			return &m.Rooms[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	out := *m
	out.Layout.Corridors = append([]Position(nil), m.Layout.Corridors...)
	out.Rooms = make([]Room, len(m.Rooms))
	for i, r := range m.Rooms {
		cr := r
		if r.Position != nil {
			p := *r.Position
			cr.Position = &p
		}
		cr.Exits = append([]Exit(nil), r.Exits...)
		cr.Furniture = append([]Furniture(nil), r.Furniture...)
		out.Rooms[i] = cr
	}
	return &out
}

// CharacterLocation tracks which room of which map an actor occupies.
// Either id may dangle after a deletion; readers must treat a dangling
// reference as "no location".
type CharacterLocation struct {
	MapID  string `json:"mapId"`
	RoomID string `json:"roomId"`
}

// ExportVersion is the current import/export envelope version.
const ExportVersion = 1

// MapExport is the serialized form of a single map, suitable for
// sharing between sessions. The envelope is human-editable JSON.
type MapExport struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Map        *Map      `json:"map"`
}
