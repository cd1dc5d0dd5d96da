package worldmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Exit directions. Corridor is the degraded direction used when a
// destination cannot be resolved to a placed room, or when two rooms
// share a cell.
const (
	DirNorth    = "north"
	DirSouth    = "south"
	DirEast     = "east"
	DirWest     = "west"
	DirCorridor = "corridor"
)

// Position is a cell on the map grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Size is a parsed "WxH" room footprint. Width and Height are always >= 1.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Exit connects a room to another room by name. Destination is a name
// reference, resolved case-insensitively within the same map; a dangling
// reference is permitted and keeps its original name for display.
type Exit struct {
	Direction   string `json:"direction"`
	Destination string `json:"destination"`
}

// Furniture is a named object inside a room.
type Furniture struct {
	Name string `json:"name"`
}

// Room is a single location within a Map. Position is nil until the
// layout solver assigns a grid cell.
type Room struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Size      string      `json:"size"` // "WxH"
	Position  *Position   `json:"position"`
	Exits     []Exit      `json:"exits"`
	Furniture []Furniture `json:"furniture"`
}

// DefaultRoomSize is used when a generated room omits its size.
const DefaultRoomSize = "3x3"

// ParseSize parses a "WxH" string into integer dimensions. Malformed
// sizes fall back to 2x2 rather than failing the layout.
func ParseSize(s string) Size {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) == 2 {
		w, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
		h, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if werr == nil && herr == nil && w >= 1 && h >= 1 {
			return Size{Width: w, Height: h}
		}
	}
	return Size{Width: 2, Height: 2}
}

// String formats a Size back to its "WxH" form.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
