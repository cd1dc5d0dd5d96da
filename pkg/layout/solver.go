// Package layout assigns grid positions to a canonical room list and
// translates name-reference exits into compass directions. The solver
// is deterministic for a given input ordering.
package layout

import (
	"math"
	"strings"

	"github.com/roomforge/map-engine/pkg/worldmap"
)

// Result is a solved layout: the grid description plus the input rooms
// with positions assigned and exit directions filled in.
type Result struct {
	Layout worldmap.Layout `json:"layout"`
	Rooms  []worldmap.Room `json:"rooms"`
}

// startNameMarkers select the BFS start room. The first room whose
// name contains one of these wins; otherwise the first room in the
// list is the start.
var startNameMarkers = []string{"entrance", "entry", "front"}

// Solve lays out rooms on a square grid. Rooms are placed along a
// central corridor row, alternating above and below it, in BFS order
// from the entrance over name-reference adjacency. Rooms left over
// once the placement slots run out wrap along row 0 and may collide;
// that overflow behavior is an accepted approximation.
func Solve(rooms []worldmap.Room) Result {
	if len(rooms) == 0 {
		return Result{
			Layout: worldmap.Layout{
				GridSize:  worldmap.GridSize{Rows: 5, Cols: 5},
				Corridors: []worldmap.Position{},
			},
			Rooms: []worldmap.Room{},
		}
	}

	area := 0
	for _, r := range rooms {
		sz := worldmap.ParseSize(r.Size)
		area += sz.Width * sz.Height
	}
	dim := int(math.Ceil(math.Sqrt(1.5 * float64(area))))
	if dim < 7 {
		dim = 7
	}

	corridorRow := dim / 2
	corridors := make([]worldmap.Position, 0, dim-2)
	for col := 1; col <= dim-2; col++ {
		corridors = append(corridors, worldmap.Position{Row: corridorRow, Col: col})
	}

	// Placement slots alternate above and below the corridor, moving
	// outward column by column. Slot count is finite and may be
	// smaller than the room count.
	var slots []worldmap.Position
	for col := 1; col < dim-2; col += 2 {
		slots = append(slots,
			worldmap.Position{Row: corridorRow - 2, Col: col},
			worldmap.Position{Row: corridorRow + 2, Col: col},
		)
	}

	// Name->index pre-pass so unresolved references are an explicit
	// branch instead of repeated linear scans. First occurrence wins
	// on duplicate names.
	nameIndex := make(map[string]int, len(rooms))
	for i, r := range rooms {
		key := strings.ToLower(r.Name)
		if _, ok := nameIndex[key]; !ok {
			nameIndex[key] = i
		}
	}

	placed := make([]*worldmap.Position, len(rooms))
	visited := make([]bool, len(rooms))
	slotIdx := 0

	queue := []int{startIndex(rooms)}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if visited[i] || placed[i] != nil {
			continue
		}
		visited[i] = true
		if slotIdx < len(slots) {
			pos := slots[slotIdx]
			slotIdx++
			placed[i] = &pos
		}
		for _, exit := range rooms[i].Exits {
			if j, ok := nameIndex[strings.ToLower(exit.Destination)]; ok && !visited[j] {
				queue = append(queue, j)
			}
		}
	}

	// Rooms unreachable from the start (or left behind when slots ran
	// out) take the remaining slots in generation order, then wrap
	// along row 0.
	overflow := 0
	for i := range rooms {
		if placed[i] != nil {
			continue
		}
		if slotIdx < len(slots) {
			pos := slots[slotIdx]
			slotIdx++
			placed[i] = &pos
		} else {
			pos := worldmap.Position{Row: 0, Col: overflow % dim}
			overflow++
			placed[i] = &pos
		}
	}

	out := make([]worldmap.Room, len(rooms))
	for i, r := range rooms {
		cr := r
		pos := *placed[i]
		cr.Position = &pos
		cr.Exits = make([]worldmap.Exit, len(r.Exits))
		for e, exit := range r.Exits {
			exit.Direction = direction(pos, exit.Destination, nameIndex, placed)
			cr.Exits[e] = exit
		}
		out[i] = cr
	}

	return Result{
		Layout: worldmap.Layout{
			GridSize:  worldmap.GridSize{Rows: dim, Cols: dim},
			Corridors: corridors,
		},
		Rooms: out,
	}
}

func startIndex(rooms []worldmap.Room) int {
	for i, r := range rooms {
		name := strings.ToLower(r.Name)
		for _, marker := range startNameMarkers {
			if strings.Contains(name, marker) {
				return i
			}
		}
	}
	return 0
}

// direction labels an exit by comparing the source cell with the
// resolved destination cell. Unresolved destinations, and destinations
// sharing the source cell, degrade to corridor while keeping the
// destination name for display.
func direction(from worldmap.Position, destination string, nameIndex map[string]int, placed []*worldmap.Position) string {
	j, ok := nameIndex[strings.ToLower(destination)]
	if !ok || placed[j] == nil {
		return worldmap.DirCorridor
	}
	target := *placed[j]
	dRow := target.Row - from.Row
	dCol := target.Col - from.Col
	switch {
	case abs(dRow) > abs(dCol):
		if dRow > 0 {
			return worldmap.DirSouth
		}
		return worldmap.DirNorth
	case dCol != 0:
		if dCol > 0 {
			return worldmap.DirEast
		}
		return worldmap.DirWest
	default:
		return worldmap.DirCorridor
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
