package prompts

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

// Detail controls how much of the surrounding map the location context
// describes.
type Detail string

const (
	DetailRoom     Detail = "room"     // current room only
	DetailAdjacent Detail = "adjacent" // room plus its exits
	DetailFull     Detail = "full"     // room, exits, and all other rooms
)

// ParseDetail maps a config string to a Detail, defaulting to the most
// conservative depth.
func ParseDetail(s string) Detail {
	switch Detail(strings.ToLower(strings.TrimSpace(s))) {
	case DetailAdjacent:
		return DetailAdjacent
	case DetailFull:
		return DetailFull
	default:
		return DetailRoom
	}
}

var titleCaser = cases.Title(language.English)

// LocationContext projects the collection's current state into a short
// plain-text block for prompt injection: the actor's room, its
// furniture, co-located actors, and (per detail depth) exits and the
// rest of the building. Returns "" when the actor has no resolved
// location. Never fails; missing pieces are simply omitted.
func LocationContext(c *mapstore.Collection, actor string, depth Detail) string {
	if c == nil || actor == "" {
		return ""
	}
	m, room, ok := c.ResolveCharacter(actor)
	if !ok {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is in %s (%s).", actor, room.Name, m.Name)

	if len(room.Furniture) > 0 {
		names := make([]string, len(room.Furniture))
		for i, f := range room.Furniture {
			names[i] = f.Name
		}
		fmt.Fprintf(&sb, " The room contains: %s.", strings.Join(names, ", "))
	}

	var others []string
	for _, name := range c.CharactersIn(m.ID, room.ID) {
		if name != actor {
			others = append(others, name)
		}
	}
	if len(others) > 0 {
		fmt.Fprintf(&sb, " Also here: %s.", strings.Join(others, ", "))
	}

	if depth == DetailAdjacent || depth == DetailFull {
		if exits := describeExits(room); exits != "" {
			sb.WriteString("\nExits: " + exits + ".")
		}
	}

	if depth == DetailFull {
		var rest []string
		for _, other := range m.Rooms {
			if other.ID != room.ID {
				rest = append(rest, other.Name)
			}
		}
		if len(rest) > 0 {
			fmt.Fprintf(&sb, "\nOther rooms in %s: %s.", m.Name, strings.Join(rest, ", "))
		}
	}

	return sb.String()
}

// describeExits renders a room's exits as "North: Kitchen, Corridor:
// Vault". Unresolved destinations keep their original name under the
// corridor label.
func describeExits(room *worldmap.Room) string {
	if len(room.Exits) == 0 {
		return ""
	}
	parts := make([]string, len(room.Exits))
	for i, exit := range room.Exits {
		dir := exit.Direction
		if dir == "" {
			dir = worldmap.DirCorridor
		}
		parts[i] = fmt.Sprintf("%s: %s", titleCaser.String(dir), exit.Destination)
	}
	return strings.Join(parts, ", ")
}
