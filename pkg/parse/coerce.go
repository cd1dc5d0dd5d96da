package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roomforge/map-engine/pkg/worldmap"
)

// ErrParse indicates the normalized text is not valid JSON after one
// repair pass, or parses to something without a rooms array. Callers
// receive no partial result alongside it.
var ErrParse = errors.New("response is not a parseable room list")

var bareKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*):`)

type rawPayload struct {
	Rooms json.RawMessage `json:"rooms"`
}

type rawRoom struct {
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Exits     json.RawMessage `json:"exits"`
	Furniture json.RawMessage `json:"furniture"`
}

type rawExit struct {
	Direction   string `json:"direction"`
	Destination string `json:"destination"`
	Name        string `json:"name"`
	To          string `json:"to"`
}

// ParseRooms parses a normalized response into a canonical room list.
// It tries a strict parse first, then a single repair pass (trim
// outside the outermost braces, quote bare object keys). Both failing,
// or the payload lacking a rooms array, yields (nil, ErrParse).
func ParseRooms(text string) ([]worldmap.Room, error) {
	rooms, err := tryParse(text)
	if err == nil {
		return rooms, nil
	}

	rooms, err = tryParse(repair(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, truncate(text, 120))
	}
	return rooms, nil
}

func tryParse(text string) ([]worldmap.Room, error) {
	var payload rawPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, err
	}
	// An absent key leaves the RawMessage empty; "rooms": null arrives
	// as the literal null. Both lack a rooms array.
	if rooms := bytes.TrimSpace(payload.Rooms); len(rooms) == 0 || bytes.Equal(rooms, []byte("null")) {
		return nil, errors.New("missing rooms array")
	}

	var raws []rawRoom
	if err := json.Unmarshal(payload.Rooms, &raws); err != nil {
		return nil, err
	}

	rooms := make([]worldmap.Room, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, rr := range raws {
		rooms = append(rooms, coerceRoom(rr, i, seen))
	}
	return rooms, nil
}

// repair trims anything outside the outermost braces and quotes bare
// identifier keys. It is deliberately shallow; anything it cannot fix
// fails in the second parse attempt.
func repair(text string) string {
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	return bareKeyRe.ReplaceAllString(text, `$1"$2"$3:`)
}

// coerceRoom fills gaps in a parsed room. It never fails: missing
// names and sizes get defaults, non-array exits and furniture become
// empty sequences.
func coerceRoom(rr rawRoom, index int, seen map[string]int) worldmap.Room {
	name := strings.TrimSpace(rr.Name)
	if name == "" {
		name = fmt.Sprintf("Room %d", index+1)
	}
	size := strings.TrimSpace(rr.Size)
	if size == "" {
		size = worldmap.DefaultRoomSize
	}

	return worldmap.Room{
		ID:        uniqueID(name, seen),
		Name:      name,
		Size:      size,
		Exits:     coerceExits(rr.Exits),
		Furniture: coerceFurniture(rr.Furniture),
	}
}

func coerceExits(raw json.RawMessage) []worldmap.Exit {
	exits := []worldmap.Exit{}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return exits
	}
	for _, elem := range elems {
		var dest string
		if err := json.Unmarshal(elem, &dest); err == nil {
			if dest = strings.TrimSpace(dest); dest != "" {
				exits = append(exits, worldmap.Exit{Destination: dest})
			}
			continue
		}
		var re rawExit
		if err := json.Unmarshal(elem, &re); err == nil {
			dest = firstNonEmpty(re.Destination, re.To, re.Name)
			if dest != "" {
				exits = append(exits, worldmap.Exit{Direction: re.Direction, Destination: dest})
			}
		}
	}
	return exits
}

func coerceFurniture(raw json.RawMessage) []worldmap.Furniture {
	furniture := []worldmap.Furniture{}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return furniture
	}
	for _, elem := range elems {
		var name string
		if err := json.Unmarshal(elem, &name); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				furniture = append(furniture, worldmap.Furniture{Name: name})
			}
			continue
		}
		var f worldmap.Furniture
		if err := json.Unmarshal(elem, &f); err == nil && strings.TrimSpace(f.Name) != "" {
			furniture = append(furniture, worldmap.Furniture{Name: strings.TrimSpace(f.Name)})
		}
	}
	return furniture
}

// uniqueID derives a stable snake_case id from a room name, suffixing
// duplicates so ids stay unique within one parse.
func uniqueID(name string, seen map[string]int) string {
	id := normalizeID(name)
	if id == "" {
		id = "room"
	}
	seen[id]++
	if n := seen[id]; n > 1 {
		return fmt.Sprintf("%s_%d", id, n)
	}
	return id
}

// normalizeID converts a name to lowercase snake_case for use as a
// room id.
func normalizeID(s string) string {
	var out strings.Builder
	prevUnderscore := false
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && i > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
			prevUnderscore = false
		default:
			// Ignore other characters
		}
	}
	return strings.Trim(out.String(), "_")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
