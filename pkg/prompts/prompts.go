// Package prompts builds the text sent to (and around) the generative
// model: the map-generation request, and the location context injected
// into chat prompts.
package prompts

import (
	"regexp"
	"strings"
)

// MapGenSystemPrompt instructs the model to answer with bare JSON in
// the expected room-list shape. The parser tolerates chatter anyway,
// but a firm instruction keeps the repair path rare.
const MapGenSystemPrompt = `You are a level designer for a text adventure. Given a location, you design the set of rooms inside it and how they connect.

Respond with ONLY a JSON object in exactly this shape, with no prose before or after it:
{"rooms":[{"name":"Room Name","size":"WxH","exits":["Other Room Name"],"furniture":["item"]}]}

Rules:
- 3 to 8 rooms. Sizes between 2x2 and 5x5.
- Exits reference other rooms by their exact name.
- Every room must be reachable from the first room.
- Name one room so it reads as the entrance.`

// MapGenPromptTemplate is the user-facing request. Placeholders are
// substituted by RenderTemplate; the {{#if}} blocks are kept or
// dropped on presence of a non-empty value, not a general templating
// engine.
const MapGenPromptTemplate = `Design the interior map of "{{locationName}}".
{{#if description}}Setting: {{description}}
{{/if}}{{#if extraInstructions}}Additional instructions: {{extraInstructions}}
{{/if}}Remember to respond with only the JSON object.`

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if\s+([A-Za-z][A-Za-z0-9]*)\}\}(.*?)\{\{/if\}\}`)
	placeholderRe = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9]*)\}\}`)
)

// RenderTemplate substitutes {{name}} placeholders and resolves
// {{#if name}}...{{/if}} blocks by whether the named value is present
// and non-empty. Unknown placeholders render as empty.
func RenderTemplate(tmpl string, vars map[string]string) string {
	out := conditionalRe.ReplaceAllStringFunc(tmpl, func(block string) string {
		m := conditionalRe.FindStringSubmatch(block)
		if strings.TrimSpace(vars[m[1]]) == "" {
			return ""
		}
		return m[2]
	})
	return placeholderRe.ReplaceAllStringFunc(out, func(ph string) string {
		m := placeholderRe.FindStringSubmatch(ph)
		return vars[m[1]]
	})
}

// MapGenPrompt renders the generation request for a named location.
func MapGenPrompt(locationName, description, extraInstructions string) string {
	return RenderTemplate(MapGenPromptTemplate, map[string]string{
		"locationName":      locationName,
		"description":       description,
		"extraInstructions": extraInstructions,
	})
}
