package parse

import (
	"encoding/json"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips think block",
			input:    "<think>plotting the rooms...</think>{\"rooms\":[]}",
			expected: `{"rooms":[]}`,
		},
		{
			name:     "strips thinking block across newlines",
			input:    "<thinking>first line\nsecond line</thinking>\n{\"rooms\":[]}",
			expected: `{"rooms":[]}`,
		},
		{
			name:     "extracts fenced json block",
			input:    "Sure, here is the map:\n```json\n{\"rooms\":[]}\n```\nEnjoy!",
			expected: `{"rooms":[]}`,
		},
		{
			name:     "extracts fenced block without language tag",
			input:    "```\n{\"rooms\":[]}\n```",
			expected: `{"rooms":[]}`,
		},
		{
			name:     "extracts brace span without fence",
			input:    "Here you go: {\"rooms\":[]} hope that helps",
			expected: `{"rooms":[]}`,
		},
		{
			name:     "greedy brace span keeps nested objects",
			input:    "x {\"rooms\":[{\"name\":\"A\"}]} y",
			expected: `{"rooms":[{"name":"A"}]}`,
		},
		{
			name:     "converts single quotes",
			input:    `{'rooms':[{'name':'Hall'}]}`,
			expected: `{"rooms":[{"name":"Hall"}]}`,
		},
		{
			name:     "removes trailing commas",
			input:    `{"rooms":[{"name":"Hall",},],}`,
			expected: `{"rooms":[{"name":"Hall"}]}`,
		},
		{
			name:     "no json at all returns input",
			input:    "no json here",
			expected: "no json here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalize_IdempotentOnCleanJSON(t *testing.T) {
	clean := `{"rooms":[{"name":"Hall","size":"3x3","exits":["Kitchen"],"furniture":["table"]}]}`

	once := Normalize(clean)
	if once != clean {
		t.Errorf("Normalize changed clean JSON:\n got %q\nwant %q", once, clean)
	}
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize is not idempotent:\n got %q\nwant %q", twice, once)
	}
	if !json.Valid([]byte(once)) {
		t.Error("normalized clean JSON should still be valid JSON")
	}
}
