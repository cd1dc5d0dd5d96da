package prompts

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		vars     map[string]string
		expected string
	}{
		{
			name:     "simple placeholder",
			tmpl:     "Hello {{name}}!",
			vars:     map[string]string{"name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "unknown placeholder renders empty",
			tmpl:     "Hello {{name}}!",
			vars:     map[string]string{},
			expected: "Hello !",
		},
		{
			name:     "conditional kept when present",
			tmpl:     "A{{#if x}} and {{x}}{{/if}}.",
			vars:     map[string]string{"x": "B"},
			expected: "A and B.",
		},
		{
			name:     "conditional dropped when absent",
			tmpl:     "A{{#if x}} and {{x}}{{/if}}.",
			vars:     map[string]string{},
			expected: "A.",
		},
		{
			name:     "conditional dropped when blank",
			tmpl:     "A{{#if x}} and {{x}}{{/if}}.",
			vars:     map[string]string{"x": "   "},
			expected: "A.",
		},
		{
			name:     "multiple conditionals resolve independently",
			tmpl:     "{{#if a}}[{{a}}]{{/if}}{{#if b}}[{{b}}]{{/if}}",
			vars:     map[string]string{"b": "two"},
			expected: "[two]",
		},
		{
			name:     "conditional body spanning lines",
			tmpl:     "start\n{{#if note}}note: {{note}}\n{{/if}}end",
			vars:     map[string]string{"note": "careful"},
			expected: "start\nnote: careful\nend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.tmpl, tt.vars); got != tt.expected {
				t.Errorf("RenderTemplate() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMapGenPrompt(t *testing.T) {
	full := MapGenPrompt("Sleepy Mermaid", "a dockside tavern", "include a cellar")
	for _, want := range []string{"Sleepy Mermaid", "a dockside tavern", "include a cellar"} {
		if !strings.Contains(full, want) {
			t.Errorf("Prompt missing %q:\n%s", want, full)
		}
	}

	bare := MapGenPrompt("Sleepy Mermaid", "", "")
	if strings.Contains(bare, "Setting:") {
		t.Error("Prompt without description should drop the setting block")
	}
	if strings.Contains(bare, "Additional instructions:") {
		t.Error("Prompt without instructions should drop the instructions block")
	}
	if strings.Contains(bare, "{{") {
		t.Errorf("Unresolved placeholders remain:\n%s", bare)
	}
}
