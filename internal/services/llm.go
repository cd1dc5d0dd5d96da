package services

import (
	"context"
)

// LLMService defines the interface for the generative text service.
// The map core consumes it as an injected collaborator and does not
// depend on transport details.
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Generate produces a single text completion for the given prompts.
	// The returned string is raw model output; callers are responsible
	// for normalizing and parsing it.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
