package services

import (
	"context"
	"sync"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	GenerateFunc  func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Track calls for testing
	InitModelCalls []string
	GenerateCalls  []GenerateCall

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	SystemPrompt string
	UserPrompt   string
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		GenerateCalls:  make([]GenerateCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Generate mocks completion generation. The default response is a
// small valid room list.
func (m *MockLLMAPI) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt)
	}

	return `{"rooms":[{"name":"Entrance Hall","size":"3x3","exits":["Main Room"],"furniture":["coat rack"]},{"name":"Main Room","size":"4x4","exits":["Entrance Hall"],"furniture":["table"]}]}`, nil
}

// SetGenerateError sets up the mock to return an error on Generate
func (m *MockLLMAPI) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", err
	}
}

// SetGenerateResponse sets up the mock to return a fixed response
func (m *MockLLMAPI) SetGenerateResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return response, nil
	}
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateCalls = make([]GenerateCall, 0)
}
