package mapgen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/internal/services"
	"github.com/roomforge/map-engine/pkg/parse"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestGenerate_Success(t *testing.T) {
	mockLLM := services.NewMockLLMAPI()
	g := New(mockLLM, testLogger())

	m, err := g.Generate(context.Background(), uuid.New(), Request{
		LocationName: "Sleepy Mermaid",
		Description:  "a dockside tavern",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if m.Name != "Sleepy Mermaid" {
		t.Errorf("Map name = %q, want Sleepy Mermaid", m.Name)
	}
	if m.Type != worldmap.TypeLocation {
		t.Errorf("Map type = %q, want location", m.Type)
	}
	if len(m.Rooms) != 2 {
		t.Fatalf("Expected 2 rooms from the default mock response, got %d", len(m.Rooms))
	}
	for _, r := range m.Rooms {
		if r.Position == nil {
			t.Errorf("Room %q was not placed", r.Name)
		}
	}
	if m.Layout.GridSize.Rows < 7 {
		t.Errorf("Grid rows = %d, want at least 7", m.Layout.GridSize.Rows)
	}

	if len(mockLLM.GenerateCalls) != 1 {
		t.Fatalf("Expected one generation call, got %d", len(mockLLM.GenerateCalls))
	}
	if !strings.Contains(mockLLM.GenerateCalls[0].UserPrompt, "Sleepy Mermaid") {
		t.Error("Prompt should carry the location name")
	}
	if !strings.Contains(mockLLM.GenerateCalls[0].UserPrompt, "a dockside tavern") {
		t.Error("Prompt should carry the description")
	}
}

func TestGenerate_RequiresLocationName(t *testing.T) {
	mockLLM := services.NewMockLLMAPI()
	g := New(mockLLM, testLogger())

	if _, err := g.Generate(context.Background(), uuid.New(), Request{}); err == nil {
		t.Fatal("Expected error for empty location name")
	}
	if len(mockLLM.GenerateCalls) != 0 {
		t.Error("Validation failures must not reach the LLM")
	}
}

func TestGenerate_ParseFailure(t *testing.T) {
	mockLLM := services.NewMockLLMAPI()
	mockLLM.SetGenerateResponse("I'm sorry, I can't help with floor plans today.")
	g := New(mockLLM, testLogger())

	m, err := g.Generate(context.Background(), uuid.New(), Request{LocationName: "Tavern"})
	if !errors.Is(err, parse.ErrParse) {
		t.Fatalf("Expected parse.ErrParse, got %v", err)
	}
	if m != nil {
		t.Error("A parse failure must not yield a partial map")
	}
}

func TestGenerate_LLMError(t *testing.T) {
	mockLLM := services.NewMockLLMAPI()
	mockLLM.SetGenerateError(errors.New("upstream unavailable"))
	g := New(mockLLM, testLogger())

	_, err := g.Generate(context.Background(), uuid.New(), Request{LocationName: "Tavern"})
	if err == nil || errors.Is(err, parse.ErrParse) {
		t.Fatalf("Expected a wrapped transport error, got %v", err)
	}
}

func TestGenerate_RejectsConcurrentSession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mockLLM := services.NewMockLLMAPI()
	mockLLM.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		close(started)
		<-release
		return `{"rooms":[{"name":"Hall"}]}`, nil
	}
	g := New(mockLLM, testLogger())

	sessionID := uuid.New()
	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), sessionID, Request{LocationName: "Tavern"})
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("First generation never started")
	}

	// Second request for the same session is rejected, not queued.
	if _, err := g.Generate(context.Background(), sessionID, Request{LocationName: "Tavern"}); !errors.Is(err, ErrGenerationInFlight) {
		t.Fatalf("Expected ErrGenerationInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("First generation failed: %v", err)
	}

	// The slot frees once the generation completes.
	mockLLM.GenerateFunc = nil
	if _, err := g.Generate(context.Background(), sessionID, Request{LocationName: "Tavern"}); err != nil {
		t.Fatalf("Generation after completion should succeed: %v", err)
	}
}

func TestGenerate_SessionsAreIndependent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mockLLM := services.NewMockLLMAPI()
	first := true
	mockLLM.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if first {
			first = false
			close(started)
			<-release
		}
		return `{"rooms":[{"name":"Hall"}]}`, nil
	}
	g := New(mockLLM, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), uuid.New(), Request{LocationName: "Tavern"})
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("First generation never started")
	}

	close(release)
	if _, err := g.Generate(context.Background(), uuid.New(), Request{LocationName: "Keep"}); err != nil {
		t.Fatalf("A different session must not be gated: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("First generation failed: %v", err)
	}
}
