package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// GenerateRequest matches the API request structure
type GenerateRequest struct {
	LocationName      string `json:"location_name"`
	Description       string `json:"description,omitempty"`
	ExtraInstructions string `json:"extra_instructions,omitempty"`
	Type              string `json:"type,omitempty"`
}

// SetCharacterRequest matches the API request structure
type SetCharacterRequest struct {
	Name   string `json:"name"`
	MapID  string `json:"map_id"`
	RoomID string `json:"room_id"`
}

// ContextResponse matches the API response structure
type ContextResponse struct {
	Character string `json:"character"`
	Detail    string `json:"detail"`
	Context   string `json:"context"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func createMapState(client *http.Client, baseURL string) (*mapstore.Collection, error) {
	resp, err := client.Post(baseURL+"/v1/mapstate", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("failed to create map state", resp.StatusCode, body)
	}

	var c mapstore.Collection
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to parse map state response: %w", err)
	}
	return &c, nil
}

func getMapState(client *http.Client, baseURL string, id uuid.UUID) (*mapstore.Collection, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/mapstate/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to get map state", resp.StatusCode, body)
	}

	var c mapstore.Collection
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to parse map state response: %w", err)
	}
	return &c, nil
}

// generateMap asks the API to generate a map. The second return value
// reports whether a failure is worth retrying as-is.
func generateMap(client *http.Client, baseURL string, id uuid.UUID, req GenerateRequest) (*worldmap.Map, bool, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/mapstate/%s/generate", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, errorResp.Retryable, fmt.Errorf("generation failed: %s", errorResp.Error)
	}

	var m worldmap.Map
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, false, fmt.Errorf("failed to parse map response: %w", err)
	}
	return &m, false, nil
}

func setCharacter(client *http.Client, baseURL string, id uuid.UUID, req SetCharacterRequest) (*mapstore.Collection, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/mapstate/%s/characters", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to place character", resp.StatusCode, body)
	}

	var c mapstore.Collection
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to parse map state response: %w", err)
	}
	return &c, nil
}

func selectMap(client *http.Client, baseURL string, id uuid.UUID, mapID string) (*mapstore.Collection, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/mapstate/%s/maps/%s/select", baseURL, id, mapID),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to select map", resp.StatusCode, body)
	}

	var c mapstore.Collection
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to parse map state response: %w", err)
	}
	return &c, nil
}

func getContext(client *http.Client, baseURL string, id uuid.UUID, character, detail string) (*ContextResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/mapstate/%s/context?character=%s", baseURL, id, url.QueryEscape(character))
	if detail != "" {
		endpoint += "&detail=" + url.QueryEscape(detail)
	}

	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to get context", resp.StatusCode, body)
	}

	var ctxResp ContextResponse
	if err := json.Unmarshal(body, &ctxResp); err != nil {
		return nil, fmt.Errorf("failed to parse context response: %w", err)
	}
	return &ctxResp, nil
}

func exportMap(client *http.Client, baseURL string, id uuid.UUID, mapID string) (*worldmap.MapExport, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/mapstate/%s/maps/%s/export", baseURL, id, mapID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to export map", resp.StatusCode, body)
	}

	var exp worldmap.MapExport
	if err := json.Unmarshal(body, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse export response: %w", err)
	}
	return &exp, nil
}

func apiError(prefix string, status int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", prefix, errorResp.Error)
}
