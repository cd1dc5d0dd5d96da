package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomforge/map-engine/internal/mapgen"
	"github.com/roomforge/map-engine/internal/services"
	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/prompts"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler wires a handler against in-memory mocks.
func newTestHandler() (*MapStateHandler, *services.MockStorage, *services.MockLLMAPI) {
	mockStorage := services.NewMockStorage()
	mockLLM := services.NewMockLLMAPI()
	generator := mapgen.New(mockLLM, testLogger())
	h := NewMapStateHandler(mockStorage, generator, testLogger(), prompts.DetailAdjacent)
	return h, mockStorage, mockLLM
}

// seedSession stores an empty collection and returns it.
func seedSession(t *testing.T, storage *services.MockStorage) *mapstore.Collection {
	t.Helper()
	c := mapstore.NewCollection()
	require.NoError(t, storage.SaveMapState(context.Background(), c.ID, c))
	return c
}

func doJSON(h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMapStateCreate(t *testing.T) {
	h, mockStorage, _ := newTestHandler()

	w := doJSON(h, http.MethodPost, "/v1/mapstate", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var c mapstore.Collection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Empty(t, c.Maps)

	stored, err := mockStorage.LoadMapState(context.Background(), c.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestMapStateCreate_MethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler()
	w := doJSON(h, http.MethodGet, "/v1/mapstate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMapStateRead(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got mapstore.Collection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, c.ID, got.ID)
}

func TestMapStateRead_NotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMapStateRead_InvalidID(t *testing.T) {
	h, _, _ := newTestHandler()
	w := doJSON(h, http.MethodGet, "/v1/mapstate/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapStateDelete(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodDelete, "/v1/mapstate/"+c.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	stored, err := mockStorage.LoadMapState(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMapStateUnknownResource(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String()+"/bogus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMap(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/maps", CreateMapRequest{
		Name: "Sleepy Mermaid",
		Type: "location",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var m worldmap.Map
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.Equal(t, "Sleepy Mermaid", m.Name)
	assert.Equal(t, worldmap.TypeLocation, m.Type)

	stored, _ := mockStorage.LoadMapState(context.Background(), c.ID)
	require.Len(t, stored.Maps, 1)
	assert.Equal(t, m.ID, stored.ActiveMapID)
}

func TestCreateMap_MissingName(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/maps", CreateMapRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMap(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m := c.CreateMap("Tavern", worldmap.TypeLocation, "")

	w := doJSON(h, http.MethodDelete, "/v1/mapstate/"+c.ID.String()+"/maps/"+m.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	stored, _ := mockStorage.LoadMapState(context.Background(), c.ID)
	assert.Empty(t, stored.Maps)

	w = doJSON(h, http.MethodDelete, "/v1/mapstate/"+c.ID.String()+"/maps/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectMap(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m1 := c.CreateMap("Tavern", worldmap.TypeLocation, "")
	c.CreateMap("Port", worldmap.TypeRegional, "")

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/maps/"+m1.ID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got mapstore.Collection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, m1.ID, got.ActiveMapID)

	w = doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/maps/nope/select", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportImportMap(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m := c.CreateMap("Tavern", worldmap.TypeLocation, "dockside")
	m.Rooms = []worldmap.Room{{ID: "hall", Name: "Hall", Size: "3x3"}}

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String()+"/maps/"+m.ID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var exp worldmap.MapExport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&exp))
	assert.Equal(t, worldmap.ExportVersion, exp.Version)
	assert.Equal(t, "Tavern", exp.Map.Name)

	// Import into a fresh session.
	other := seedSession(t, mockStorage)
	w = doJSON(h, http.MethodPost, "/v1/mapstate/"+other.ID.String()+"/import", exp)
	require.Equal(t, http.StatusCreated, w.Code)

	var imported worldmap.Map
	require.NoError(t, json.NewDecoder(w.Body).Decode(&imported))
	assert.NotEqual(t, m.ID, imported.ID)
	assert.Equal(t, "Tavern", imported.Name)

	stored, _ := mockStorage.LoadMapState(context.Background(), other.ID)
	assert.Equal(t, imported.ID, stored.ActiveMapID)
}

func TestImportMap_Invalid(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/import", worldmap.MapExport{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetCharacter(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m := c.CreateMap("Tavern", worldmap.TypeLocation, "")
	m.Rooms = []worldmap.Room{{ID: "hall", Name: "Hall", Size: "3x3"}}

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/characters", SetCharacterRequest{
		Name:   "Anna",
		MapID:  m.ID,
		RoomID: "hall",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, _ := mockStorage.LoadMapState(context.Background(), c.ID)
	loc, ok := stored.CharacterLocations["Anna"]
	require.True(t, ok)
	assert.Equal(t, "hall", loc.RoomID)

	// Clearing a location.
	w = doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/characters", SetCharacterRequest{Name: "Anna"})
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = mockStorage.LoadMapState(context.Background(), c.ID)
	_, ok = stored.CharacterLocations["Anna"]
	assert.False(t, ok)
}

func TestSetCharacter_UnknownRoom(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m := c.CreateMap("Tavern", worldmap.TypeLocation, "")

	w := doJSON(h, http.MethodPost, "/v1/mapstate/"+c.ID.String()+"/characters", SetCharacterRequest{
		Name:   "Anna",
		MapID:  m.ID,
		RoomID: "attic",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContextEndpoint(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)
	m := c.CreateMap("Tavern", worldmap.TypeLocation, "")
	m.Rooms = []worldmap.Room{
		{ID: "hall", Name: "Hall", Size: "3x3", Position: &worldmap.Position{Row: 1, Col: 1}},
	}
	require.True(t, c.SetCharacterLocation("Anna", m.ID, "hall"))

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String()+"/context?character=Anna&detail=room", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ContextResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Anna", resp.Character)
	assert.Equal(t, "room", resp.Detail)
	assert.Contains(t, resp.Context, "Anna is in Hall")
}

func TestContextEndpoint_UnplacedCharacter(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String()+"/context?character=Ghost", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ContextResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Context)
}

func TestContextEndpoint_MissingCharacter(t *testing.T) {
	h, mockStorage, _ := newTestHandler()
	c := seedSession(t, mockStorage)

	w := doJSON(h, http.MethodGet, "/v1/mapstate/"+c.ID.String()+"/context", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
