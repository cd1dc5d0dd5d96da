package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/storage"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.Mutex
	mapstates map[uuid.UUID]*mapstore.Collection
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ storage.Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		mapstates: make(map[uuid.UUID]*mapstore.Collection),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveMapState(ctx context.Context, id uuid.UUID, c *mapstore.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	if c == nil {
		return errors.New("map state cannot be nil")
	}
	m.mapstates[id] = c
	return nil
}

func (m *MockStorage) LoadMapState(ctx context.Context, id uuid.UUID) (*mapstore.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, exists := m.mapstates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return c, nil
}

func (m *MockStorage) DeleteMapState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mapstates, id)
	return nil
}
