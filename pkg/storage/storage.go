package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomforge/map-engine/pkg/mapstore"
)

// Storage persists session map collections. Load returns (nil, nil)
// for an unknown id; not-found is never an error.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Map state operations (Redis-backed)
	SaveMapState(ctx context.Context, id uuid.UUID, c *mapstore.Collection) error
	LoadMapState(ctx context.Context, id uuid.UUID) (*mapstore.Collection, error)
	DeleteMapState(ctx context.Context, id uuid.UUID) error
}
