package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/storage"
)

// MapStateTTL bounds how long an idle session's map state is kept.
const MapStateTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func mapStateKey(id uuid.UUID) string {
	return "mapstate:" + id.String()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisStorage) SaveMapState(ctx context.Context, id uuid.UUID, c *mapstore.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal map state", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal map state: %w", err)
	}

	cmd := r.client.Set(ctx, mapStateKey(id), string(data), MapStateTTL)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save map state", "uuid", id, "error", err)
		return fmt.Errorf("failed to save map state: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadMapState(ctx context.Context, id uuid.UUID) (*mapstore.Collection, error) {
	cmd := r.client.Get(ctx, mapStateKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Map state not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load map state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load map state: %w", err)
	}

	var c mapstore.Collection
	if err := json.Unmarshal([]byte(cmd.Val()), &c); err != nil {
		r.logger.Error("Failed to unmarshal map state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal map state: %w", err)
	}
	return &c, nil
}

func (r *RedisStorage) DeleteMapState(ctx context.Context, id uuid.UUID) error {
	cmd := r.client.Del(ctx, mapStateKey(id))
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete map state", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete map state: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}
