package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogKeyPrefix = "catalog:"

var (
	_ interfaces.RoomCatalog        = (*redisRoomCatalog)(nil)
	_ interfaces.CatalogInvalidator = (*redisRoomCatalog)(nil)
)

// CachedRoomCatalog is a RoomCatalog that can drop its cached entries.
type CachedRoomCatalog interface {
	interfaces.RoomCatalog
	interfaces.CatalogInvalidator
}

// redisRoomCatalog is a read-through cache in front of another catalog.
// Redis failures are logged and the call falls through to the wrapped catalog.
type redisRoomCatalog struct {
	next   interfaces.RoomCatalog
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// cachedRoom mirrors models.Room including the final code, which the
// public JSON form of Room omits.
type cachedRoom struct {
	ID             int                   `json:"id"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	ImageURL       *string               `json:"image_url"`
	FinalCode      *string               `json:"final_code"`
	CompletionMode models.CompletionMode `json:"completion_mode"`
	CreatedAt      time.Time             `json:"created_at"`
}

type nextRoomEntry struct {
	ID int  `json:"id"`
	OK bool `json:"ok"`
}

// NewRedisRoomCatalog wraps next with a Redis cache whose entries live for ttl.
func NewRedisRoomCatalog(next interfaces.RoomCatalog, client *redis.Client, ttl time.Duration, logger *zap.Logger) CachedRoomCatalog {
	return &redisRoomCatalog{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisRoomCatalog"),
	}
}

func (c *redisRoomCatalog) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	key := fmt.Sprintf("%sroom:%d", catalogKeyPrefix, roomID)
	var cached cachedRoom
	if c.load(ctx, key, &cached) {
		room := fromCachedRoom(cached)
		return &room, nil
	}
	room, err := c.next.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, toCachedRoom(*room))
	return room, nil
}

func (c *redisRoomCatalog) GetHint(ctx context.Context, hintID int) (*models.Hint, error) {
	key := fmt.Sprintf("%shint:%d", catalogKeyPrefix, hintID)
	hint := &models.Hint{}
	if c.load(ctx, key, hint) {
		return hint, nil
	}
	hint, err := c.next.GetHint(ctx, hintID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, hint)
	return hint, nil
}

func (c *redisRoomCatalog) GetNextRoomID(ctx context.Context, roomID int) (int, bool, error) {
	key := fmt.Sprintf("%snext:%d", catalogKeyPrefix, roomID)
	var entry nextRoomEntry
	if c.load(ctx, key, &entry) {
		return entry.ID, entry.OK, nil
	}
	nextID, ok, err := c.next.GetNextRoomID(ctx, roomID)
	if err != nil {
		return 0, false, err
	}
	c.store(ctx, key, nextRoomEntry{ID: nextID, OK: ok})
	return nextID, ok, nil
}

func (c *redisRoomCatalog) ListRooms(ctx context.Context) ([]models.Room, error) {
	key := catalogKeyPrefix + "rooms"
	var cached []cachedRoom
	if c.load(ctx, key, &cached) {
		rooms := make([]models.Room, len(cached))
		for i, r := range cached {
			rooms[i] = fromCachedRoom(r)
		}
		return rooms, nil
	}
	rooms, err := c.next.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	cached = make([]cachedRoom, len(rooms))
	for i, r := range rooms {
		cached[i] = toCachedRoom(r)
	}
	c.store(ctx, key, cached)
	return rooms, nil
}

func (c *redisRoomCatalog) ListHintsForRoom(ctx context.Context, roomID int) ([]models.Hint, error) {
	key := fmt.Sprintf("%shints:%d", catalogKeyPrefix, roomID)
	var hints []models.Hint
	if c.load(ctx, key, &hints) {
		return hints, nil
	}
	hints, err := c.next.ListHintsForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, hints)
	return hints, nil
}

func (c *redisRoomCatalog) CountHintsForRoom(ctx context.Context, roomID int) (int, error) {
	key := fmt.Sprintf("%shint_count:%d", catalogKeyPrefix, roomID)
	var count int
	if c.load(ctx, key, &count) {
		return count, nil
	}
	count, err := c.next.CountHintsForRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, count)
	return count, nil
}

// Invalidate removes every cached catalog entry.
func (c *redisRoomCatalog) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, catalogKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("Failed to scan catalog keys", zap.Error(err))
		return fmt.Errorf("failed to scan catalog cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Failed to delete catalog keys", zap.Int("count", len(keys)), zap.Error(err))
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	c.logger.Info("Catalog cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

func (c *redisRoomCatalog) load(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Corrupted catalog cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *redisRoomCatalog) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode catalog cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toCachedRoom(r models.Room) cachedRoom {
	return cachedRoom{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		FinalCode:      r.FinalCode,
		CompletionMode: r.CompletionMode,
		CreatedAt:      r.CreatedAt,
	}
}

func fromCachedRoom(c cachedRoom) models.Room {
	return models.Room{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		ImageURL:       c.ImageURL,
		FinalCode:      c.FinalCode,
		CompletionMode: c.CompletionMode,
		CreatedAt:      c.CreatedAt,
	}
}
