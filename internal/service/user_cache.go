package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/pkg/database"
)

const userCacheTTL = 30 * time.Minute

// UserCache keeps short-lived user snapshots in Redis to spare the store on
// hot lookups. Every operation is best-effort: a cache failure never fails
// the request.
type UserCache struct {
	redis *database.Redis
}

// NewUserCache creates a new user snapshot cache
func NewUserCache(redis *database.Redis) *UserCache {
	return &UserCache{redis: redis}
}

func userCacheKey(id string) string {
	return "user:" + id
}

// Set stores a snapshot under user:{id}
func (c *UserCache) Set(ctx context.Context, snapshot domain.Snapshot) {
	value, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, userCacheKey(snapshot.ID), value, userCacheTTL).Err()
}

// Get loads a cached snapshot; ok is false on any miss or failure
func (c *UserCache) Get(ctx context.Context, id string) (domain.Snapshot, bool) {
	value, err := c.redis.Client.Get(ctx, userCacheKey(id)).Bytes()
	if err != nil {
		return domain.Snapshot{}, false
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(value, &snapshot); err != nil {
		return domain.Snapshot{}, false
	}

	return snapshot, true
}

// Delete drops a cached snapshot
func (c *UserCache) Delete(ctx context.Context, id string) {
	_ = c.redis.Client.Del(ctx, userCacheKey(id)).Err()
}
