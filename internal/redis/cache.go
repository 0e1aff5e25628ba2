package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/user"
)

// Cache key patterns:
// - user:{user_id}:profile - profile cache, ProfileTTL
//
// Roles are read through on every access check and never cached here.

// CacheConfig contains configuration for caching
type CacheConfig struct {
	ProfileTTL time.Duration // TTL for profile cache (default 5m)
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ProfileTTL: 5 * time.Minute,
	}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

// NewCacheStore creates a new cache store
func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	if config.ProfileTTL <= 0 {
		config.ProfileTTL = DefaultCacheConfig().ProfileTTL
	}
	return &CacheStore{
		client: client,
		config: config,
	}
}

// ProfileCache represents cached profile data
type ProfileCache struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role"`
}

func profileKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:profile", userID.String())
}

// GetProfiles retrieves cached profiles and reports the ids that missed.
func (c *CacheStore) GetProfiles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]user.Profile, []uuid.UUID, error) {
	result := make(map[uuid.UUID]user.Profile, len(userIDs))
	var misses []uuid.UUID

	if len(userIDs) == 0 {
		return result, misses, nil
	}

	pipe := c.client.Pipeline()
	cmds := make(map[uuid.UUID]*goredis.StringCmd, len(userIDs))
	for _, userID := range userIDs {
		cmds[userID] = pipe.Get(ctx, profileKey(userID))
	}
	_, _ = pipe.Exec(ctx)

	for _, userID := range userIDs {
		data, err := cmds[userID].Result()
		if err != nil {
			misses = append(misses, userID)
			continue
		}
		var cached ProfileCache
		if err := json.Unmarshal([]byte(data), &cached); err != nil {
			misses = append(misses, userID)
			continue
		}
		result[userID] = user.Profile{
			ID:          cached.ID,
			DisplayName: cached.DisplayName,
			AvatarURL:   cached.AvatarURL,
			Role:        domain.Role(cached.Role),
		}
	}
	return result, misses, nil
}

// SetProfiles stores profiles with the configured TTL.
func (c *CacheStore) SetProfiles(ctx context.Context, profiles map[uuid.UUID]user.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, p := range profiles {
		data, err := json.Marshal(ProfileCache{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Role:        string(p.Role),
		})
		if err != nil {
			return err
		}
		pipe.Set(ctx, profileKey(id), data, c.config.ProfileTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks if Redis is available
func (c *CacheStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
