package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/user"
	redisstore "coaching-messenger/internal/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	UserDirectory
	profileCalls atomic.Int32
	roleCalls    atomic.Int32
}

func (d *countingDirectory) GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	d.roleCalls.Add(1)
	return d.UserDirectory.GetRole(ctx, id)
}

func (d *countingDirectory) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	d.profileCalls.Add(1)
	return d.UserDirectory.GetProfiles(ctx, ids)
}

func TestCachedDirectory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := newMemDB()
	coach := db.addUser("Coach Carla", domain.RoleCoach)
	client1 := db.addUser("Client Dana", domain.RoleClient)

	inner := &countingDirectory{UserDirectory: fakeUsers{db: db}}
	cache := redisstore.NewCacheStore(client, redisstore.CacheConfig{ProfileTTL: time.Minute})
	dir := NewCachedDirectory(inner, cache, nil)
	ctx := context.Background()

	profiles, err := dir.GetProfiles(ctx, []uuid.UUID{coach, client1})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, int32(1), inner.profileCalls.Load())

	profiles, err = dir.GetProfiles(ctx, []uuid.UUID{coach, client1})
	require.NoError(t, err)
	assert.Equal(t, "Client Dana", profiles[client1].DisplayName)
	assert.Equal(t, domain.RoleClient, profiles[client1].Role)
	assert.Equal(t, int32(1), inner.profileCalls.Load(), "second read served from cache")

	mr.FastForward(2 * time.Minute)
	_, err = dir.GetProfiles(ctx, []uuid.UUID{coach})
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.profileCalls.Load())

	for i := 0; i < 3; i++ {
		role, err := dir.GetRole(ctx, coach)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCoach, role)
	}
	assert.Equal(t, int32(3), inner.roleCalls.Load())
}

func TestCachedDirectory_FallsBackWhenCacheIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	db := newMemDB()
	coach := db.addUser("Coach Carla", domain.RoleCoach)
	dir := NewCachedDirectory(fakeUsers{db: db}, redisstore.NewCacheStore(client, redisstore.CacheConfig{}), nil)

	profiles, err := dir.GetProfiles(context.Background(), []uuid.UUID{coach})
	require.NoError(t, err)
	assert.Equal(t, "Coach Carla", profiles[coach].DisplayName)
}
