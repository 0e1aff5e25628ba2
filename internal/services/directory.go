package services

import (
	"context"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/user"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserDirectory is the external user/profile collaborator.
type UserDirectory interface {
	GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error)
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error)
}

// ProfileCache is a read-through cache in front of UserDirectory.GetProfiles.
type ProfileCache interface {
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, []uuid.UUID, error)
	SetProfiles(ctx context.Context, profiles map[uuid.UUID]user.Profile) error
}

// CachedDirectory serves profiles from the cache when it can. Roles always
// go to the directory since they drive access decisions.
type CachedDirectory struct {
	dir   UserDirectory
	cache ProfileCache
	log   *logger.Logger
}

func NewCachedDirectory(dir UserDirectory, cache ProfileCache, log *logger.Logger) *CachedDirectory {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedDirectory{dir: dir, cache: cache, log: log}
}

func (d *CachedDirectory) GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	return d.dir.GetRole(ctx, id)
}

func (d *CachedDirectory) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	if d.cache == nil || len(ids) == 0 {
		return d.dir.GetProfiles(ctx, ids)
	}

	hits, misses, err := d.cache.GetProfiles(ctx, ids)
	if err != nil {
		d.log.WithContext(ctx).Warn("profile cache read failed", zap.Error(err))
		return d.dir.GetProfiles(ctx, ids)
	}
	if len(misses) == 0 {
		return hits, nil
	}

	fetched, err := d.dir.GetProfiles(ctx, misses)
	if err != nil {
		return nil, err
	}
	if err := d.cache.SetProfiles(ctx, fetched); err != nil {
		d.log.WithContext(ctx).Warn("profile cache write failed", zap.Error(err))
	}
	for id, p := range fetched {
		hits[id] = p
	}
	return hits, nil
}

// profilesFor returns the profiles of ids in the given order, skipping
// users the directory does not know.
func profilesFor(ctx context.Context, dir UserDirectory, ids []uuid.UUID) ([]user.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := dir.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]user.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
