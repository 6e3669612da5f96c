// Package cache holds redis-backed read-through decorators.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

const permissionKeyPrefix = "provisioner:permissions:"

// Store is the subset of redis.Cmdable used here.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PermissionCache serves caller permissions from redis for ttl, falling back to next.
// Redis failures are logged and never fail the lookup.
type PermissionCache struct {
	store Store
	next  ports.PermissionRepository
	ttl   time.Duration
	log   zerolog.Logger
}

func NewPermissionCache(store Store, next ports.PermissionRepository, ttl time.Duration, log zerolog.Logger) *PermissionCache {
	return &PermissionCache{store: store, next: next, ttl: ttl, log: log}
}

type cachedPermissions struct {
	Customers []domain.CustomerID `json:"customers"`
	Projects  []domain.ProjectID  `json:"projects"`
}

func (c *PermissionCache) GetPermissions(ctx context.Context, subject string) (domain.Permissions, error) {
	key := permissionKeyPrefix + subject
	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cp cachedPermissions
		if err := json.Unmarshal(raw, &cp); err == nil {
			return domain.Permissions{Customers: cp.Customers, Projects: cp.Projects}, nil
		}
		c.log.Warn().Str("subject", subject).Msg("discarding malformed cached permissions")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("subject", subject).Msg("permission cache read failed")
	}

	perms, err := c.next.GetPermissions(ctx, subject)
	if err != nil {
		return domain.Permissions{}, err
	}
	body, _ := json.Marshal(cachedPermissions{Customers: perms.Customers, Projects: perms.Projects})
	if err := c.store.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("subject", subject).Msg("permission cache write failed")
	}
	return perms, nil
}

var _ ports.PermissionRepository = (*PermissionCache)(nil)
