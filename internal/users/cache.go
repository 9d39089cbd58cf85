package users

import (
	"context"
	"strconv"
	"time"

	"workhub/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "workhub:user:name:"

// cacheClient is the part of *redis.Client the cache uses.
type cacheClient interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedDirectory serves display names from redis and fills misses from inner.
// Redis failures degrade to inner; they never fail a lookup.
type CachedDirectory struct {
	inner Directory
	rdb   cacheClient
	ttl   time.Duration
}

func NewCachedDirectory(inner Directory, rdb cacheClient, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{inner: inner, rdb: rdb, ttl: ttl}
}

func (d *CachedDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]Info, error) {
	ids = uniqueIDs(ids)
	out := make(map[int64]Info, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	log := logger.From(ctx)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	missing := ids
	vals, err := d.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn("user cache read failed", "err", err)
	} else {
		missing = nil
		for i, v := range vals {
			name, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = Info{UserID: ids[i], UserName: name}
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := d.inner.Lookup(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, info := range found {
		out[id] = info
		if err := d.rdb.Set(ctx, cacheKey(id), info.UserName, d.ttl).Err(); err != nil {
			log.Warn("user cache write failed", "user_id", id, "err", err)
		}
	}
	return out, nil
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}
