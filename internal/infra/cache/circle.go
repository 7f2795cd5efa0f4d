package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/geo"
	"github.com/totegamma/biomap/internal/observability"
)

const (
	localTTL  = 30 * time.Minute
	sharedTTL = 24 * time.Hour
	keyPrefix = "biomap:circle:"
)

// Memcache is the subset of *memcache.Client the cache uses.
type Memcache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// CircleCache memoizes geo.Circle. Rings depend only on their inputs, so
// entries never go stale; TTLs just bound memory.
type CircleCache struct {
	local  *gocache.Cache
	shared Memcache
}

// NewCircleCache builds the cache. shared may be nil to run in-process only.
func NewCircleCache(shared Memcache) *CircleCache {
	return &CircleCache{
		local:  gocache.New(localTTL, 2*localTTL),
		shared: shared,
	}
}

func Key(center domain.Point, radiusKm float64, segments int) string {
	var buf [28]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(center.Lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(center.Long))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(radiusKm))
	binary.LittleEndian.PutUint32(buf[24:], uint32(segments))
	sum := xxh3.Hash128(buf[:]).Bytes()
	return fmt.Sprintf("%s%x", keyPrefix, sum)
}

func (c *CircleCache) Circle(ctx context.Context, center domain.Point, radiusKm float64, segments int) ([]geo.Coordinate, error) {
	key := Key(center, radiusKm, segments)

	if v, ok := c.local.Get(key); ok {
		observability.CircleCacheTotal.WithLabelValues("local", "hit").Inc()
		return v.([]geo.Coordinate), nil
	}
	observability.CircleCacheTotal.WithLabelValues("local", "miss").Inc()

	if ring, ok := c.getShared(ctx, key); ok {
		c.local.Set(key, ring, gocache.DefaultExpiration)
		return ring, nil
	}

	ring, err := geo.Circle(center, radiusKm, segments)
	if err != nil {
		return nil, err
	}

	c.local.Set(key, ring, gocache.DefaultExpiration)
	c.setShared(ctx, key, ring)
	return ring, nil
}

func (c *CircleCache) getShared(ctx context.Context, key string) ([]geo.Coordinate, bool) {
	if c.shared == nil {
		return nil, false
	}

	item, err := c.shared.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(
				ctx, "memcache get failed",
				slog.String("error", err.Error()),
				slog.String("module", "cache"),
			)
		}
		observability.CircleCacheTotal.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}

	var ring []geo.Coordinate
	if err := json.Unmarshal(item.Value, &ring); err != nil {
		observability.CircleCacheTotal.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}
	observability.CircleCacheTotal.WithLabelValues("shared", "hit").Inc()
	return ring, true
}

func (c *CircleCache) setShared(ctx context.Context, key string, ring []geo.Coordinate) {
	if c.shared == nil {
		return
	}

	value, err := json.Marshal(ring)
	if err != nil {
		return
	}
	err = c.shared.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(sharedTTL.Seconds()),
	})
	if err != nil {
		slog.WarnContext(
			ctx, "memcache set failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}
