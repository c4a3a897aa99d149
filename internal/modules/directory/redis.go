// README: Redis-backed directory using GEO commands plus a per-driver hash.
package directory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"uride/internal/types"
)

const (
	driverGeoKey        = "directory:drivers"
	driverMetaKeyPrefix = "directory:driver:%s"
)

type RedisDirectory struct {
	redis *redis.Client
}

func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{redis: client}
}

func (d *RedisDirectory) SetAvailability(ctx context.Context, id types.ID, pos types.Point, available bool) error {
	pipe := d.redis.Pipeline()
	if available {
		pipe.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
			Name:      string(id),
			Longitude: pos.Lng,
			Latitude:  pos.Lat,
		})
	} else {
		pipe.ZRem(ctx, driverGeoKey, string(id))
	}
	pipe.HSet(ctx, metaKey(id), "available", strconv.FormatBool(available))
	_, err := pipe.Exec(ctx)
	return err
}

func (d *RedisDirectory) SetRating(ctx context.Context, id types.ID, rating float64) error {
	return d.redis.HSet(ctx, metaKey(id), "rating", rating).Err()
}

// Nearby returns available drivers within radiusMeters of p, nearest first.
// Only drivers in the GEO set are candidates; going offline removes the
// member, so the availability field is a consistency backstop.
func (d *RedisDirectory) Nearby(ctx context.Context, p types.Point, radiusMeters float64) ([]Driver, error) {
	results, err := d.redis.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, err
	}

	drivers := make([]Driver, 0, len(results))
	for _, r := range results {
		id := types.ID(r.Name)
		meta, err := d.redis.HGetAll(ctx, metaKey(id)).Result()
		if err != nil {
			return nil, err
		}
		drv := Driver{
			ID:        id,
			Location:  types.Point{Lat: r.Latitude, Lng: r.Longitude},
			Available: meta["available"] != "false",
			Rating:    5.0,
		}
		if v, ok := meta["rating"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				drv.Rating = f
			}
		}
		drivers = append(drivers, drv)
	}
	return drivers, nil
}

func metaKey(id types.ID) string {
	return fmt.Sprintf(driverMetaKeyPrefix, string(id))
}
