package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"elevation-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces the keys of RedisAltitudeStore.
const DefaultRedisKeyPrefix = "location_altitude"

// RedisAltitudeStore caches altitudes in a Redis geo set.
// Points live in {prefix}:geo and their altitudes in the {prefix}:values hash,
// both keyed by the "lat,lon" member name.
type RedisAltitudeStore struct {
	rdb       *redis.Client
	radius    float64
	geoKey    string
	valuesKey string
}

// NewRedisAltitudeStore creates a Redis altitude cache.
// A non-positive radius falls back to DefaultNearbyRadius.
func NewRedisAltitudeStore(rdb *redis.Client, radius float64, prefix string) *RedisAltitudeStore {
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisAltitudeStore{
		rdb:       rdb,
		radius:    radius,
		geoKey:    prefix + ":geo",
		valuesKey: prefix + ":values",
	}
}

// FindNearbyAltitude averages the cached altitudes within the radius of coord.
func (s *RedisAltitudeStore) FindNearbyAltitude(ctx context.Context, coord models.Coordinate) (*float64, error) {
	if s.rdb == nil {
		return nil, errors.New("repository: redis client is nil")
	}

	members, err := s.rdb.GeoRadius(ctx, s.geoKey, coord.Longitude, coord.Latitude, &redis.GeoRadiusQuery{
		Radius: s.radius,
		Unit:   "m",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query nearby points: %w", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}

	values, err := s.rdb.HMGet(ctx, s.valuesKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read nearby altitudes: %w", err)
	}

	var sum float64
	var n int
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// geo member without a value, written by an interrupted save
			continue
		}
		alt, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("repository: invalid altitude for %q: %w", names[i], err)
		}
		sum += alt
		n++
	}

	if n == 0 {
		return nil, nil
	}

	avg := sum / float64(n)
	return &avg, nil
}

// SaveAltitude stores the altitude of coord, replacing an earlier sample at the same point.
func (s *RedisAltitudeStore) SaveAltitude(ctx context.Context, coord models.Coordinate, altitude float64) error {
	if s.rdb == nil {
		return errors.New("repository: redis client is nil")
	}

	member := memberName(coord)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, s.geoKey, &redis.GeoLocation{
			Name:      member,
			Longitude: coord.Longitude,
			Latitude:  coord.Latitude,
		})
		pipe.HSet(ctx, s.valuesKey, member, strconv.FormatFloat(altitude, 'f', -1, 64))
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: failed to save altitude %s: %w", member, err)
	}
	return nil
}

func memberName(coord models.Coordinate) string {
	return strconv.FormatFloat(coord.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(coord.Longitude, 'f', -1, 64)
}
