package repository

import (
	"context"
	"errors"
	"fmt"

	"elevation-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultNearbyRadius is the distance in meters within which cached samples
// count as the altitude of a coordinate.
const DefaultNearbyRadius = 70.0

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS location_altitude (
		id BIGSERIAL PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		altitude DOUBLE PRECISION NOT NULL,
		last_modified TIMESTAMPTZ NOT NULL DEFAULT now(),
		geom GEOGRAPHY(POINT, 4326) NOT NULL,
		UNIQUE (latitude, longitude)
	);

	CREATE INDEX IF NOT EXISTS location_altitude_geom_idx ON location_altitude USING GIST (geom);
`

// PostgresAltitudeRepository caches altitudes in a PostGIS table
type PostgresAltitudeRepository struct {
	db     *pgxpool.Pool
	radius float64
}

// NewPostgresAltitudeRepository creates a new PostgreSQL altitude cache.
// A non-positive radius falls back to DefaultNearbyRadius.
func NewPostgresAltitudeRepository(db *pgxpool.Pool, radius float64) *PostgresAltitudeRepository {
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}
	return &PostgresAltitudeRepository{db: db, radius: radius}
}

// EnsureSchema creates the location_altitude table and its spatial index
func (r *PostgresAltitudeRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return errors.New("repository: db is nil")
	}

	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// FindNearbyAltitude averages the cached altitudes within the radius of coord.
// It returns nil when nothing is cached nearby.
func (r *PostgresAltitudeRepository) FindNearbyAltitude(ctx context.Context, coord models.Coordinate) (*float64, error) {
	if r.db == nil {
		return nil, errors.New("repository: db is nil")
	}

	sql := `
		SELECT AVG(altitude)
		FROM location_altitude
		WHERE ST_DWithin(geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
	`

	var altitude *float64
	if err := r.db.QueryRow(ctx, sql, coord.Latitude, coord.Longitude, r.radius).Scan(&altitude); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to execute nearby altitude query: %w", err)
	}

	return altitude, nil
}

// SaveAltitude stores the altitude of coord, replacing an earlier sample at the same point
func (r *PostgresAltitudeRepository) SaveAltitude(ctx context.Context, coord models.Coordinate, altitude float64) error {
	if r.db == nil {
		return errors.New("repository: db is nil")
	}

	sql := `
		INSERT INTO location_altitude (latitude, longitude, altitude, geom)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography)
		ON CONFLICT (latitude, longitude) DO UPDATE
		SET altitude = EXCLUDED.altitude,
			last_modified = now()
	`

	if _, err := r.db.Exec(ctx, sql, coord.Latitude, coord.Longitude, altitude); err != nil {
		return fmt.Errorf("repository: failed to save altitude lat=%v lon=%v: %w", coord.Latitude, coord.Longitude, err)
	}
	return nil
}

// ImportAltitudes bulk loads records in one transaction and returns the
// number of rows written. Duplicate coordinates keep a single sample.
func (r *PostgresAltitudeRepository) ImportAltitudes(ctx context.Context, records []models.LocationAltitude) (int64, error) {
	if r.db == nil {
		return 0, errors.New("repository: db is nil")
	}

	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: import begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE location_altitude_import (
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			altitude DOUBLE PRECISION
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, fmt.Errorf("repository: import create staging table: %w", err)
	}

	// COPY cannot resolve conflicts, so rows are staged and then upserted.
	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"location_altitude_import"},
		[]string{"latitude", "longitude", "altitude"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{rec.Latitude, rec.Longitude, rec.Altitude}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: import copy records: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO location_altitude (latitude, longitude, altitude, geom)
		SELECT DISTINCT ON (latitude, longitude)
			latitude,
			longitude,
			altitude,
			ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography
		FROM location_altitude_import
		ORDER BY latitude, longitude
		ON CONFLICT (latitude, longitude) DO UPDATE
		SET altitude = EXCLUDED.altitude,
			last_modified = now()
	`)
	if err != nil {
		return 0, fmt.Errorf("repository: import upsert records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: import commit tx: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountAltitudes returns the number of cached samples
func (r *PostgresAltitudeRepository) CountAltitudes(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, errors.New("repository: db is nil")
	}

	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM location_altitude").Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count altitudes: %w", err)
	}
	return count, nil
}
