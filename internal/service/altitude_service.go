package service

import (
	"context"
	"sync"

	"elevation-api/internal/metrics"
	"elevation-api/internal/models"

	"github.com/rs/zerolog/log"
)

// ElevationFetcher looks up live altitudes. Implementations never fail;
// an unusable reading signals that no altitude is available.
type ElevationFetcher interface {
	FetchAltitude(ctx context.Context, coord models.Coordinate) models.AltitudeReading
}

// AltitudeStore is the persistent altitude cache used when caching is enabled.
type AltitudeStore interface {
	FindNearbyAltitude(ctx context.Context, coord models.Coordinate) (*float64, error)
	SaveAltitude(ctx context.Context, coord models.Coordinate, altitude float64) error
}

// Options configures an AltitudeService.
type Options struct {
	UseAltitudeCache bool
	DefaultAltitude  float64
	AltitudeVariance int
	// Rand defaults to the global math/rand/v2 source.
	Rand    RandSource
	Metrics *metrics.Metrics
}

type fallbackState int

const (
	fallbackUnset fallbackState = iota
	fallbackResolved
	fallbackFailed
)

// AltitudeService resolves the altitude stamped on simulated positions.
//
// With caching disabled, the first live lookup is memoized for the lifetime
// of the service, whatever coordinate later callers ask for. A failed first
// lookup is memoized too and never retried.
type AltitudeService struct {
	fetcher ElevationFetcher
	store   AltitudeStore
	opts    Options

	mu            sync.Mutex
	fallback      fallbackState
	fallbackValue float64
}

// NewAltitudeService creates a new altitude service. store may be nil when
// opts.UseAltitudeCache is false.
func NewAltitudeService(fetcher ElevationFetcher, store AltitudeStore, opts Options) *AltitudeService {
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}
	return &AltitudeService{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
	}
}

// GetAltitude returns a jittered altitude for coord. It never fails; when no
// altitude can be found the configured default is jittered instead.
func (s *AltitudeService) GetAltitude(ctx context.Context, coord models.Coordinate) float64 {
	var (
		altitude float64
		ok       bool
		source   string
	)

	if !s.opts.UseAltitudeCache || s.store == nil {
		altitude, ok = s.FallbackAltitude(ctx, coord)
		source = metrics.SourceFallback
	} else {
		altitude, ok, source = s.cachedAltitude(ctx, coord)
	}

	if !ok {
		altitude = s.opts.DefaultAltitude
		source = metrics.SourceDefault
	}

	s.opts.Metrics.ObserveLookup(source)
	return Randomize(altitude, s.opts.AltitudeVariance, s.opts.Rand)
}

// FallbackAltitude returns the memoized altitude, fetching it on first use.
// The boolean is false when the first fetch failed. The fetch ignores
// cancellation of ctx; only the client timeout can fail it.
func (s *AltitudeService) FallbackAltitude(ctx context.Context, coord models.Coordinate) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fallback == fallbackUnset {
		reading := s.fetcher.FetchAltitude(context.WithoutCancel(ctx), coord)
		if reading.Usable() {
			s.fallback = fallbackResolved
			s.fallbackValue = *reading.Altitude
		} else {
			s.fallback = fallbackFailed
			log.Warn().
				Str("status", reading.Status).
				Msg("fallback altitude lookup failed, using configured default from now on")
		}
	}

	return s.fallbackValue, s.fallback == fallbackResolved
}

// CachedAltitude returns the cached altitude near coord, fetching and caching
// it on a miss. The boolean is false when neither source has a value.
func (s *AltitudeService) CachedAltitude(ctx context.Context, coord models.Coordinate) (float64, bool) {
	altitude, ok, _ := s.cachedAltitude(ctx, coord)
	return altitude, ok
}

func (s *AltitudeService) cachedAltitude(ctx context.Context, coord models.Coordinate) (float64, bool, string) {
	if s.store == nil {
		return 0, false, ""
	}

	cached, err := s.store.FindNearbyAltitude(ctx, coord)
	if err != nil {
		log.Error().Err(err).
			Float64("lat", coord.Latitude).
			Float64("lon", coord.Longitude).
			Msg("altitude cache lookup failed")
	}
	if err == nil && cached != nil {
		return *cached, true, metrics.SourceCache
	}

	reading := s.fetcher.FetchAltitude(ctx, coord)
	if !reading.Usable() {
		return 0, false, ""
	}

	altitude := *reading.Altitude
	if err := s.store.SaveAltitude(ctx, coord, altitude); err != nil {
		log.Error().Err(err).
			Float64("lat", coord.Latitude).
			Float64("lon", coord.Longitude).
			Msg("altitude cache write failed")
	}

	return altitude, true, metrics.SourceLive
}
