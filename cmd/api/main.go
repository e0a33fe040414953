package main

import (
	"context"

	"elevation-api/internal/config"
	"elevation-api/internal/elevation"
	"elevation-api/internal/handler"
	"elevation-api/internal/metrics"
	"elevation-api/internal/repository"
	"elevation-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", config.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if config.GMapsKey == "" {
		log.Warn().Msg("GMAPS_KEY is empty, live altitude lookups will fail and fall back to the default")
	}

	reg := prometheus.NewRegistry()
	serviceMetrics, err := metrics.New(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot register metrics")
	}

	ctx := context.Background()

	// Initialize layers
	client := elevation.NewClient(config.GMapsKey,
		elevation.WithBaseURL(config.ElevationURL),
		elevation.WithMetrics(serviceMetrics),
	)

	var store service.AltitudeStore
	if config.UseAltitudeCache {
		switch config.CacheBackend {
		case "redis":
			rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
			defer rdb.Close()

			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Fatal().Err(err).Str("addr", config.RedisAddr).Msg("cannot connect to redis")
			}
			store = repository.NewRedisAltitudeStore(rdb, config.CacheRadius, repository.DefaultRedisKeyPrefix)
		default:
			conn, err := pgxpool.New(ctx, config.DBSource)
			if err != nil {
				log.Fatal().Err(err).Msg("cannot connect to db")
			}
			defer conn.Close()

			repo := repository.NewPostgresAltitudeRepository(conn, config.CacheRadius)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Fatal().Err(err).Msg("cannot prepare altitude cache schema")
			}
			store = repo
		}
	}

	altitudeService := service.NewAltitudeService(client, store, service.Options{
		UseAltitudeCache: config.UseAltitudeCache,
		DefaultAltitude:  config.Altitude,
		AltitudeVariance: config.AltitudeVariance,
		Metrics:          serviceMetrics,
	})
	altitudeHandler := handler.NewAltitudeHandler(altitudeService)

	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(altitudeHandler, serviceMetrics.Handler())

	log.Info().
		Str("addr", config.ServerAddress).
		Bool("altitude_cache", config.UseAltitudeCache).
		Str("cache_backend", config.CacheBackend).
		Msg("starting server")

	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
