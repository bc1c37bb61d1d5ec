package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"glyphAPI/internal/cache"
	"glyphAPI/internal/config"
	"glyphAPI/internal/logger"
	"glyphAPI/internal/metrics"
	"glyphAPI/internal/repository"
	"glyphAPI/internal/repository/memory"
	"glyphAPI/middleware"
	"glyphAPI/services"

	_ "net/http/pprof"
)

type app struct {
	cfg   *config.Config
	store services.Store

	glyphService       *services.GlyphService
	discoveryService   *services.DiscoveryService
	streakService      *services.StreakService
	interactionService *services.InteractionService
	photoService       *services.PhotoService
	shareService       *services.ShareService
	userService        *services.UserService

	closers []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup("info", "console")
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	metrics.Register()

	if cfg.ClerkSecretKey == "" {
		log.Warn().Msg("CLERK_SECRET_KEY is not set, every protected request will be rejected")
	}
	clerk.SetKey(cfg.ClerkSecretKey)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	a, err := setup(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.close()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)
	go limiter.CleanupVisitors(rootCtx, time.Minute, 3*time.Minute)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router(limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Error starting server")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server shutdown complete")
}

// setup connects storage, cache and object storage and builds the services.
func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		a.store = memory.New()
	default:
		pool, err := openPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			log.Info().Msg("Closing database connection pool")
			pool.Close()
		})
		if cfg.AutoMigrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				a.close()
				return nil, err
			}
		}
		a.store = repository.NewPostgres(pool)
	}

	var glyphCache services.GlyphCache
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, glyph cache disabled")
			client.Close()
		} else {
			glyphCache = cache.NewGlyphCache(client, cfg.GlyphCacheTTL)
			a.closers = append(a.closers, func() { client.Close() })
			log.Info().Str("addr", cfg.RedisAddr).Msg("Glyph cache enabled")
		}
	}

	a.glyphService = services.NewGlyphService(a.store, glyphCache, cfg.MaxGPSAccuracyMeters)
	a.streakService = services.NewStreakService(a.store, cfg.Location())
	a.discoveryService = services.NewDiscoveryService(
		a.glyphService, a.store, a.streakService, cfg.DiscoveryRadiusMeters, cfg.MaxSearchRadiusMeters,
	)
	a.interactionService = services.NewInteractionService(a.glyphService, a.store, glyphCache)
	a.shareService = services.NewShareService(a.glyphService)
	a.userService = services.NewUserService(a.store)

	if cfg.S3Enabled() {
		client, err := services.NewS3Client(ctx, services.S3Options{
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		publicBase := cfg.S3PublicBaseURL
		if publicBase == "" {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
		a.photoService = services.NewPhotoService(client, s3.NewPresignClient(client), a.glyphService, cfg.S3Bucket, publicBase)
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Glyph photo storage enabled")
	}

	return a, nil
}

func openPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to database")
	return pool, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
