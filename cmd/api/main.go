package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pageza/recipebook/config"
	"github.com/pageza/recipebook/internal/api"
	"github.com/pageza/recipebook/internal/database"
	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/middleware"
	"github.com/pageza/recipebook/internal/router"
	"github.com/pageza/recipebook/internal/server"
	"github.com/pageza/recipebook/internal/service"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Environment.LogMode())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	gin.SetMode(cfg.Environment.GinMode())

	if err := run(context.Background(), cfg, appLog); err != nil {
		appLog.Fatal("server exited with error", "error", err)
	}
	appLog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger) error {
	photos, err := newPhotoService(ctx, cfg, appLog)
	if err != nil {
		return err
	}

	recipes, err := service.NewRecipeService(cfg.DataFile, photos, appLog)
	if err != nil {
		return fmt.Errorf("failed to load recipes: %w", err)
	}

	opts := router.Options{CORSAllowedOrigins: cfg.CORSAllowedOrigins}

	if cfg.PhotoBackend == config.PhotoBackendLocal {
		opts.UploadsDir = cfg.UploadsDir

		reclaimer := service.NewReclaimer(cfg.UploadsDir, recipes, appLog)
		reclaimer.Run(ctx)

		if cfg.OrphanSweepSchedule != "" {
			sweeps, err := reclaimer.Schedule(cfg.OrphanSweepSchedule)
			if err != nil {
				return err
			}
			sweeps.Start()
			defer sweeps.Stop()
		}
	}

	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, appLog)
		if err != nil {
			// Continue without rate limiting if Redis is not available
			appLog.Warn("rate limiting disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts.Limiter = middleware.NewMutationRateLimiter(redisClient, cfg.RateLimitPerMinute, appLog)
		}
	}

	views, err := api.NewViews()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	recipeHandler := api.NewRecipeHandler(recipes, photos, views, cfg.MaxUploadBytes(), appLog)

	srv := server.NewServer(cfg.Addr(), router.SetupRouter(recipeHandler, appLog, opts), appLog)
	return srv.Start(ctx)
}

func newPhotoService(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (service.IPhotoService, error) {
	if cfg.PhotoBackend != config.PhotoBackendS3 {
		photos, err := service.NewLocalPhotoService(cfg.UploadsDir, appLog)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local photo storage: %w", err)
		}
		appLog.Info("using local photo storage", "dir", cfg.UploadsDir)
		return photos, nil
	}

	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.S3SetupPolicy {
		if err := s3Config.SetupBucketPolicy(ctx); err != nil {
			return nil, fmt.Errorf("failed to apply bucket policy: %w", err)
		}
	}

	photos, err := service.NewS3PhotoService(s3Config.Client, service.S3PhotoOptions{
		Bucket:        s3Config.BucketName,
		KeyPrefix:     s3Config.KeyPrefix,
		PublicBaseURL: s3Config.PublicBaseURL,
		StagingDir:    cfg.StagingDir,
	}, appLog)
	if err != nil {
		return nil, err
	}
	appLog.Info("using S3 photo storage", "bucket", s3Config.BucketName, "region", s3Config.Region)
	return photos, nil
}
