package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/api"
	"github.com/hoopsight/prop-engine/internal/api/handlers"
	"github.com/hoopsight/prop-engine/internal/api/middleware"
	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/providers"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/config"
	"github.com/hoopsight/prop-engine/pkg/database"
	"github.com/hoopsight/prop-engine/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger("", cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Storage and cache layers
	repo := repository.NewGormRepository(db)
	cacheData := cache.NewCacheService(redisClient, log, cfg.GeneralCacheTTL, cfg.VolatileCacheTTL)
	cacheSync := cache.NewCacheSyncService(cache.NewLockRegistry(), log,
		cfg.LockRetryAttempts, cfg.LockRetryDelay, cfg.LockRetryMultiplier, cfg.LockSweepInterval)
	if err := cacheSync.Start(); err != nil {
		log.Fatalf("Failed to start cache sync service: %v", err)
	}
	defer cacheSync.Stop()

	// Scoring pipeline
	restSvc := services.NewRestImpactService(repo, log, cfg.RecentGamesWindow)
	blowoutSvc := services.NewBlowoutRiskService(repo, repo, log, cfg.BlowoutRiskThreshold)
	contextSvc := services.NewGameContextService(repo, repo, log, cfg.RecentGamesWindow)
	advancedSvc := services.NewAdvancedMetricsService(repo, log)
	confidenceSvc := services.NewConfidenceService(restSvc, blowoutSvc, contextSvc, advancedSvc,
		repo, log, cfg.ConfidenceDecay, cfg.BaselineGamesWindow)

	// Nightly ingestion from the stats provider
	if cfg.EnableStatsSync {
		statsClient := providers.NewStatsAPIClient(providers.StatsAPIConfig{
			BaseURL:           cfg.StatsAPIBaseURL,
			APIKey:            cfg.StatsAPIKey,
			RequestsPerSecond: float64(cfg.StatsAPIRateLimit),
			Timeout:           cfg.StatsAPITimeout,
			BreakerThreshold:  uint32(cfg.CircuitBreakerThreshold),
		}, log)
		statsSync := services.NewStatsSyncService(db, statsClient, cacheSync, cacheData, log, cfg.StatsSyncSchedule)
		if err := statsSync.Start(); err != nil {
			log.Fatalf("Failed to start stats sync service: %v", err)
		}
		defer statsSync.Stop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db, redisClient)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Deps{
		DB:         db,
		Redis:      redisClient,
		Games:      repo,
		Stats:      repo,
		Confidence: confidenceSvc,
		Rest:       restSvc,
		Blowout:    blowoutSvc,
		Context:    contextSvc,
		Advanced:   advancedSvc,
		CacheData:  cacheData,
		CacheSync:  cacheSync,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
