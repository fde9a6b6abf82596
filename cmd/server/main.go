package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forge-server/internal/ai"
	"forge-server/internal/config"
	ws "forge-server/internal/delivery/websocket"
	"forge-server/internal/handler"
	"forge-server/internal/logger"
	"forge-server/internal/middleware"
	"forge-server/internal/repository"
	"forge-server/internal/service"
	"forge-server/internal/storage"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; containers get their environment from the orchestrator.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))
	cfg.LogSummary(log)

	// --- Storage ---
	var store storage.KeyValueStore
	var redisClient *redis.Client
	switch cfg.StorageBackend {
	case "memory":
		store = storage.NewMemoryStore()
		zap.L().Info("Using in-memory storage backend")
	default:
		redisClient, err = setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = storage.NewRedisStore(redisClient, log)
		zap.L().Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	// --- Repositories ---
	gameRepo := repository.NewGameRepository(store, log)
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gameRepo.Init(initCtx); err != nil {
		initCancel()
		zap.L().Fatal("Failed to initialize game collection", zap.Error(err))
	}
	initCancel()
	sessionRepo := repository.NewSessionRepository(store, log)

	// --- AI Gateway ---
	aiClient, err := ai.New(ai.Config{
		ClientType:     cfg.AIClientType,
		BaseURL:        cfg.AIBaseURL,
		APIKey:         cfg.AIAPIKey,
		Model:          cfg.AIModel,
		ImageModel:     cfg.AIImageModel,
		Timeout:        cfg.AITimeout,
		MaxAttempts:    cfg.AIMaxAttempts,
		BaseRetryDelay: cfg.AIBaseRetryDelay,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}

	// --- Services ---
	clock := service.NewRealClock()
	wsManager := ws.NewManager(log)
	notifier := ws.NewForgeNotifier(wsManager)

	authSvc := service.NewAuthService(sessionRepo, clock, cfg.AuthDelay, cfg.JWTSecret, cfg.AccessTokenTTL, log)
	projectSvc := service.NewProjectService(gameRepo, log)
	wizardSvc := service.NewWizardService(aiClient, log)
	forgeSvc := service.NewForgeService(aiClient, gameRepo, notifier, clock, cfg.ForgeStageInterval, log)
	editorSvc := service.NewEditorService(gameRepo, log)
	copilotSvc := service.NewCopilotService(editorSvc, sessionRepo, aiClient, log)

	wsHandler := ws.NewHandler(wsManager, authSvc, log)
	apiHandler := handler.New(authSvc, projectSvc, wizardSvc, forgeSvc, editorSvc, copilotSvc, sessionRepo, wsHandler, log)

	// --- Rate Limiter (credential endpoints) ---
	var rateLimitStore ratelimit.Store
	if redisClient != nil {
		rateLimitStore = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       10,
		})
	} else {
		rateLimitStore = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: 10,
		})
	}
	rateLimitMiddleware := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.String(http.StatusTooManyRequests, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddleware(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	apiHandler.RegisterRoutes(router, rateLimitMiddleware)

	// Prometheus middleware goes on after route registration so it picks up
	// the final route set.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	var client *redis.Client
	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect and ping Redis",
		zap.String("address", redisOpts.Addr),
		zap.Int("max_retries", maxRetries),
		zap.Duration("retry_delay", retryDelay),
	)

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client = redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
