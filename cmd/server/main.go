package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "studyquest-server/docs"
	"studyquest-server/internal/app"
	"studyquest-server/internal/config"
	"studyquest-server/internal/database"
	"studyquest-server/internal/handler"
	"studyquest-server/internal/lock"
	"studyquest-server/internal/logger"
	"studyquest-server/internal/messaging"
	"studyquest-server/internal/middleware"
	"studyquest-server/internal/repository"
	"studyquest-server/internal/story"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	log.Println("Запуск StudyQuest сервера...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Env: cfg.Env, Service: "studyquest-server"})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	zapLogger.Info("Logger initialized", zap.String("level", cfg.LogLevel), zap.String("env", cfg.Env))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	redisClient, err := app.SetupRedis(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	storyRepo, closeRepo, err := setupStoryRepository(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize story storage", zap.Error(err))
	}
	defer closeRepo()

	themeStore, err := app.NewThemeStore(cfg, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize theme store", zap.Error(err))
	}

	generator, err := app.NewGenerator(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create AI client", zap.Error(err))
	}

	publisher, closePublisher := setupPublisher(cfg, zapLogger)
	defer closePublisher()

	manager := story.NewManager(storyRepo, themeStore, generator, zapLogger,
		story.WithTemperature(cfg.AITemperature),
		story.WithLocker(setupLocker(cfg, redisClient, zapLogger)),
		story.WithPublisher(publisher),
	)

	themeScraper, err := app.NewScraper(cfg, themeStore, nil, 0, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create scraper", zap.Error(err))
	}

	storyHandler := handler.NewStoryHandler(manager, themeScraper, zapLogger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(zapLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
		zapLogger.Info("CORS_ALLOWED_ORIGINS not set, allowing all origins")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	storyHandler.RegisterRoutes(router, handler.NewInitRateLimiter(redisClient, uint(cfg.InitRateLimit)))

	// метрики подключаются после регистрации маршрутов
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second, // генерация и /init заметно дольше обычного запроса
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

// setupStoryRepository выбирает хранилище историй по STORAGE_DRIVER.
func setupStoryRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.StoryRepository, func(), error) {
	noop := func() {}
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.ConnectPostgres(ctx, database.PostgresConfig{
			DSN:         cfg.GetDSN(),
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: cfg.DBIdleTimeout,
			MaxRetries:  10,
			RetryDelay:  3 * time.Second,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := database.NewMigrator(cfg.GetDSN(), logger).Up(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("apply migrations: %w", err)
		}
		return repository.NewPgStoryRepository(pool, logger), pool.Close, nil

	case config.StorageSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using SQLite story storage", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLiteStoryRepository(db, logger), func() { _ = db.Close() }, nil

	case config.StorageMemory:
		logger.Warn("Using in-memory story storage, data is lost on restart")
		return repository.NewMemoryStoryRepository(), noop, nil

	default:
		repo, err := repository.NewFileStoryRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	}
}

func setupLocker(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) lock.Locker {
	if cfg.LockDriver == config.LockRedis && redisClient != nil {
		logger.Info("Using Redis user locks", zap.Duration("ttl", cfg.LockTTL))
		return lock.NewRedis(redisClient, cfg.LockTTL, logger)
	}
	return lock.NewLocal()
}

// setupPublisher подключает RabbitMQ, если задан RABBITMQ_URL. Ошибка подключения не фатальна.
func setupPublisher(cfg *config.Config, logger *zap.Logger) (messaging.StoryUpdatePublisher, func()) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, story update events disabled")
		return messaging.NopPublisher{}, func() {}
	}
	conn, err := messaging.ConnectRabbitMQ(cfg.RabbitMQURL, 5, 3*time.Second, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, story update events disabled", zap.Error(err))
		return messaging.NopPublisher{}, func() {}
	}
	pub, err := messaging.NewRabbitMQStoryPublisher(conn, cfg.StoryUpdatesQueue, logger)
	if err != nil {
		logger.Error("Failed to create story publisher", zap.Error(err))
		conn.Close()
		return messaging.NopPublisher{}, func() {}
	}
	return pub, func() { conn.Close() }
}
