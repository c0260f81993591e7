package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/handler"
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/internal/storage"
	"github.com/fittrack/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize file-based logging
	if err := middleware.InitLogger("logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)
	store := cache.New(rdb)

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(tokenRepo, userRepo, cfg.JWT)
	authService := service.NewAuthService(userRepo, tokenService, store, cfg.RateLimit)
	userService := service.NewUserService(userRepo, store, cfg.Cache)
	goalService := service.NewGoalService(goalRepo, store)
	exerciseService := service.NewExerciseService(exerciseRepo)
	banners := storage.NewLocalBannerStore(cfg.Storage.BannerDir)
	workoutService := service.NewWorkoutService(workoutRepo, exerciseRepo, banners, store)
	recService := service.NewRecommendationService(goalRepo, workoutRepo, store, cfg.Cache)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, tokenService)
	userHandler := handler.NewUserHandler(userService)
	goalHandler := handler.NewGoalHandler(goalService)
	exerciseHandler := handler.NewExerciseHandler(exerciseService)
	workoutHandler := handler.NewWorkoutHandler(workoutService)
	recHandler := handler.NewRecommendationHandler(recService)

	// Create Gin router
	router := gin.Default()

	// Request logging + token validation on every route; per-operation
	// policies gate the protected ones
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(middleware.Authenticate(tokenService))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	api := router.Group("/")
	{
		authHandler.RegisterRoutes(api)
		userHandler.RegisterRoutes(api)
		goalHandler.RegisterRoutes(api)
		exerciseHandler.RegisterRoutes(api)
		workoutHandler.RegisterRoutes(api)
		recHandler.RegisterRoutes(api)
	}

	// Start the maintenance worker
	maintenanceWorker := worker.NewMaintenanceWorker(goalRepo, tokenService, store, cfg.Worker.Interval())
	go maintenanceWorker.Start()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	maintenanceWorker.Stop()

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.FitnessGoal{},
		&models.Exercise{},
		&models.WorkoutPlan{},
		&models.WorkoutExercise{},
		&models.GoalWorkoutMapping{},
	)
}
