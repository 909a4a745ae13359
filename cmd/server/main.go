package main

// @title           Bounce API
// @version         1.0
// @description     Social backend for the Bounce event app: feed, check-ins, bounces and realtime notifications.
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounce-service/internal/admin"
	"bounce-service/internal/auth"
	"bounce-service/internal/bounce"
	"bounce-service/internal/checkin"
	"bounce-service/internal/config"
	"bounce-service/internal/database"
	"bounce-service/internal/events"
	"bounce-service/internal/geo"
	"bounce-service/internal/livestream"
	"bounce-service/internal/location"
	"bounce-service/internal/models"
	"bounce-service/internal/post"
	"bounce-service/internal/realtime"
	"bounce-service/internal/router"
	"bounce-service/internal/user"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Local development convenience; deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)
	log.Info("Starting bounce server")

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	storage, err := database.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer producer.Close()

	// Realtime hub and its relay loop.
	transport := realtime.NewRedisTransport(redisClient.GetClient())
	hub := realtime.NewHub(transport, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go hub.Run(ctx)

	// Repositories and services.
	authRepo := auth.NewAuthRepository(db)
	if err := ensureAdmin(ctx, authRepo, cfg.Admin); err != nil {
		log.Error("Admin bootstrap failed", "error", err)
		os.Exit(1)
	}
	authService := auth.NewService(authRepo, auth.NewDisabledAppleVerifier(),
		cfg.JWT.Secret, cfg.JWT.AccessExpire, cfg.JWT.RefreshExpire)

	userRepo := user.NewUserRepository(db)
	userService := user.NewUserService(userRepo, hub, storage, producer, log)

	postRepo := post.NewPostRepository(db)
	postService := post.NewPostService(postRepo, hub, storage, producer, log)

	fence := geo.Fence{
		CenterLat: cfg.Geofence.CenterLat,
		CenterLon: cfg.Geofence.CenterLon,
		RadiusKM:  cfg.Geofence.RadiusKM,
	}
	checkInService := checkin.NewCheckInService(checkin.NewCheckInRepository(db), fence, producer)

	bounceService := bounce.NewBounceService(bounce.NewBounceRepository(db), hub, producer, log)

	locationService := location.NewLocationService(location.NewLocationRepository(db), hub, cfg.Locations.TTL, log)
	cleaner := location.NewCleaner(locationService, cfg.Locations.CleanupInterval, log)
	go cleaner.Run(ctx)

	livestreamService := livestream.NewLivestreamService(livestream.NewLivestreamRepository(db), producer)

	adminService := admin.NewAdminService(admin.NewAdminRepository(db))

	engine := router.New(router.Dependencies{
		AuthService:       authService,
		UserService:       userService,
		PostService:       postService,
		CheckInService:    checkInService,
		BounceService:     bounceService,
		LocationService:   locationService,
		LivestreamService: livestreamService,
		AdminService:      adminService,
		FeedHandler:       realtime.NewHandler(hub, authService, userService, postService),
		Tracker:           livestream.NewTracker(livestreamService, authService, log),
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Log:               log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server stopped")
}

// ensureAdmin creates the configured admin account on first boot so the
// console is reachable on a fresh database.
func ensureAdmin(ctx context.Context, repo auth.AuthRepository, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Passcode == "" {
		return nil
	}

	if _, err := repo.FindUserByEmail(ctx, cfg.Email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Passcode), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return repo.CreateUser(ctx, &models.User{
		Email:    cfg.Email,
		Nickname: "admin",
		Passcode: string(hash),
		IsAdmin:  true,
	})
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
