package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/message-drop-be/internal/api"
	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/config"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/logger"
	"github.com/isdelr/message-drop-be/internal/monitoring"
	"github.com/isdelr/message-drop-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Session signing key
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.CookieSecure)
	if err != nil {
		log.Fatal().Err(err).Msg("Refusing to start without a strong JWT_SECRET")
	}

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid BCRYPT_COST")
	}

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	log.Info().Str("dialect", string(db.Dialect)).Msg("Database ready")

	// Set up services
	userService := services.NewUserService(db, hasher)
	dropService := services.NewDropService(db)
	viewService := services.NewViewService(db)
	messageService := services.NewMessageService(db, dropService, hasher)
	unlockService := services.NewUnlockService(messageService, viewService, hasher)

	// Set up and run the background heartbeat
	var heartbeat *monitoring.Heartbeat
	if cfg.HeartbeatSchedule != "" {
		heartbeat, err = monitoring.NewHeartbeat(cfg.HeartbeatSchedule, db, viewService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up heartbeat")
		}
		heartbeat.Run()
	}

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Issuer:         issuer,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DB:             db,
		Users:          userService,
		Drops:          dropService,
		Messages:       messageService,
		Views:          viewService,
		Unlock:         unlockService,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Message Drop server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if heartbeat != nil {
		heartbeat.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
