package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/foliofyhq/foliofy/internal/api/handlers"
	"github.com/foliofyhq/foliofy/internal/api/router"
	"github.com/foliofyhq/foliofy/internal/config"
	"github.com/foliofyhq/foliofy/internal/identity"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/password"
	"github.com/foliofyhq/foliofy/internal/pkg/validator"
	"github.com/foliofyhq/foliofy/internal/repository/postgres"
	"github.com/foliofyhq/foliofy/internal/services"
	"github.com/foliofyhq/foliofy/internal/token"
	"github.com/foliofyhq/foliofy/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.FS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	tokens := token.New(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})

	var googleVerifier identity.Verifier
	if cfg.Google.ClientID != "" {
		googleVerifier = identity.NewGoogleVerifier(cfg.Google.ClientID)
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set, Google login disabled")
	}

	userRepo := postgres.NewUserRepository(db, cfg.Database.QueryTimeout)
	hasher := password.NewHasher(cfg.Auth.BCryptCost)
	accounts := services.NewAccountService(userRepo, hasher, googleVerifier, log)
	entitlements := services.NewEntitlementService(userRepo, log)

	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(db, log),
		Auth:         handlers.NewAuthHandler(accounts, tokens, cfg, log, val),
		Subscription: handlers.NewSubscriptionHandler(entitlements, log, val),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(cfg, log, tokens, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Forced shutdown: %v", err)
	}

	log.Info("Server stopped")
}
