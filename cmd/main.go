package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Jawa090/Rush-Management-system-sub000/config"
	"github.com/Jawa090/Rush-Management-system-sub000/db"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/audit"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/handler"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/middleware"
	repo "github.com/Jawa090/Rush-Management-system-sub000/internal/auth/repository/postgres"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/service"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresRepository(dbPool)
	auditor := audit.NewPG(dbPool)
	tokenService := service.NewTokenService(
		cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin,
		cfg.Issuer, cfg.Audience,
	)
	userService := service.NewUserService(userRepo, tokenService, auditor, cfg)

	limiter := ratelimit.New(cfg.LoginMaxAttempts, cfg.LoginWindow)
	limiter.StartPurge(cfg.LimiterPurgeEvery)
	defer limiter.Stop()

	sweepStop := make(chan struct{})
	userService.StartSweeper(ctx, cfg.SessionSweepEvery, sweepStop)
	defer close(sweepStop)

	authenticator := middleware.NewAuthenticator(tokenService, userRepo, auditor)
	authHandler := handler.NewAuthHandler(userService, limiter, auditor, cfg.Env, tokenService.GetRefreshTokenExpiry())

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, authenticator)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
