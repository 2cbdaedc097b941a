package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/application/usecase"
	"github.com/chtmcooks/auth-service/infrastructure/adapter/postgres"
	redisadapter "github.com/chtmcooks/auth-service/infrastructure/adapter/redis"
	"github.com/chtmcooks/auth-service/infrastructure/config"
	"github.com/chtmcooks/auth-service/infrastructure/http/handler"
	"github.com/chtmcooks/auth-service/infrastructure/http/router"
	"github.com/chtmcooks/auth-service/infrastructure/service/email"
	"github.com/chtmcooks/auth-service/infrastructure/service/jwt"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/infrastructure/service/password"
	"github.com/chtmcooks/auth-service/infrastructure/service/ratelimit"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

const serviceName = "auth-service"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		CorrelationIDHeader: cfg.LogCorrelationIDHeader,
		EnableRequestLog:    cfg.LogEnableRequestLog,
		ServiceName:         serviceName,
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":          cfg.Environment,
		"redis_client": cfg.RedisClient,
	})

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	structuredLogger.Info(ctx, "Database connection established", nil)

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, "up"); err != nil {
			structuredLogger.Error(ctx, "Failed to run migrations", err, nil)
			log.Fatalf("Failed to run migrations: %v", err)
		}
		structuredLogger.Info(ctx, "Migrations applied", nil)
	}

	// one client for the life of the process, shared by every limiter call
	store, closer, err := newWindowStore(cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Invalid Redis configuration", err, map[string]interface{}{
			"redis_client": cfg.RedisClient,
		})
		log.Fatalf("Invalid Redis configuration: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.StoreTimeout)
	err = store.Ping(pingCtx)
	cancelPing()
	if err != nil {
		// the limiter fails open per call, so an unreachable store only degrades health
		structuredLogger.Warn(ctx, "Redis unreachable at startup, rate limiting fails open until it recovers", map[string]interface{}{
			"redis_client": cfg.RedisClient,
			"error":        err.Error(),
		})
	} else {
		structuredLogger.Info(ctx, "Redis connection established", nil)
	}
	defer closer.Close()

	clk := clock.Real{}
	hasher := postgres.NewTokenHasher(cfg.RefreshSecret)
	userRepo := postgres.NewUserRepositoryAdapter(db, hasher, cfg.StoreTimeout)
	refreshTokenRepo := postgres.NewRefreshTokenRepositoryAdapter(db, hasher, cfg.StoreTimeout)
	resetTokenRepo := postgres.NewPasswordResetRepositoryAdapter(db, hasher, cfg.StoreTimeout)

	tokenService, err := jwt.NewJWTService(cfg.JWTSecret, clk)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	var sender outbound.EmailSender = email.NewLogSender(structuredLogger)
	if cfg.SMTPEnabled() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		})
	} else {
		structuredLogger.Warn(ctx, "SMTP not configured, emails will only be logged", nil)
	}
	mailer := email.NewMailer(sender, cfg.AppURL, "Auth Service")

	authUseCase := usecase.NewAuthUseCase(userRepo, refreshTokenRepo, tokenService, passwordService,
		cfg.StudentEmailDomain, structuredLogger, clk)
	passwordResetUseCase := usecase.NewPasswordResetUseCase(userRepo, resetTokenRepo, refreshTokenRepo, tokenService,
		passwordService, mailer, structuredLogger, clk, usecase.WithResponseFloor(cfg.ResetResponseFloor))
	emailVerificationUseCase := usecase.NewEmailVerificationUseCase(userRepo, tokenService, mailer, structuredLogger, clk)
	limiter := ratelimit.NewSlidingWindowLimiter(store, structuredLogger, ratelimit.WithTimeout(cfg.StoreTimeout))

	httpHandler := router.New(router.Dependencies{
		Auth:              authUseCase,
		PasswordReset:     passwordResetUseCase,
		EmailVerification: emailVerificationUseCase,
		Dashboard:         usecase.NewDashboardUseCase(userRepo, structuredLogger),
		RateLimiter:       limiter,
		TokenService:      tokenService,
		Logger:            structuredLogger,
		HealthChecks: map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    store.Ping,
		},
		CorrelationIDHeader:  cfg.LogCorrelationIDHeader,
		EnableRequestLog:     cfg.LogEnableRequestLog,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"host": cfg.ServerHost,
				"port": cfg.ServerPort,
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}

func newWindowStore(cfg *config.Config) (outbound.WindowStore, io.Closer, error) {
	if cfg.RedisClient == config.RedisClientV9 {
		client, err := redisadapter.NewV9Client(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisadapter.NewV9Store(client), client, nil
	}
	client, err := redisadapter.NewV8Client(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return redisadapter.NewV8Store(client), client, nil
}
