package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/contactshub/contacts-api/internal/auth"
	"github.com/contactshub/contacts-api/internal/avatar"
	"github.com/contactshub/contacts-api/internal/config"
	"github.com/contactshub/contacts-api/internal/contact"
	"github.com/contactshub/contacts-api/internal/database"
	"github.com/contactshub/contacts-api/internal/email"
	httpServer "github.com/contactshub/contacts-api/internal/http"
	"github.com/contactshub/contacts-api/internal/logging"
	"github.com/contactshub/contacts-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	userRepo := user.NewRepository(db)
	contactRepo := contact.NewRepository(db)
	resetRepo := auth.NewPasswordResetRepository(redisClient)

	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromAddress,
		cfg.Email.AppURL,
	)

	avatarPipeline := avatar.NewPipeline(
		avatar.NewImagingProcessor(avatar.Width, avatar.Height),
		cfg.Storage.AvatarDir,
		cfg.Storage.AvatarPublicPath,
	)

	authService := auth.NewService(
		userRepo,
		resetRepo,
		tokenService,
		emailService,
		avatarPipeline,
		logger,
		cfg.Auth.AccessTokenDuration,
	)

	authHandler := auth.NewHandler(authService, cfg.Storage.TmpDir, logger)
	authMiddleware := auth.NewMiddleware(tokenService, userRepo, logger)
	contactHandler := contact.NewHandler(contactRepo, logger)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, contactHandler, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(ctx)
}

func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.Migrate(sqlDB); err != nil {
		return nil, err
	}

	return database.NewBunDB(sqlDB), nil
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case "jwt":
		return auth.NewJWTService(cfg.TokenSecret)
	default:
		return auth.NewPasetoService(cfg.TokenSecret)
	}
}
