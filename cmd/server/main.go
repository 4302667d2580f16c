package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imchat/internal/config"
	"imchat/internal/domain"
	"imchat/internal/httpserver"
	"imchat/internal/ratelimit"
	"imchat/internal/security"
	"imchat/internal/store/postgres"
	"imchat/internal/store/sqlite"
	"imchat/internal/telemetry"
)

// @title           imchat API
// @version         1.0
// @description     Public-room messaging backend: token auth, idempotent send, incremental pull and read cursors.

// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTELServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	// Initialize database
	db, repos, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	passwordHasher := security.NewPasswordHasher(cfg.BcryptCost)

	var codec security.ContentCodec = security.PlainCodec{}
	if cfg.EncryptKey != "" {
		encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey), cfg.LegacyFernetKeys)
		if err != nil {
			log.Fatalf("failed to initialize encryptor: %v", err)
		}
		codec = encryptor
	}

	var limiter httpserver.SendLimiter
	if cfg.RedisAddr != "" {
		rdb := ratelimit.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.SendRateLimit, cfg.SendRateWindow())
		log.Printf("send rate limit: %d per %s via redis %s", cfg.SendRateLimit, cfg.SendRateWindow(), cfg.RedisAddr)
	}

	// Build HTTP router
	router := httpserver.NewRouter(cfg, repos, tokenSvc, passwordHasher, codec, limiter)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      telemetry.Handler(router, cfg.OTLPEndpoint != ""),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting %s on %s (%s store)\n", cfg.AppName, cfg.HTTPAddr(), cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown failed: %v", err)
	}
}

func openStore(cfg *config.Config) (*sql.DB, domain.Repositories, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, domain.Repositories{}, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, domain.Repositories{}, err
		}
		return db, sqlite.NewRepositories(db), nil
	default:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, domain.Repositories{}, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, domain.Repositories{}, err
		}
		return db, postgres.NewRepositories(db), nil
	}
}
