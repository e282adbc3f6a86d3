package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"

	"github.com/quienpaga/quienpaga-backend/config"
	"github.com/quienpaga/quienpaga-backend/db"
	"github.com/quienpaga/quienpaga-backend/handlers"
	"github.com/quienpaga/quienpaga-backend/internal/events"
	"github.com/quienpaga/quienpaga-backend/internal/store/postgres"
	"github.com/quienpaga/quienpaga-backend/logger"
	groupservice "github.com/quienpaga/quienpaga-backend/models/group/service"
	ledgerservice "github.com/quienpaga/quienpaga-backend/models/ledger/service"
	"github.com/quienpaga/quienpaga-backend/router"
	"github.com/quienpaga/quienpaga-backend/types"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database pool. The store handle is constructed once here and injected
	// into every component; there is no global client.
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
	log.Infow("Connecting to database", "dsn", logger.MaskConnectionString(connStr))

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Fatalf("Failed to parse database config: %v", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	if cfg.IsProduction() {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{
			ServerName: cfg.Database.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs rate limiting and the activity event feed.
	redisOptions := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{
			ServerName: cfg.Redis.Address,
			MinVersion: tls.VersionTLS12,
		}
	}
	redisClient := redis.NewClient(redisOptions)
	defer redisClient.Close()

	var publisher types.EventPublisher = events.NewRedisPublisher(redisClient, events.DefaultConfig())

	// Stores and services.
	queryTimeout := cfg.Database.QueryTimeoutDuration()
	groupStore := postgres.NewGroupStore(pool, queryTimeout)
	ledgerStore := postgres.NewLedgerStore(pool, queryTimeout)

	groupService := groupservice.NewGroupService(groupStore, publisher)
	ledgerService := ledgerservice.NewLedgerService(
		ledgerStore,
		groupStore,
		ledgerservice.PolicyFromConfig(cfg.Ledger),
		publisher,
	)

	// Supabase client for identity-provider proxy endpoints.
	var authHandler *handlers.AuthHandler
	if cfg.Supabase.URL != "" && cfg.Supabase.AnonKey != "" {
		supabaseClient, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, &supabase.ClientOptions{})
		if err != nil {
			log.Fatalf("Failed to create Supabase client: %v", err)
		}
		authHandler = handlers.NewAuthHandler(supabaseClient)
	} else {
		log.Warn("Supabase URL or anon key missing; auth refresh endpoint disabled")
	}

	r := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		RedisClient:   redisClient,
		GroupHandler:  handlers.NewGroupHandler(groupService),
		LedgerHandler: handlers.NewLedgerHandler(ledgerService),
		HealthHandler: handlers.NewHealthHandler(pool, redisClient, cfg.Server.Version),
		AuthHandler:   authHandler,
		RoleChecker:   groupService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}
}
