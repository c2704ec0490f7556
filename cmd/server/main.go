package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunereach/dune-server/internal/api"
	"github.com/dunereach/dune-server/internal/auth"
	"github.com/dunereach/dune-server/internal/cache"
	"github.com/dunereach/dune-server/internal/config"
	"github.com/dunereach/dune-server/internal/game"
	"github.com/dunereach/dune-server/internal/logging"
	"github.com/dunereach/dune-server/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (falls back to DUNE_CONFIG)")
	flag.Parse()

	if err := logging.InitDefault("server"); err != nil {
		log.Fatalf("Failed to initialise logging: %v", err)
	}
	defer logging.CloseDefault()

	logging.Info("Starting The Dune game server...")

	// === CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("Failed to load config: %v", err)
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		// Running without a signing secret would make every token forgeable.
		logging.Error("Configuration error: %v", err)
		log.Fatalf("Configuration error: %v", err)
	}

	restPort := cfg.Server.GetRESTPort()
	logging.Info("Configuration: REST port=%d, mongo=%s/%s, cache enabled=%v",
		restPort, cfg.Mongo.GetURI(), cfg.Mongo.GetDatabase(), cfg.Cache.Enabled)

	// === TELEMETRY ===
	ctx := context.Background()
	if cfg.Telemetry.Enabled {
		serviceName := cfg.Telemetry.ServiceName
		if serviceName == "" {
			serviceName = "dune-server"
		}
		shutdown, err := observability.InitTelemetry(ctx, serviceName)
		if err != nil {
			logging.Warn("Telemetry init failed, continuing without tracing: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Telemetry shutdown error: %v", err)
				}
			}()
		}
	}

	// === DOCUMENT STORE ===
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.GetURI()))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	cancel()
	if err != nil {
		logging.Error("Failed to connect to MongoDB: %v", err)
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logging.Error("MongoDB disconnect error: %v", err)
		}
	}()
	db := client.Database(cfg.Mongo.GetDatabase())
	logging.Info("Connected to MongoDB")

	accounts, err := auth.NewMongoAccountRepo(db)
	if err != nil {
		logging.Error("Failed to initialise account repository: %v", err)
		log.Fatalf("Failed to initialise account repository: %v", err)
	}
	monsters, err := game.NewMongoMonsterRepo(db)
	if err != nil {
		logging.Error("Failed to initialise monster repository: %v", err)
		log.Fatalf("Failed to initialise monster repository: %v", err)
	}

	// === CACHE ===
	var cacheRepo cache.Repo
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.Cache.GetRedisAddr(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			logging.Warn("Redis unavailable, using in-process cache: %v", err)
			cacheRepo = cache.NewMemoryCache()
		} else {
			cacheRepo = redisCache
			logging.Info("Connected to Redis cache at %s", cfg.Cache.GetRedisAddr())
		}
		defer func() {
			if err := cacheRepo.Close(); err != nil {
				logging.Error("Cache close error: %v", err)
			}
		}()
	}

	// === SERVICES ===
	tokens, err := auth.NewTokenManager(cfg.Auth.GetJWTSecret())
	if err != nil {
		logging.Error("Token manager error: %v", err)
		log.Fatalf("Token manager error: %v", err)
	}

	engine := game.NewEngine(accounts, monsters)
	leaderboard := game.NewLeaderboard(accounts, cacheRepo, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	policy := auth.PasswordPolicy{
		MinLength:      cfg.Auth.Password.MinLength,
		RequireUpper:   cfg.Auth.Password.RequireUpper,
		RequireLower:   cfg.Auth.Password.RequireLower,
		RequireDigit:   cfg.Auth.Password.RequireDigit,
		RequireSpecial: cfg.Auth.Password.RequireSpecial,
	}

	server := api.NewRestServer(api.Config{
		Port:          fmt.Sprintf(":%d", restPort),
		Accounts:      accounts,
		Monsters:      monsters,
		Engine:        engine,
		Leaderboard:   leaderboard,
		Tokens:        tokens,
		Policy:        policy,
		EnableTracing: cfg.Telemetry.Enabled,
	})

	go func() {
		if err := server.Start(); err != nil {
			logging.Error("REST server stopped: %v", err)
			os.Exit(1)
		}
	}()

	logging.Info("The Dune is running")
	logging.Info("   REST API:     http://localhost:%d", restPort)
	logging.Info("   Health check: http://localhost:%d/health", restPort)
	logging.Info("   Metrics:      http://localhost:%d/metrics", restPort)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("Received signal %v, shutting down...", sig)
}
