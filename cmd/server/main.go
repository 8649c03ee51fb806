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

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/lifeafter619/mail-gateway/internal/api"
	"github.com/lifeafter619/mail-gateway/internal/auth"
	"github.com/lifeafter619/mail-gateway/internal/config"
	"github.com/lifeafter619/mail-gateway/internal/mailchannels"
	"github.com/lifeafter619/mail-gateway/internal/repository/postgres"
	"github.com/lifeafter619/mail-gateway/internal/service/account"
	"github.com/lifeafter619/mail-gateway/internal/service/send"
	"github.com/lifeafter619/mail-gateway/internal/service/sendbox"
	"github.com/lifeafter619/mail-gateway/internal/settings"
	"github.com/lifeafter619/mail-gateway/internal/token"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Redis is optional: without it the settings store reads straight
	// from Postgres on every block-list fetch.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, block-list caching disabled: %v", err)
			redisClient = nil
		} else {
			log.Println("Connected to Redis")
		}
	}

	settingsStore := settings.New(db, redisClient, cfg.Blocklist.CacheTTL())
	blocklist := settings.NewBlocklist(settingsStore, cfg.Blocklist.SettingKey)

	tokens := token.NewService(cfg.Auth.JWTSecret)
	provider := mailchannels.NewClient(cfg.Provider)

	accountRepo := postgres.NewAccountRepo(db)
	sendboxRepo := postgres.NewSendboxRepo(db)

	accountSvc := account.NewService(accountRepo, cfg.Sender.DefaultBalance)
	sendboxSvc := sendbox.NewService(sendboxRepo)
	sendSvc := send.NewService(accountRepo, blocklist, provider, sendboxSvc, cfg.DKIM)

	handlers := api.NewHandlers(accountSvc, sendSvc, sendboxSvc, tokens)
	router := api.SetupRoutes(handlers, auth.Middleware(tokens))
	server := api.NewServer(cfg.Server, router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting gateway on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
