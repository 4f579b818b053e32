package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/waitlist-service/internal/api"
	"github.com/ignite/waitlist-service/internal/config"
	"github.com/ignite/waitlist-service/internal/dispatch"
	"github.com/ignite/waitlist-service/internal/pkg/logger"
	"github.com/ignite/waitlist-service/internal/rate"
	"github.com/ignite/waitlist-service/internal/repository/postgres"
	"github.com/ignite/waitlist-service/internal/service/waitlist"
	"github.com/ignite/waitlist-service/internal/validator"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process does not silently shadow this one.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		logger.SetLevel(logger.ParseLevel(lvl))
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}
	pingCancel()

	// Redis is optional: without it the signup endpoint runs unthrottled.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting disabled", "url", cfg.Redis.URL, "error", err)
			redisClient.Close()
			redisClient = nil
		}
		cancel()
	}

	// Validation heuristics, hot-reloaded from file when configured.
	var emailValidator *validator.Validator
	if cfg.Validation.RulesPath != "" {
		emailValidator, err = validator.NewFromFile(cfg.Validation.RulesPath,
			time.Duration(cfg.Validation.ReloadSeconds)*time.Second)
		if err != nil {
			log.Fatalf("Failed to load validation rules: %v", err)
		}
		logger.Info("validation rules loaded", "path", cfg.Validation.RulesPath)
	} else {
		emailValidator = validator.New()
	}

	// Confirmation-email transport
	emailTimeout := time.Duration(cfg.Email.TimeoutSeconds) * time.Second
	var sender dispatch.Sender
	switch cfg.Email.Transport {
	case "ses":
		sender, err = dispatch.NewSESSender(context.Background(), cfg.SES)
		if err != nil {
			log.Fatalf("Failed to initialize SES transport: %v", err)
		}
	default:
		sender = dispatch.NewSMTPSender(cfg.SMTP, emailTimeout)
	}
	dispatcher := dispatch.NewDispatcher(emailValidator, sender, cfg.Email.Subject, emailTimeout)

	repo := postgres.NewWaitlistRepo(db)
	svc := waitlist.NewService(repo, dispatcher)

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter = rate.NewLimiter(redisClient, cfg.RateLimit.Requests,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	}

	handlers := api.NewHandlers(svc, repo, db, redisClient)
	server := api.NewServer(handlers, limiter)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("server starting", "addr", addr, "transport", cfg.Email.Transport)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	db.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	logger.Info("server stopped")
}
