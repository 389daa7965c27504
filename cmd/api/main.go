package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"internet-banking/internal/cache"
	"internet-banking/internal/config"
	"internet-banking/internal/handlers"
	"internet-banking/internal/middleware"
	"internet-banking/internal/migrations"
	"internet-banking/internal/repository"
	"internet-banking/internal/repository/memory"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
	"internet-banking/internal/worker"
)

const (
	shutdownTimeout       = 10 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := utils.InitLogger(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer utils.Sync()

	if err := run(cfg); err != nil {
		utils.LogError("Main", "server exited with error", err)
		utils.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		redisCache  *cache.RedisCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisCache = cache.NewRedisCache(cfg.RedisAddr)
		if err := redisCache.Ping(ctx); err != nil {
			utils.LogWarning("Main", "Redis at %s unreachable, continuing without cache and rate limits: %v", cfg.RedisAddr, err)
			_ = redisCache.Close()
			redisCache = nil
		} else {
			redisClient = redisCache.Client()
			defer redisCache.Close()
			utils.LogSuccess("Main", "connected to Redis at %s", cfg.RedisAddr)
		}
	}

	pool := worker.NewWorkerPool(cfg.WorkerCount, cfg.WorkerQueueSize, cfg.WorkerRetries)
	pool.Start()
	defer func() {
		if err := pool.Shutdown(workerShutdownTimeout); err != nil {
			utils.LogWarning("Main", "worker pool shutdown: %v", err)
		}
	}()

	auditService := services.NewAuditService(store)

	authService := services.NewAuthService(store, auditService, services.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		JWTExpiry:  cfg.JWTExpiry,
		BcryptCost: cfg.BcryptCost,
		IFSCCode:   cfg.IFSCCode,
	})
	authService.SetWorkerPool(pool)

	limits := services.Limits{MaxDeposit: cfg.MaxDepositAmount, MaxWithdraw: cfg.MaxWithdrawAmount}

	var (
		transactionService *services.TransactionService
		accountService     *services.AccountService
		adminService       *services.AdminService
	)
	if redisCache != nil {
		transactionService = services.NewTransactionServiceWithCache(store, auditService, limits, redisCache)
		accountService = services.NewAccountServiceWithCache(store, redisCache)
		adminService = services.NewAdminServiceWithCache(store, auditService, redisCache)
	} else {
		transactionService = services.NewTransactionService(store, auditService, limits)
		accountService = services.NewAccountService(store)
		adminService = services.NewAdminService(store, auditService)
	}
	transactionService.SetWorkerPool(pool)
	adminService.SetWorkerPool(pool)

	chatService := services.NewChatService(&fasthttp.Client{
		Name:                "internet-banking",
		MaxConnsPerHost:     16,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: time.Minute,
	}, cfg.ChatAPIURL, cfg.ChatAPIToken)

	if cfg.AdminEmail != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	handler := handlers.NewRouter(handlers.Routes{
		Auth:           handlers.NewAuthHandler(authService, accountService),
		Account:        handlers.NewAccountHandler(accountService, auditService),
		Transaction:    handlers.NewTransactionHandler(transactionService),
		Admin:          handlers.NewAdminHandler(adminService),
		Health:         handlers.NewHealthHandler(store),
		Chat:           handlers.NewChatHandler(chatService),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		LoginLimiter: middleware.NewRateLimiter(redisClient, "login",
			cfg.LoginRateLimit.Max, cfg.LoginRateLimit.Window, middleware.ByClientIP,
			"Too many login attempts, please try again later."),
		APILimiter: middleware.NewRateLimiter(redisClient, "api",
			cfg.APIRateLimit.Max, cfg.APIRateLimit.Window, middleware.ByAccount,
			"Too many requests, please try again later."),
		ChatLimiter: middleware.NewRateLimiter(redisClient, "chat",
			cfg.APIRateLimit.Max, cfg.APIRateLimit.Window, middleware.ByClientIP,
			"Too many requests, please try again later."),
		CORSOrigins: cfg.CORSAllowOrigins,
	})

	server := &fasthttp.Server{
		Handler:            handler,
		Name:               "internet-banking",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogSuccess("Main", "server listening on :%s (%s, store=%s)", cfg.Port, cfg.Env, cfg.StoreDriver)
		errCh <- server.ListenAndServe(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	utils.LogInfo("Main", "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	utils.LogSuccess("Main", "server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		utils.LogWarning("Main", "using the in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	utils.LogSuccess("Main", "connected to PostgreSQL")

	if err := migrations.Up(pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewPostgresStore(pool), pool.Close, nil
}
