package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smipay/smipay-backend/internal/api"
	"github.com/smipay/smipay-backend/internal/api/handlers"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/config"
	"github.com/smipay/smipay-backend/internal/db"
	"github.com/smipay/smipay-backend/internal/logger"
	"github.com/smipay/smipay-backend/internal/metrics"
	"github.com/smipay/smipay-backend/internal/middleware"
	"github.com/smipay/smipay-backend/internal/models"
	"github.com/smipay/smipay-backend/internal/ratelimit"
	"github.com/smipay/smipay-backend/internal/reference"
	"github.com/smipay/smipay-backend/internal/repository/postgres"
	"github.com/smipay/smipay-backend/internal/services"
	"github.com/smipay/smipay-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	refs := reference.NewGenerator(repos.Transactions, repos.Users, repos.Tickets)

	// The source-address counter stays in-memory for a single instance;
	// with REDIS_ADDR set, the window is shared across instances.
	var srcCounter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, falling back to in-memory rate counter", "err", err)
		} else {
			srcCounter = ratelimit.NewRedisCounter(rdb, "smipay:rl")
			defer rdb.Close()
		}
	}
	guard := ratelimit.NewGuard(repos.Transactions, srcCounter, ratelimit.Config{
		UserWindow:   cfg.RateWindow,
		UserMax:      cfg.RateMax,
		SourceWindow: cfg.IPRateWindow,
		SourceMax:    cfg.IPRateMax,
	}, []string{models.TxnTypeTransfer, models.TxnTypeData, models.TxnTypeAirtime})

	transferSvc := services.NewTransferService(
		repos.Users, repos.Wallets, repos.Transactions, repos.AuditLogs,
		repos.Store, refs, wp,
	)
	walletSvc := services.NewWalletService(repos.Wallets)
	userSvc := services.NewUserService(repos.Users, repos.Wallets, refs)
	ticketSvc := services.NewTicketService(repos.Tickets, refs)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	r := api.NewRouter(api.RouterDeps{
		Auth:    middleware.NewAuthMiddleware(tm),
		Banking: handlers.NewBankingHandler(transferSvc, walletSvc, guard),
		Support: handlers.NewSupportHandler(ticketSvc),
		Account: handlers.NewAccountHandler(userSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
