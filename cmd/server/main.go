package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digitalwallet/internal/auth"
	"digitalwallet/internal/cache"
	"digitalwallet/internal/config"
	"digitalwallet/internal/handlers"
	"digitalwallet/internal/logging"
	"digitalwallet/internal/notifier"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/repository"
	"digitalwallet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	metricsprometheus "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	ginmetrics "github.com/slok/go-http-metrics/middleware/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger := logging.SetupLogger()

	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	poolConfig, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		logger.Error("Failed to parse db config", slog.Any("err", err))
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()

	var walletCache cache.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to redis", slog.Any("err", err))
			os.Exit(1)
		}
		defer rdb.Close()
		walletCache = cache.NewRedisCache(rdb, cfg.CacheWalletTTL, logger)
	}

	var mailer notifier.Notifier = notifier.NewNoop()
	if cfg.SMTPHost != "" {
		mailer = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, logger)
	}

	limiter := ratelimit.NewLimiter(map[string]ratelimit.OpConfig{
		"login": {
			Capacity:     cfg.RateLimitLogin.Capacity,
			RefillPerSec: cfg.RateLimitLogin.RefillPerSec,
			PerKey:       true,
		},
		"transfer": {
			Capacity:     cfg.RateLimitTransfer.Capacity,
			RefillPerSec: cfg.RateLimitTransfer.RefillPerSec,
			PerKey:       true,
		},
	})

	store := repository.NewStore(pool, logger)
	userRepo := repository.NewUserPGRepository(store, logger)
	walletRepo := repository.NewWalletPGRepository(store, logger)
	transferRepo := repository.NewTransferPGRepository(store, logger)

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	userSvc := service.NewUserService(userRepo, tokens, limiter, logger)
	walletSvc := service.NewWalletService(store, walletRepo, walletCache, mailer, logger)
	transferSvc := service.NewTransferService(store, walletRepo, transferRepo, walletCache, limiter, logger)

	handler := handlers.NewHTTPHandler(userSvc, walletSvc, transferSvc)

	r := gin.Default()
	r.Use(handlers.RequestID())
	mdlw := httpmetrics.New(httpmetrics.Config{
		Recorder: metricsprometheus.NewRecorder(metricsprometheus.Config{}),
	})
	r.Use(ginmetrics.Handler("", mdlw))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(r, handlers.AuthRequired(tokens, userSvc, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("Server failed", slog.Any("err", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("err", err))
	}
	logger.Info("Server exiting")
}
