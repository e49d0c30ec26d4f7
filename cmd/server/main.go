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

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/adapter/auth"
	"github.com/joshsssn/marketplace/internal/adapter/handler"
	"github.com/joshsssn/marketplace/internal/adapter/storage"
	"github.com/joshsssn/marketplace/internal/config"
	"github.com/joshsssn/marketplace/internal/core/service"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		sugar.Fatalw("failed to open mysql", "error", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		sugar.Fatalw("failed to ping mysql", "error", err)
	}
	sugar.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		sugar.Fatalw("failed to connect redis", "error", err)
	}
	sugar.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	authProvider := auth.NewJWTProvider(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize services
	authService := service.NewAuthService(mysqlAdapter, authProvider, sugar)
	userService := service.NewUserService(mysqlAdapter, authProvider, sugar)
	itemService := service.NewItemService(mysqlAdapter, sugar)
	purchaseService := service.NewPurchaseService(mysqlAdapter, mysqlAdapter, redisAdapter, sugar)
	ratingService := service.NewRatingService(mysqlAdapter, mysqlAdapter, sugar)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(authService, userService, itemService, purchaseService, ratingService, sugar)
	authMiddleware := handler.NewAuthMiddleware(authService)
	router := handler.NewRouter(httpHandler, authMiddleware)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		sugar.Infow("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			sugar.Errorw("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	sugar.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	sugar.Info("connections closed")
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "prod" || mode == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
