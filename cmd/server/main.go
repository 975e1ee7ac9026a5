package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/lingolink/internal/api"
	"github.com/wuwenbin0122/lingolink/internal/auth"
	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/presence"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	stores, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("store: failed to open", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer stores.Close(context.Background())

	if err := stores.Migrate(ctx); err != nil {
		logger.Fatal("store: failed to migrate", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	var revoker auth.Revoker
	if cfg.Redis.Addr != "" {
		client, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("redis: failed to connect", zap.Error(err))
		}
		defer client.Close()
		revoker = db.NewRedisRevoker(client)
	} else {
		logger.Info("redis not configured; session revocation is process-local")
		revoker = auth.NewMemoryRevoker()
	}

	var syncer presence.Syncer = presence.Noop{}
	if cfg.Stream.Enabled() {
		client, err := presence.NewStreamClient(cfg.Stream)
		if err != nil {
			logger.Fatal("presence: failed to initialise", zap.Error(err))
		}
		syncer = client
	} else {
		logger.Info("stream credentials not configured; presence sync disabled")
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("auth: failed to initialise token issuer", zap.Error(err))
	}

	authService, err := auth.NewService(auth.Options{
		Store:           stores.Users,
		Tokens:          tokens,
		Revoker:         revoker,
		Presence:        syncer,
		Logger:          logger.Named("auth"),
		BcryptCost:      cfg.BcryptCost,
		PresenceTimeout: cfg.Stream.Timeout,
	})
	if err != nil {
		logger.Fatal("auth: failed to initialise service", zap.Error(err))
	}

	handler := api.NewHandler(authService, logger.Named("http"), cfg.IsProduction())
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Environment),
			zap.String("store", cfg.StoreDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
