package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := utils.MustNewLogger(cfg.Logging).Named("migrate")
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer stores.Close(context.Background())

	if err := stores.Migrate(ctx); err != nil {
		logger.Fatal("migrate store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))
}
