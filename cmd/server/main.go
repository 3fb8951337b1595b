package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/catalog"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/config"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/httpapi"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/hub"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var snaps store.SnapshotStore = store.Noop{}
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL, cfg.SnapshotTTL)
		if err != nil {
			logger.Warn("snapshot store unavailable, running without crash recovery", zap.Error(err))
		} else {
			snaps = pg
		}
	}

	players, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Warn("player catalog unavailable, starting with empty pool", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("players", len(players)))

	h := hub.NewHub(ctx, players, snaps, logger)

	if data, err := snaps.LoadAll(ctx); err != nil {
		logger.Warn("load snapshots", zap.Error(err))
	} else if len(data) > 0 {
		reply := make(chan int, 1)
		h.Inbox() <- hub.RestoreRooms{Snapshots: data, Reply: reply}
		<-reply
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, logger),
	}

	go func() {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
