package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/config"
	"github.com/zappabad/bullbear/internal/game"
	"github.com/zappabad/bullbear/internal/leaderboard/store"
	"github.com/zappabad/bullbear/internal/logger"
	"github.com/zappabad/bullbear/internal/transport/httpapi"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zlog.Sync()

	var board *store.Store
	if cfg.Leaderboard.DBPath != "" {
		board, err = store.New(cfg.Leaderboard.DBPath)
		if err != nil {
			zlog.Fatal("open leaderboard store", zap.Error(err))
		}
		defer board.Close()
	}

	g, err := game.NewGame(game.ConfigFromApp(cfg, zlog))
	if err != nil {
		zlog.Fatal("build game", zap.Error(err))
	}
	defer g.Close()

	srv := httpapi.NewServer(httpapi.Config{
		Addr:   cfg.Server.Addr,
		Logger: zlog,
	}, g, board)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Error("server stopped", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}
