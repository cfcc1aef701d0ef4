package main

import (
	"context"
	"net/http"

	"github.com/quizbattle/quiz-battle-backend/internal/config"
	"github.com/quizbattle/quiz-battle-backend/internal/httpapi"
	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/matchmaking"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}

	ctx := context.Background()
	h := hub.NewHub(ctx, logger, session.Deps{
		Log:      logger,
		Bank:     st,
		Profiles: st,
		Recorder: st,
		Config:   cfg.Session,
	})
	queue := matchmaking.NewQueue(cfg.Matchmaking, h, logger)

	handler := httpapi.SetupRoutes(h, queue, st, logger)

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
