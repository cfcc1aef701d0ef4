package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/matchmaking"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/internal/ws"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, queue *matchmaking.Queue, profiles session.Profiles, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/rooms", CreateRoom(h))
	r.Get("/powerups", PowerUps)
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, queue, profiles, log))
	return r
}
