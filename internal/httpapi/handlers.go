package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
)

type createRoomRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Variant  string `json:"variant"`
}

// CreateRoom is the REST mirror of the create-room socket command; handy for
// clients that want a shareable code before opening the socket.
func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.PlayerID == "" {
			http.Error(w, "missing playerId", http.StatusBadRequest)
			return
		}
		variant, ok := session.ParseVariant(req.Variant)
		if !ok {
			http.Error(w, "unknown variant", http.StatusBadRequest)
			return
		}
		category := req.Category
		if category == "" {
			category = "General"
		}
		name := req.Name
		if name == "" {
			name = req.PlayerID
		}

		s, err := h.CreateWithCode(session.Params{
			Category: category,
			Variant:  variant,
			Owner:    session.Seat{PlayerID: req.PlayerID, Name: name},
		})
		if err != nil || s == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: s.Code()})
	}
}

// PowerUps serves the client-facing power-up catalog.
func PowerUps(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scoring.Catalog)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
