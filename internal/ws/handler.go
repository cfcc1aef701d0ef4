package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/matchmaking"
	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 10 * time.Minute
	outboxSize   = 32
)

// Handler upgrades a connection and runs its command loop. Identity comes
// from the query string; credential verification is the identity
// collaborator's job upstream of this service.
func Handler(h *hub.Hub, queue *matchmaking.Queue, profiles session.Profiles, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("player")
		if playerID == "" {
			http.Error(w, "missing player", http.StatusBadRequest)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = playerID
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			playerID: playerID,
			name:     name,
			hub:      h,
			queue:    queue,
			profiles: profiles,
			log:      log.With(zap.String("player", playerID)),
			conn:     conn,
			out:      make(chan types.ServerMessage, outboxSize),
		}
		c.run(r.Context())
	}
}

// client is one connection's state: its identity, its outbox, and the
// session it currently occupies (if any).
type client struct {
	playerID string
	name     string
	hub      *hub.Hub
	queue    *matchmaking.Queue
	profiles session.Profiles
	log      *zap.Logger
	conn     *websocket.Conn
	out      chan types.ServerMessage
	current  *session.Session
}

func (c *client) run(ctx context.Context) {
	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()

	// Writer goroutine: the connection owns the outbox for its whole life,
	// across matchmaking and any number of sessions.
	go func() {
		for {
			select {
			case <-writeCtx.Done():
				return
			case msg := <-c.out:
				payload, _ := json.Marshal(msg)
				wctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = c.conn.Write(wctx, websocket.MessageText, payload)
				cancel()
			}
		}
	}()

	defer c.disconnect()

	for {
		rctx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := c.conn.Read(rctx)
		cancel()
		if err != nil {
			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.reply(types.ErrorMessage("bad json"))
			continue
		}
		c.dispatch(cm)
	}
}

func (c *client) dispatch(m types.ClientMessage) {
	switch m.Type {
	case types.CmdCreateRoom:
		c.createRoom(m)
	case types.CmdJoinRoom:
		c.joinRoom(m)
	case types.CmdLeaveRoom:
		c.leaveRoom()
	case types.CmdFindMatch:
		c.findMatch(m)
	case types.CmdCancelMatchmaking:
		if c.queue.Cancel(c.playerID) {
			c.reply(types.ServerMessage{Type: types.EvtMatchmakingCancelled, Message: "Matchmaking cancelled"})
		}
	case types.CmdStartGame:
		c.send(session.Start{PlayerID: c.playerID})
	case types.CmdAnswerQuestion:
		c.send(session.Answer{
			PlayerID: c.playerID,
			Answer:   m.Answer,
			TimeHint: m.TimeRemaining,
		})
	case types.CmdUsePowerUp:
		kind, ok := scoring.ParsePowerUp(m.PowerUp)
		if !ok {
			c.reply(types.ErrorMessage("unknown power-up"))
			return
		}
		c.send(session.UsePowerUp{PlayerID: c.playerID, Kind: kind})
	default:
		c.reply(types.ErrorMessage("unknown command"))
	}
}

// room returns the session this connection occupies, or nil. A session that
// released itself (game over, grace expiry) is forgotten here so stale
// commands get an error instead of vanishing into a dead inbox.
func (c *client) room() *session.Session {
	if c.current == nil {
		return nil
	}
	select {
	case <-c.current.Done():
		c.current = nil
		return nil
	default:
		return c.current
	}
}

// send posts a command to the current session, answering with the uniform
// error shape when there is none.
func (c *client) send(m session.Msg) {
	s := c.room()
	if s == nil {
		c.reply(types.ErrorMessage("not in a room"))
		return
	}
	select {
	case s.Inbox() <- m:
	case <-s.Done():
		c.current = nil
		c.reply(types.ErrorMessage("not in a room"))
	}
}

func (c *client) createRoom(m types.ClientMessage) {
	variant, ok := session.ParseVariant(m.Variant)
	if !ok {
		c.reply(types.ErrorMessage("unknown variant"))
		return
	}
	category := m.Category
	if category == "" {
		category = "General"
	}
	s, err := c.hub.CreateWithCode(session.Params{
		Category: category,
		Variant:  variant,
		Owner:    session.Seat{PlayerID: c.playerID, Name: c.name},
	})
	if err != nil || s == nil {
		c.reply(types.ErrorMessage("failed to create room"))
		return
	}
	c.current = s
	s.Inbox() <- session.Join{PlayerID: c.playerID, Name: c.name, Outbox: c.out}
	c.reply(types.ServerMessage{Type: types.EvtRoomCreated, RoomID: s.Code()})
}

func (c *client) joinRoom(m types.ClientMessage) {
	s := c.hub.Get(m.RoomID)
	if s == nil {
		c.reply(types.ErrorMessage("Room not found"))
		return
	}
	c.current = s
	s.Inbox() <- session.Join{PlayerID: c.playerID, Name: c.name, Outbox: c.out}
}

func (c *client) leaveRoom() {
	s := c.room()
	if s == nil {
		return
	}
	s.Inbox() <- session.Leave{PlayerID: c.playerID}
	c.current = nil
	c.reply(types.ServerMessage{Type: types.EvtRoomLeft})
}

func (c *client) findMatch(m types.ClientMessage) {
	variant, ok := session.ParseVariant(m.Variant)
	if !ok {
		c.reply(types.ErrorMessage("unknown variant"))
		return
	}

	// Snapshot the requester's rating for the ticket.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	profile, err := c.profiles.Get(ctx, c.playerID)
	cancel()
	if err != nil {
		c.log.Error("profile load failed", zap.Error(err))
		c.reply(types.ErrorMessage("Matchmaking failed"))
		return
	}
	category := m.Category
	ratingCategory := category
	if ratingCategory == "" {
		ratingCategory = "General"
	}

	matched, err := c.queue.EnqueueOrMatch(&matchmaking.Ticket{
		PlayerID: c.playerID,
		Name:     c.name,
		Category: category,
		Variant:  variant,
		Rating:   profile.CategoryRating(ratingCategory),
		Notify:   c.out,
	})
	if err != nil {
		c.log.Error("matchmaking failed", zap.Error(err))
		c.reply(types.ErrorMessage("Matchmaking failed"))
		return
	}
	if matched != nil {
		c.current = matched
		matched.Inbox() <- session.Join{PlayerID: c.playerID, Name: c.name, Outbox: c.out}
		return
	}
	c.reply(types.ServerMessage{Type: types.EvtMatchmakingStarted, Message: "Searching for opponent..."})
}

// disconnect runs once when the read loop exits: drop any queued ticket and
// notify the session, which keeps running through its grace period.
func (c *client) disconnect() {
	c.queue.Cancel(c.playerID)
	if s := c.room(); s != nil {
		s.Inbox() <- session.Leave{PlayerID: c.playerID, Disconnected: true}
	}
	c.current = nil
}

// reply queues a message for this connection only.
func (c *client) reply(msg types.ServerMessage) {
	select {
	case c.out <- msg:
	default:
	}
}
