package hub

import (
	"context"

	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Params session.Params
	Reply  chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub is the session registry: the only goroutine that mutates the
// room-code -> session map. Everything else goes through the inbox.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	deps     session.Deps
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger, deps session.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		deps:     deps,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	// Sessions release themselves (finalization done or grace timeout) by
	// asking the hub to drop their entry.
	h.deps.OnClose = func(code string) {
		select {
		case h.inbox <- RemoveSession{Code: code}:
		case <-h.ctx.Done():
		}
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Get returns the live session for a code, or nil when unknown.
func (h *Hub) Get(code string) *session.Session {
	reply := make(chan *session.Session, 1)
	select {
	case h.inbox <- GetSession{Code: code, Reply: reply}:
		return <-reply
	case <-h.ctx.Done():
		return nil
	}
}

// Create registers a new session; returns nil if the code is already taken.
func (h *Hub) Create(params session.Params) *session.Session {
	reply := make(chan *session.Session, 1)
	select {
	case h.inbox <- CreateSession{Params: params, Reply: reply}:
		return <-reply
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if h.sessions[msg.Params.Code] != nil {
					msg.Reply <- nil
					break
				}
				s := session.New(h.ctx, h.deps, msg.Params)
				h.sessions[msg.Params.Code] = s
				h.log.Info("session created", zap.String("room", msg.Params.Code))
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case RemoveSession:
				delete(h.sessions, msg.Code)
				h.log.Info("session removed", zap.String("room", msg.Code))

			case ShutdownHub:
				for _, s := range h.sessions {
					s.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}
