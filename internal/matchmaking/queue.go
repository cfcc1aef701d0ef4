package matchmaking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

type Config struct {
	BaseWindow      int // rating tolerance at zero wait
	GrowthPerSecond int // tolerance added per second a candidate has waited
}

func DefaultConfig() Config {
	return Config{BaseWindow: 150, GrowthPerSecond: 20}
}

// Ticket is one queued intent to be matched. Notify receives the match-found
// message; it is the requester's connection outbox.
type Ticket struct {
	ID         string
	PlayerID   string
	Name       string
	Category   string
	Variant    session.Variant
	Rating     int // snapshot of the requester's rating for the category
	EnqueuedAt time.Time
	Notify     chan types.ServerMessage
}

// Queue pairs waiting tickets into sessions. The whole scan-and-pair runs
// under one lock so a ticket can never be consumed twice.
type Queue struct {
	mu      sync.Mutex
	tickets []*Ticket

	cfg Config
	hub *hub.Hub
	log *zap.Logger
	now func() time.Time
}

func NewQueue(cfg Config, h *hub.Hub, log *zap.Logger) *Queue {
	return &Queue{cfg: cfg, hub: h, log: log, now: time.Now}
}

// compatible reports whether a waiting candidate can face the caller. The
// rating window widens with the candidate's wait time, so long-waiting
// tickets accept increasingly lopsided matches.
func (q *Queue) compatible(caller, candidate *Ticket, now time.Time) bool {
	if candidate.PlayerID == caller.PlayerID {
		return false
	}
	if candidate.Variant != caller.Variant {
		return false
	}
	if caller.Category != "" && candidate.Category != "" && caller.Category != candidate.Category {
		return false
	}
	diff := candidate.Rating - caller.Rating
	if diff < 0 {
		diff = -diff
	}
	waitSeconds := int(now.Sub(candidate.EnqueuedAt).Seconds())
	return diff <= q.cfg.BaseWindow+waitSeconds*q.cfg.GrowthPerSecond
}

// EnqueueOrMatch either pairs the ticket against the first compatible waiting
// ticket in FIFO order, or stores it. A prior ticket from the same requester
// is always replaced. Returns the created session when a match happened.
func (q *Queue) EnqueueOrMatch(t *Ticket) (*session.Session, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = q.now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(t.PlayerID)

	now := q.now()
	for i, candidate := range q.tickets {
		if !q.compatible(t, candidate, now) {
			continue
		}
		q.tickets = append(q.tickets[:i], q.tickets[i+1:]...)
		s, err := q.pair(t, candidate)
		if err != nil {
			// Put the candidate back at the head so it keeps its wait time.
			q.tickets = append([]*Ticket{candidate}, q.tickets...)
			return nil, err
		}
		return s, nil
	}

	q.tickets = append(q.tickets, t)
	return nil, nil
}

func (q *Queue) pair(caller, opponent *Ticket) (*session.Session, error) {
	category := caller.Category
	if category == "" {
		category = opponent.Category
	}
	s, err := q.hub.CreateWithCode(session.Params{
		Category: category,
		Variant:  caller.Variant,
		Owner:    session.Seat{PlayerID: caller.PlayerID, Name: caller.Name},
		Opponent: &session.Seat{PlayerID: opponent.PlayerID, Name: opponent.Name},
	})
	if err != nil {
		return nil, err
	}

	msg := types.ServerMessage{Type: types.EvtMatchFound, RoomID: s.Code()}
	notify(caller.Notify, msg)
	notify(opponent.Notify, msg)
	q.log.Info("match found",
		zap.String("room", s.Code()),
		zap.String("player1", caller.PlayerID),
		zap.String("player2", opponent.PlayerID))
	return s, nil
}

// Cancel removes any ticket for the requester. Idempotent.
func (q *Queue) Cancel(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(playerID)
}

func (q *Queue) removeLocked(playerID string) bool {
	for i, t := range q.tickets {
		if t.PlayerID == playerID {
			q.tickets = append(q.tickets[:i], q.tickets[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting reports the current queue depth.
func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets)
}

func notify(ch chan types.ServerMessage, msg types.ServerMessage) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
