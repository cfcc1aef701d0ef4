package session

import (
	"context"
	"time"

	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

type Variant string

const (
	VariantDuel Variant = "duel"
	VariantTeam Variant = "team"
	VariantRaid Variant = "raid"
)

// ParseVariant rejects unknown variants at the boundary. Empty means duel.
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case VariantDuel, VariantTeam, VariantRaid:
		return Variant(s), true
	case "":
		return VariantDuel, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusStarting  Status = "starting"
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusAbandoned Status = "abandoned"
)

type Msg interface{ isSessionMsg() }

type Join struct {
	PlayerID string
	Name     string
	Outbox   chan types.ServerMessage
}

type Leave struct {
	PlayerID     string
	Disconnected bool
}

type Start struct{ PlayerID string }

type Answer struct {
	PlayerID string
	Answer   string
	TimeHint *int // optional client hint, clamped server-side
}

type UsePowerUp struct {
	PlayerID string
	Kind     scoring.PowerUp
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

// tick and graceExpired are posted back into the inbox by scheduled timers.
// The generation number lets the loop drop fires from a cancelled timer.
type tick struct{ gen int }

type graceExpired struct{ gen int }

func (Join) isSessionMsg()         {}
func (Leave) isSessionMsg()        {}
func (Start) isSessionMsg()        {}
func (Answer) isSessionMsg()       {}
func (UsePowerUp) isSessionMsg()   {}
func (GetState) isSessionMsg()     {}
func (Shutdown) isSessionMsg()     {}
func (tick) isSessionMsg()         {}
func (graceExpired) isSessionMsg() {}

// View reflects internal state without data races; used by tests and the hub.
type View struct {
	Code            string
	Status          Status
	Variant         Variant
	NumClients      int
	CurrentQuestion int
	Remaining       int
	Scores          map[string]int
	Players         []string
	Raid            *types.RaidView
}

type player struct {
	id              string
	name            string
	score           int
	overallSnapshot int // pre-match overall rating, captured at start
}

type answerRecord struct {
	answer  *string // nil = timed out
	correct bool
	points  int
}

// slot is one question's bookkeeping. Presence in answers means the
// participant's half of the round is finalized and immutable.
type slot struct {
	answers  map[string]*answerRecord
	double   map[string]bool
	powerUps map[string]scoring.PowerUp
}

func newSlot() *slot {
	return &slot{
		answers:  map[string]*answerRecord{},
		double:   map[string]bool{},
		powerUps: map[string]scoring.PowerUp{},
	}
}

// Session owns one match. All mutation happens on the loop goroutine; the
// rest of the process talks to it through the inbox.
type Session struct {
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	cfg      Config
	bank     QuestionBank
	profiles Profiles
	recorder Recorder
	onClose  func(code string)

	code     string
	variant  Variant
	category string
	status   Status
	players  []*player
	clients  map[string]chan types.ServerMessage

	questions []Question
	slots     []*slot
	cur       int
	remaining int

	timer    *time.Timer
	timerGen int
	graceGen int

	raid  *types.RaidView
	teams map[string][]string

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

func New(parent context.Context, deps Deps, params Params) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
		log:       deps.Log.With(zap.String("room", params.Code)),
		cfg:       deps.Config,
		bank:      deps.Bank,
		profiles:  deps.Profiles,
		recorder:  deps.Recorder,
		onClose:   deps.OnClose,
		code:      params.Code,
		variant:   params.Variant,
		category:  params.Category,
		status:    StatusWaiting,
		clients:   make(map[string]chan types.ServerMessage),
		createdAt: time.Now(),
	}
	s.players = append(s.players, &player{id: params.Owner.PlayerID, name: params.Owner.Name})
	if params.Opponent != nil {
		s.players = append(s.players, &player{id: params.Opponent.PlayerID, name: params.Opponent.Name})
	}
	go s.run()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Code is immutable after creation and safe to read from any goroutine.
func (s *Session) Code() string { return s.code }

// Done is closed once the session has released itself; messages posted after
// that are never consumed.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) run() {
	s.saveRoom() // the room record exists from the moment of creation
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.handleJoin(msg)
			case Leave:
				s.handleLeave(msg)
			case Start:
				s.handleStart(msg)
			case Answer:
				s.handleAnswer(msg)
			case UsePowerUp:
				s.handleUsePowerUp(msg)
			case tick:
				s.handleTick(msg)
			case graceExpired:
				s.handleGraceExpired(msg)
			case GetState:
				msg.Reply <- s.view()
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) shutdown() {
	s.stopTimer()
	// Outbox channels belong to the connections, not the session; just
	// forget them.
	clear(s.clients)
	s.cancel()
}

// close releases the session: registry entry dropped, loop stopped.
func (s *Session) close() {
	if s.onClose != nil {
		s.onClose(s.code)
	}
	s.shutdown()
}

func (s *Session) seat(playerID string) *player {
	for _, p := range s.players {
		if p.id == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) scores() map[string]int {
	m := make(map[string]int, len(s.players))
	for _, p := range s.players {
		m[p.id] = p.score
	}
	return m
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			// Client is slow/full - drop them.
			delete(s.clients, id)
		}
	}
}

// sendTo delivers a message to one participant only; validation errors never
// reach the other player.
func (s *Session) sendTo(playerID string, msg types.ServerMessage) {
	ch, ok := s.clients[playerID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		delete(s.clients, playerID)
	}
}

func (s *Session) sendErr(playerID string, err error) {
	s.sendTo(playerID, types.ErrorMessage(err.Error()))
}

func (s *Session) handleJoin(m Join) {
	if p := s.seat(m.PlayerID); p != nil {
		// Reconnect or first arrival of a pre-seated player.
		s.clients[m.PlayerID] = m.Outbox
		s.cancelGrace()
	} else {
		if len(s.players) >= 2 {
			sendOn(m.Outbox, types.ErrorMessage(ErrRoomFull.Error()))
			return
		}
		if s.status != StatusWaiting {
			sendOn(m.Outbox, types.ErrorMessage(ErrBadState.Error()))
			return
		}
		s.players = append(s.players, &player{id: m.PlayerID, name: m.Name})
		s.clients[m.PlayerID] = m.Outbox
		s.cancelGrace()
		s.saveRoom()
	}

	room := s.roomView()
	s.sendTo(m.PlayerID, types.ServerMessage{
		Type:    types.EvtRoomJoined,
		RoomID:  s.code,
		Room:    &room,
		Message: "Successfully joined room",
	})
	if len(s.players) == 2 {
		s.broadcast(types.ServerMessage{Type: types.EvtOpponentJoined, RoomID: s.code, Room: &room})
	}
	s.log.Info("player joined", zap.String("player", m.PlayerID))
}

func (s *Session) handleLeave(m Leave) {
	if _, ok := s.clients[m.PlayerID]; !ok {
		return
	}
	delete(s.clients, m.PlayerID)
	if m.Disconnected {
		s.broadcast(types.ServerMessage{
			Type:    types.EvtPlayerDisconnected,
			RoomID:  s.code,
			Message: "Opponent disconnected",
		})
	}
	// Keep the session around for a grace period so a reconnect can resume.
	if len(s.clients) == 0 && s.status != StatusFinished {
		s.armGrace()
	}
}

func (s *Session) armGrace() {
	s.graceGen++
	gen := s.graceGen
	time.AfterFunc(s.cfg.DisconnectGrace, func() {
		select {
		case s.inbox <- graceExpired{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) cancelGrace() { s.graceGen++ }

func (s *Session) handleGraceExpired(m graceExpired) {
	if m.gen != s.graceGen || len(s.clients) > 0 {
		return
	}
	// The persisted record must not read as live after the entry is gone.
	s.status = StatusAbandoned
	s.finishedAt = time.Now()
	s.saveRoom()
	s.log.Info("disconnect grace expired, releasing room")
	s.close()
}

func (s *Session) view() View {
	players := make([]string, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.id)
	}
	var raid *types.RaidView
	if s.raid != nil {
		r := *s.raid
		raid = &r
	}
	return View{
		Code:            s.code,
		Status:          s.status,
		Variant:         s.variant,
		NumClients:      len(s.clients),
		CurrentQuestion: s.cur,
		Remaining:       s.remaining,
		Scores:          s.scores(),
		Players:         players,
		Raid:            raid,
	}
}

func (s *Session) roomView() types.RoomView {
	players := make([]types.PlayerView, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, types.PlayerView{ID: p.id, Name: p.name, Score: p.score})
	}
	var raid *types.RaidView
	if s.raid != nil {
		r := *s.raid
		raid = &r
	}
	return types.RoomView{
		Code:            s.code,
		Variant:         string(s.variant),
		Category:        s.category,
		Status:          string(s.status),
		Players:         players,
		CurrentQuestion: s.cur,
		TotalQuestions:  len(s.questions),
		Scores:          s.scores(),
		Teams:           s.teams,
		Raid:            raid,
	}
}

func (s *Session) saveRoom() {
	snap := RoomSnapshot{Room: s.roomView(), CreatedAt: s.createdAt}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.finishedAt.IsZero() {
		t := s.finishedAt
		snap.FinishedAt = &t
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.SaveRoom(ctx, snap); err != nil {
		s.log.Error("save room failed", zap.Error(err))
	}
}

func sendOn(ch chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case ch <- msg:
	default:
	}
}
