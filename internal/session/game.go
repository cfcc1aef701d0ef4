package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizbattle/quiz-battle-backend/internal/rating"
	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

func (s *Session) handleStart(m Start) {
	p := s.seat(m.PlayerID)
	if p == nil {
		s.sendErr(m.PlayerID, ErrUnauthorized)
		return
	}
	if s.status != StatusWaiting {
		s.sendErr(m.PlayerID, ErrBadState)
		return
	}
	if p != s.players[0] {
		s.sendErr(m.PlayerID, ErrNotOwner)
		return
	}
	if len(s.players) < 2 {
		s.sendErr(m.PlayerID, ErrNotReady)
		return
	}

	s.status = StatusStarting

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	questions, err := s.bank.Sample(ctx, s.category, s.cfg.QuestionsPerGame)
	if err != nil {
		s.status = StatusWaiting
		s.log.Error("question sampling failed", zap.Error(err))
		s.sendErr(m.PlayerID, ErrQuestionSupply)
		return
	}
	if len(questions) < s.cfg.QuestionsPerGame {
		// Never silently run a short match.
		s.status = StatusWaiting
		s.sendErr(m.PlayerID, fmt.Errorf("%w (found %d, need %d)",
			ErrQuestionSupply, len(questions), s.cfg.QuestionsPerGame))
		return
	}

	// Snapshot pre-match overall ratings; finalization uses the opponent's.
	for _, pl := range s.players {
		prof, err := s.profiles.Get(ctx, pl.id)
		if err != nil {
			s.status = StatusWaiting
			s.log.Error("profile load failed", zap.String("player", pl.id), zap.Error(err))
			s.sendErr(m.PlayerID, fmt.Errorf("failed to start game"))
			return
		}
		pl.overallSnapshot = prof.Overall
	}

	s.questions = questions
	s.slots = make([]*slot, len(questions))
	for i := range s.slots {
		s.slots[i] = newSlot()
	}
	s.cur = 0
	for _, pl := range s.players {
		pl.score = 0
	}
	if s.variant == VariantRaid {
		s.raid = &types.RaidView{BossHealth: s.cfg.BossHealth}
	}
	if s.variant == VariantTeam {
		s.teams = map[string][]string{
			"team1": {s.players[0].id},
			"team2": {s.players[1].id},
		}
	}
	s.startedAt = time.Now()
	s.status = StatusActive
	s.remaining = s.cfg.QuestionTime
	s.saveRoom()

	room := s.roomView()
	q := s.questionView(0)
	s.broadcast(types.ServerMessage{
		Type:     types.EvtGameStarted,
		RoomID:   s.code,
		Room:     &room,
		Question: &q,
	})
	s.armTick(s.cfg.StartDelay + s.cfg.TickInterval)
	s.log.Info("game started",
		zap.String("category", s.category),
		zap.String("variant", string(s.variant)))
}

func (s *Session) handleAnswer(m Answer) {
	p := s.seat(m.PlayerID)
	if p == nil {
		s.sendErr(m.PlayerID, ErrUnauthorized)
		return
	}
	if s.status != StatusActive {
		s.sendErr(m.PlayerID, ErrBadState)
		return
	}
	sl := s.slots[s.cur]
	if _, done := sl.answers[p.id]; done {
		// Finalized slots are immutable; a late submission changes nothing.
		s.sendErr(m.PlayerID, ErrAlreadyAnswered)
		return
	}

	q := s.questions[s.cur]
	remaining := s.remaining
	if m.TimeHint != nil {
		remaining = scoring.ClampRemaining(*m.TimeHint, s.remaining)
	}
	correct := q.Correct == m.Answer
	points := scoring.Score(correct, remaining, s.cfg.QuestionTime, q.BasePoints)
	if correct && sl.double[p.id] {
		points *= 2
	}
	answer := m.Answer
	s.record(p, &answer, correct, points)
	s.saveRoom()

	s.broadcast(types.ServerMessage{
		Type:      types.EvtAnswerReceived,
		RoomID:    s.code,
		PlayerID:  p.id,
		IsCorrect: &correct,
		Points:    &points,
		Scores:    s.scores(),
	})

	if s.roundComplete() {
		s.finalizeRound()
	}
}

func (s *Session) handleUsePowerUp(m UsePowerUp) {
	p := s.seat(m.PlayerID)
	if p == nil {
		s.sendErr(m.PlayerID, ErrUnauthorized)
		return
	}
	if s.status != StatusActive {
		s.sendErr(m.PlayerID, ErrBadState)
		return
	}
	sl := s.slots[s.cur]
	if _, done := sl.answers[p.id]; done {
		// Power-ups never mutate a finalized slot.
		s.sendErr(m.PlayerID, ErrAlreadyAnswered)
		return
	}

	switch m.Kind {
	case scoring.PowerUpDoublePoints:
		if sl.double[p.id] {
			// Already armed; reject before touching the inventory.
			s.sendErr(m.PlayerID, ErrPowerUpActive)
			return
		}
		if err := s.consumeCharge(p.id, m.Kind); err != nil {
			s.sendErr(m.PlayerID, err)
			return
		}
		sl.double[p.id] = true
		sl.powerUps[p.id] = m.Kind
		s.broadcast(types.ServerMessage{
			Type:     types.EvtPowerUpUsed,
			RoomID:   s.code,
			PlayerID: p.id,
			PowerUp:  string(m.Kind),
		})

	case scoring.PowerUpExtraTime:
		if err := s.consumeCharge(p.id, m.Kind); err != nil {
			s.sendErr(m.PlayerID, err)
			return
		}
		sl.powerUps[p.id] = m.Kind
		s.remaining = scoring.ExtendTime(s.remaining, s.cfg.QuestionTime)
		remaining := s.remaining
		s.broadcast(types.ServerMessage{
			Type:     types.EvtPowerUpUsed,
			RoomID:   s.code,
			PlayerID: p.id,
			PowerUp:  string(m.Kind),
		})
		s.broadcast(types.ServerMessage{
			Type:          types.EvtTimerUpdate,
			RoomID:        s.code,
			TimeRemaining: &remaining,
		})

	case scoring.PowerUpSkip:
		if err := s.consumeCharge(p.id, m.Kind); err != nil {
			s.sendErr(m.PlayerID, err)
			return
		}
		sl.powerUps[p.id] = m.Kind
		// Forced-correct at base value only: no time bonus.
		q := s.questions[s.cur]
		points := q.BasePoints
		if sl.double[p.id] {
			points *= 2
		}
		answer := q.Correct
		correct := true
		s.record(p, &answer, correct, points)
		s.saveRoom()
		s.broadcast(types.ServerMessage{
			Type:     types.EvtPowerUpUsed,
			RoomID:   s.code,
			PlayerID: p.id,
			PowerUp:  string(m.Kind),
		})
		s.broadcast(types.ServerMessage{
			Type:      types.EvtAnswerReceived,
			RoomID:    s.code,
			PlayerID:  p.id,
			IsCorrect: &correct,
			Points:    &points,
			Scores:    s.scores(),
		})
		if s.roundComplete() {
			s.finalizeRound()
		}

	default:
		s.sendErr(m.PlayerID, fmt.Errorf("unknown power-up %q", m.Kind))
	}
}

func (s *Session) consumeCharge(playerID string, kind scoring.PowerUp) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.profiles.Update(ctx, playerID, func(p *rating.Profile) error {
		if p.PowerUps[kind] <= 0 {
			return ErrNoCharges
		}
		p.PowerUps[kind]--
		return nil
	})
}

// record finalizes one participant's half of the current round.
func (s *Session) record(p *player, answer *string, correct bool, points int) {
	s.slots[s.cur].answers[p.id] = &answerRecord{answer: answer, correct: correct, points: points}
	p.score += points
	if s.raid != nil {
		s.raid.DamageDealt += points
	}
}

func (s *Session) roundComplete() bool {
	return len(s.slots[s.cur].answers) == len(s.players)
}

// armTick schedules the next countdown decrement. Every arm bumps the
// generation so a fire from a replaced timer is dropped on arrival.
func (s *Session) armTick(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(d, func() {
		select {
		case s.inbox <- tick{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) handleTick(m tick) {
	if m.gen != s.timerGen || s.status != StatusActive {
		return
	}
	s.remaining--
	remaining := s.remaining
	s.broadcast(types.ServerMessage{
		Type:          types.EvtTimerUpdate,
		RoomID:        s.code,
		TimeRemaining: &remaining,
	})
	if s.remaining <= 0 {
		s.timeoutRound()
		return
	}
	s.armTick(s.cfg.TickInterval)
}

// timeoutRound finalizes every still-open slot with a null answer and zero
// points, then advances.
func (s *Session) timeoutRound() {
	sl := s.slots[s.cur]
	for _, p := range s.players {
		if _, done := sl.answers[p.id]; !done {
			s.record(p, nil, false, 0)
		}
	}
	s.saveRoom()
	s.broadcast(types.ServerMessage{
		Type:    types.EvtQuestionTimeout,
		RoomID:  s.code,
		Message: "Time's up!",
		Scores:  s.scores(),
	})
	s.finalizeRound()
}

// finalizeRound runs once per question, after every slot is settled. The
// timer is always cancelled before the index moves.
func (s *Session) finalizeRound() {
	s.stopTimer()

	if s.raid != nil && !s.raid.Success && s.raid.DamageDealt >= s.raid.BossHealth {
		// Cooperative success; the remaining questions still play out.
		s.raid.Success = true
	}

	s.cur++
	if s.cur >= len(s.questions) {
		s.finish()
		return
	}

	s.remaining = s.cfg.QuestionTime
	q := s.questionView(s.cur)
	s.broadcast(types.ServerMessage{
		Type:     types.EvtNextQuestion,
		RoomID:   s.code,
		Question: &q,
		Scores:   s.scores(),
	})
	s.armTick(s.cfg.TickInterval)
}

func (s *Session) questionView(i int) types.QuestionView {
	q := s.questions[i]
	return types.QuestionView{
		Prompt:     q.Prompt,
		Choices:    q.Choices,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Index:      i,
		Total:      len(s.questions),
		TimeLimit:  s.cfg.QuestionTime,
	}
}

// finish runs exactly once, at the active->finished transition. Persistence
// is best-effort: failures are logged and surfaced, but the in-memory entry
// is always released afterwards.
func (s *Session) finish() {
	s.status = StatusFinished
	s.finishedAt = time.Now()
	duration := int(s.finishedAt.Sub(s.startedAt).Seconds())

	p1, p2 := s.players[0], s.players[1]
	winner := ""
	switch s.variant {
	case VariantRaid:
		// Cooperative: no individual winner, success is shared.
	default:
		if p1.score > p2.score {
			winner = p1.id
		} else if p2.score > p1.score {
			winner = p2.id
		}
	}

	won := func(p *player) bool {
		if s.variant == VariantRaid {
			return s.raid != nil && s.raid.Success
		}
		return winner == p.id // a tie counts as a loss for both
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	persistFailed := false
	deltas := map[string]int{}
	for i, p := range s.players {
		opp := s.players[1-i]
		result := rating.Result{
			Category:        s.category,
			Score:           p.score,
			Won:             won(p),
			OpponentOverall: opp.overallSnapshot,
		}
		err := s.profiles.Update(ctx, p.id, func(prof *rating.Profile) error {
			deltas[p.id] = prof.ApplyResult(result)
			return nil
		})
		if err != nil {
			persistFailed = true
			s.log.Error("profile update failed", zap.String("player", p.id), zap.Error(err))
		}
	}

	history := s.historyRecord(winner, duration, deltas)
	if err := s.recorder.AppendHistory(ctx, history); err != nil {
		persistFailed = true
		s.log.Error("history append failed", zap.Error(err))
	}
	s.saveRoom()

	if persistFailed {
		s.broadcast(types.ErrorMessage("failed to record match results"))
	}

	s.broadcast(types.ServerMessage{
		Type:     types.EvtGameEnded,
		RoomID:   s.code,
		Winner:   winner,
		Scores:   s.scores(),
		Duration: duration,
		History:  &history,
	})
	s.log.Info("game finished",
		zap.String("winner", winner),
		zap.Int("duration", duration))
	s.close()
}

func (s *Session) historyRecord(winner string, duration int, deltas map[string]int) types.HistoryView {
	players := make([]types.HistoryPlayer, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, types.HistoryPlayer{
			PlayerID:    p.id,
			Name:        p.name,
			Score:       p.score,
			IsWinner:    winner != "" && winner == p.id,
			RatingDelta: deltas[p.id],
		})
	}
	questions := make([]types.HistoryQuestion, 0, len(s.questions))
	for i, q := range s.questions {
		sl := s.slots[i]
		answers := make(map[string]types.HistoryAnswer, len(s.players))
		for _, p := range s.players {
			rec, ok := sl.answers[p.id]
			if !ok {
				rec = &answerRecord{}
			}
			answers[p.id] = types.HistoryAnswer{
				Answer:    rec.answer,
				IsCorrect: rec.correct,
				Points:    rec.points,
				PowerUp:   string(sl.powerUps[p.id]),
			}
		}
		questions = append(questions, types.HistoryQuestion{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Answers:    answers,
		})
	}
	var raid *types.RaidView
	if s.raid != nil {
		r := *s.raid
		raid = &r
	}
	return types.HistoryView{
		ID:        uuid.NewString(),
		RoomCode:  s.code,
		Category:  s.category,
		Variant:   string(s.variant),
		Winner:    winner,
		Duration:  duration,
		Players:   players,
		Questions: questions,
		Raid:      raid,
	}
}
