package matchmaking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quizbattle/quiz-battle-backend/internal/hub"
	"github.com/quizbattle/quiz-battle-backend/internal/rating"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

type stubBank struct{}

func (stubBank) Sample(_ context.Context, category string, count int) ([]session.Question, error) {
	qs := make([]session.Question, count)
	for i := range qs {
		qs[i] = session.Question{
			ID:         fmt.Sprintf("q%d", i),
			Prompt:     fmt.Sprintf("question %d", i),
			Choices:    []string{"A", "B", "C", "D"},
			Correct:    "A",
			Category:   category,
			Difficulty: "medium",
			BasePoints: 100,
		}
	}
	return qs, nil
}

type stubProfiles struct{}

func (stubProfiles) Get(_ context.Context, id string) (*rating.Profile, error) {
	return rating.NewProfile(id, id), nil
}

func (stubProfiles) Update(_ context.Context, id string, mutate func(*rating.Profile) error) error {
	return mutate(rating.NewProfile(id, id))
}

type stubRecorder struct{}

func (stubRecorder) SaveRoom(context.Context, session.RoomSnapshot) error   { return nil }
func (stubRecorder) AppendHistory(context.Context, types.HistoryView) error { return nil }

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, zap.NewNop(), session.Deps{
		Log:      zap.NewNop(),
		Bank:     stubBank{},
		Profiles: stubProfiles{},
		Recorder: stubRecorder{},
		Config:   session.DefaultConfig(),
	})
	return NewQueue(DefaultConfig(), h, zap.NewNop())
}

func ticket(player string, ratingValue int, category string) *Ticket {
	return &Ticket{
		PlayerID: player,
		Name:     player,
		Category: category,
		Variant:  session.VariantDuel,
		Rating:   ratingValue,
		Notify:   make(chan types.ServerMessage, 4),
	}
}

func recvNotify(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) types.ServerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for notification")
		return types.ServerMessage{} // unreachable
	}
}

func TestQueue_WindowWidensWithCandidateWait(t *testing.T) {
	q := newTestQueue(t)
	base := time.Now()
	q.now = func() time.Time { return base }

	t1 := ticket("p1", 1200, "General")
	s, err := q.EnqueueOrMatch(t1)
	if err != nil || s != nil {
		t.Fatalf("expected p1 to queue, got session=%v err=%v", s, err)
	}

	// At zero wait the window is 150, so a 200-point gap stays queued.
	wide := ticket("p2", 1400, "General")
	s, err = q.EnqueueOrMatch(wide)
	if err != nil || s != nil {
		t.Fatalf("expected 200-point gap to stay queued at zero wait")
	}
	q.Cancel("p2")

	// After p1 has waited 10s the window is 150 + 10*20 = 350.
	q.now = func() time.Time { return base.Add(10 * time.Second) }
	t2 := ticket("p3", 1340, "General")
	s, err = q.EnqueueOrMatch(t2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s == nil {
		t.Fatalf("expected a match within the widened window")
	}

	m1 := recvNotify(t, t1.Notify, time.Second)
	m2 := recvNotify(t, t2.Notify, time.Second)
	if m1.Type != types.EvtMatchFound || m2.Type != types.EvtMatchFound {
		t.Fatalf("expected match-found on both tickets, got %q / %q", m1.Type, m2.Type)
	}
	if m1.RoomID == "" || m1.RoomID != m2.RoomID {
		t.Fatalf("expected both players in the same room, got %q / %q", m1.RoomID, m2.RoomID)
	}
	if q.Waiting() != 0 {
		t.Fatalf("expected empty queue after pairing, got %d", q.Waiting())
	}
}

func TestQueue_FIFOFirstCompatibleWins(t *testing.T) {
	q := newTestQueue(t)

	a := ticket("a", 1200, "General")
	b := ticket("b", 1210, "General")
	if _, err := q.EnqueueOrMatch(a); err != nil {
		t.Fatal(err)
	}
	// Different category keeps b queued behind a.
	b.Category = "Science"
	if _, err := q.EnqueueOrMatch(b); err != nil {
		t.Fatal(err)
	}

	// c is compatible with both (no category); insertion order says a wins.
	c := ticket("c", 1205, "")
	s, err := q.EnqueueOrMatch(c)
	if err != nil || s == nil {
		t.Fatalf("expected match, got session=%v err=%v", s, err)
	}
	recvNotify(t, a.Notify, time.Second)
	select {
	case msg := <-b.Notify:
		t.Fatalf("expected b to stay queued, got %+v", msg)
	default:
	}
	if q.Waiting() != 1 {
		t.Fatalf("expected b still waiting, got %d", q.Waiting())
	}
}

func TestQueue_VariantMustMatch(t *testing.T) {
	q := newTestQueue(t)

	duel := ticket("p1", 1200, "General")
	if _, err := q.EnqueueOrMatch(duel); err != nil {
		t.Fatal(err)
	}

	raid := ticket("p2", 1200, "General")
	raid.Variant = session.VariantRaid
	s, err := q.EnqueueOrMatch(raid)
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatalf("duel and raid tickets must not pair")
	}
	if q.Waiting() != 2 {
		t.Fatalf("expected both tickets queued, got %d", q.Waiting())
	}
}

func TestQueue_RequeueReplacesPriorTicket(t *testing.T) {
	q := newTestQueue(t)

	if _, err := q.EnqueueOrMatch(ticket("p1", 1200, "General")); err != nil {
		t.Fatal(err)
	}
	if _, err := q.EnqueueOrMatch(ticket("p1", 1250, "Science")); err != nil {
		t.Fatal(err)
	}
	if q.Waiting() != 1 {
		t.Fatalf("re-queue must replace the prior ticket, got %d waiting", q.Waiting())
	}
}

func TestQueue_CancelIsIdempotent(t *testing.T) {
	q := newTestQueue(t)

	if _, err := q.EnqueueOrMatch(ticket("p1", 1200, "General")); err != nil {
		t.Fatal(err)
	}
	if !q.Cancel("p1") {
		t.Fatalf("expected first cancel to remove the ticket")
	}
	if q.Cancel("p1") {
		t.Fatalf("expected second cancel to be a no-op")
	}
	if q.Waiting() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Waiting())
	}
}

func TestQueue_NeverPairsSamePlayer(t *testing.T) {
	q := newTestQueue(t)

	first := ticket("p1", 1200, "General")
	if _, err := q.EnqueueOrMatch(first); err != nil {
		t.Fatal(err)
	}
	q.mu.Lock()
	// Simulate a stale duplicate that removeLocked missed; compatible()
	// still refuses self-pairing.
	stale := ticket("p1", 1200, "General")
	q.tickets = append(q.tickets, stale)
	q.mu.Unlock()

	s, err := q.EnqueueOrMatch(ticket("p1", 1200, "General"))
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatalf("a player must never match their own ticket")
	}
}
