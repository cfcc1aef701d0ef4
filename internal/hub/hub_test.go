package hub

import (
	"context"
	"errors"
	"testing"

	"github.com/quizbattle/quiz-battle-backend/internal/rating"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

type stubBank struct{}

func (stubBank) Sample(_ context.Context, _ string, count int) ([]session.Question, error) {
	return make([]session.Question, count), nil
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

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, zap.NewNop(), session.Deps{
		Log:      zap.NewNop(),
		Bank:     stubBank{},
		Profiles: stubProfiles{},
		Recorder: stubRecorder{},
		Config:   session.DefaultConfig(),
	})
}

func params(code string) session.Params {
	return session.Params{
		Code:     code,
		Category: "General",
		Variant:  session.VariantDuel,
		Owner:    session.Seat{PlayerID: "p1", Name: "p1"},
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)

	s1 := h.Create(params("ZED123"))
	if s1 == nil {
		t.Fatalf("expected session")
	}
	s2 := h.Get("ZED123")
	if s2 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_CreateCollisionReturnsNil(t *testing.T) {
	h := newTestHub(t)

	if h.Create(params("AAAAAA")) == nil {
		t.Fatalf("expected first create to succeed")
	}
	if h.Create(params("AAAAAA")) != nil {
		t.Fatalf("expected duplicate code to be rejected")
	}
}

func TestHub_RemoveForgetsSession(t *testing.T) {
	h := newTestHub(t)

	h.Create(params("GONE12"))
	h.Inbox() <- RemoveSession{Code: "GONE12"}
	// Get serializes behind the removal on the hub loop.
	if h.Get("GONE12") != nil {
		t.Fatalf("expected removed session to be gone")
	}
}

func TestHub_CreateWithCodeGeneratesUniqueCodes(t *testing.T) {
	h := newTestHub(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		s, err := h.CreateWithCode(session.Params{
			Category: "General",
			Variant:  session.VariantDuel,
			Owner:    session.Seat{PlayerID: "p1", Name: "p1"},
		})
		if err != nil || s == nil {
			t.Fatalf("create with code failed: %v", err)
		}
		if seen[s.Code()] {
			t.Fatalf("duplicate code %q", s.Code())
		}
		if len(s.Code()) != 6 {
			t.Fatalf("expected 6-char code, got %q", s.Code())
		}
		seen[s.Code()] = true
	}
}

func TestHub_CreateWithCodeFailsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx, zap.NewNop(), session.Deps{
		Log:      zap.NewNop(),
		Bank:     stubBank{},
		Profiles: stubProfiles{},
		Recorder: stubRecorder{},
		Config:   session.DefaultConfig(),
	})
	cancel()

	s, err := h.CreateWithCode(session.Params{
		Category: "General",
		Variant:  session.VariantDuel,
		Owner:    session.Seat{PlayerID: "p1", Name: "p1"},
	})
	if s != nil {
		t.Fatalf("expected no session from a shut-down hub")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
