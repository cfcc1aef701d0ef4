package session

import (
	"context"
	"time"

	"github.com/quizbattle/quiz-battle-backend/internal/rating"
	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"go.uber.org/zap"
)

// Question is a sampled question record from the bank.
type Question struct {
	ID         string
	Prompt     string
	Choices    []string
	Correct    string
	Category   string
	Difficulty string
	BasePoints int
}

// QuestionBank samples distinct questions for a match. It may return fewer
// than count when supply is short; the session treats that as a hard failure.
type QuestionBank interface {
	Sample(ctx context.Context, category string, count int) ([]Question, error)
}

// Profiles is the persisted participant profile collaborator. Update must be
// atomic per profile document; cross-profile atomicity is not assumed.
type Profiles interface {
	Get(ctx context.Context, playerID string) (*rating.Profile, error)
	Update(ctx context.Context, playerID string, mutate func(*rating.Profile) error) error
}

// RoomSnapshot is what gets written to the room record on each state change.
type RoomSnapshot struct {
	Room       types.RoomView
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Recorder persists room state and completed match history.
type Recorder interface {
	SaveRoom(ctx context.Context, snap RoomSnapshot) error
	AppendHistory(ctx context.Context, rec types.HistoryView) error
}

type Config struct {
	QuestionTime     int // seconds
	QuestionsPerGame int
	TickInterval     time.Duration
	StartDelay       time.Duration // one-time delay before question 0
	DisconnectGrace  time.Duration
	BossHealth       int
}

func DefaultConfig() Config {
	return Config{
		QuestionTime:     scoring.QuestionTime,
		QuestionsPerGame: scoring.QuestionsPerGame,
		TickInterval:     time.Second,
		DisconnectGrace:  60 * time.Second,
		BossHealth:       scoring.RaidBossHealth,
	}
}

// Deps is everything a session needs beyond its own parameters. OnClose is
// invoked exactly once when the session releases itself (finalization done
// or grace timeout); the hub uses it to drop the registry entry.
type Deps struct {
	Log      *zap.Logger
	Bank     QuestionBank
	Profiles Profiles
	Recorder Recorder
	Config   Config
	OnClose  func(code string)
}

// Seat identifies a participant occupying one of the session's slots.
type Seat struct {
	PlayerID string
	Name     string
}

// Params describe a new session. Opponent is non-nil when matchmaking pairs
// both players up front; on the direct room-code path the second seat is
// claimed by the first stranger to join while the room is waiting.
type Params struct {
	Code     string
	Category string
	Variant  Variant
	Owner    Seat
	Opponent *Seat
}
