package store

import (
	"context"
	"fmt"

	"github.com/quizbattle/quiz-battle-backend/internal/rating"
	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
	"github.com/quizbattle/quiz-battle-backend/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store implements the session's persistence collaborators (question bank,
// profiles, room/history recorder) on Postgres.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&QuestionRecord{}, &ProfileRecord{}, &RoomRecord{}, &HistoryRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing gorm handle; used by tests against other drivers.
func New(db *gorm.DB) *Store { return &Store{db: db} }

// Sample returns up to count random approved questions, filtered by category
// unless the category is empty or "General". Fewer rows than requested is
// not an error here; the session treats a short sample as a supply failure.
func (s *Store) Sample(ctx context.Context, category string, count int) ([]session.Question, error) {
	q := s.db.WithContext(ctx).Where("status = ?", "approved")
	if category != "" && category != "General" {
		q = q.Where("category = ?", category)
	}
	var records []QuestionRecord
	if err := q.Order("RANDOM()").Limit(count).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	questions := make([]session.Question, 0, len(records))
	for _, r := range records {
		questions = append(questions, session.Question{
			ID:         r.ID,
			Prompt:     r.Prompt,
			Choices:    r.Choices,
			Correct:    r.Correct,
			Category:   r.Category,
			Difficulty: r.Difficulty,
			BasePoints: r.Points,
		})
	}
	return questions, nil
}

// Get loads a profile, creating a fresh one at the default rating on first
// sight of a player.
func (s *Store) Get(ctx context.Context, playerID string) (*rating.Profile, error) {
	record := ProfileRecord{PlayerID: playerID}
	err := s.db.WithContext(ctx).
		Where(ProfileRecord{PlayerID: playerID}).
		Attrs(toRecord(rating.NewProfile(playerID, ""))).
		FirstOrCreate(&record).Error
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", playerID, err)
	}
	return toProfile(&record), nil
}

// Update applies a mutation to one profile inside a transaction with a row
// lock, so concurrent charge consumption and finalization never lose writes.
func (s *Store) Update(ctx context.Context, playerID string, mutate func(*rating.Profile) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := ProfileRecord{PlayerID: playerID}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(ProfileRecord{PlayerID: playerID}).
			Attrs(toRecord(rating.NewProfile(playerID, ""))).
			FirstOrCreate(&record).Error
		if err != nil {
			return fmt.Errorf("load profile %s: %w", playerID, err)
		}
		profile := toProfile(&record)
		if err := mutate(profile); err != nil {
			return err
		}
		return tx.Save(toRecordPtr(profile)).Error
	})
}

func (s *Store) SaveRoom(ctx context.Context, snap session.RoomSnapshot) error {
	room := snap.Room
	record := RoomRecord{
		Code:            room.Code,
		Variant:         room.Variant,
		Category:        room.Category,
		Status:          room.Status,
		Players:         room.Players,
		CurrentQuestion: room.CurrentQuestion,
		TotalQuestions:  room.TotalQuestions,
		Scores:          room.Scores,
		Teams:           room.Teams,
		Raid:            room.Raid,
		StartedAt:       snap.StartedAt,
		FinishedAt:      snap.FinishedAt,
		CreatedAt:       snap.CreatedAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) AppendHistory(ctx context.Context, rec types.HistoryView) error {
	record := HistoryRecord{
		ID:        rec.ID,
		RoomCode:  rec.RoomCode,
		Category:  rec.Category,
		Variant:   rec.Variant,
		Winner:    rec.Winner,
		Duration:  rec.Duration,
		Players:   rec.Players,
		Questions: rec.Questions,
		Raid:      rec.Raid,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func toProfile(r *ProfileRecord) *rating.Profile {
	powerUps := make(map[scoring.PowerUp]int, len(r.PowerUps))
	for k, v := range r.PowerUps {
		powerUps[scoring.PowerUp(k)] = v
	}
	return &rating.Profile{
		PlayerID:      r.PlayerID,
		Name:          r.Name,
		Wins:          r.Wins,
		Losses:        r.Losses,
		TotalGames:    r.TotalGames,
		TotalPoints:   r.TotalPoints,
		AverageScore:  r.AverageScore,
		Overall:       r.RatingOverall,
		CategoryMMR:   r.RatingCategories,
		Tier:          r.Tier,
		TiersUnlocked: r.TiersUnlocked,
		WinStreak:     r.WinStreak,
		PowerUps:      powerUps,
	}
}

func toRecord(p *rating.Profile) ProfileRecord {
	powerUps := make(map[string]int, len(p.PowerUps))
	for k, v := range p.PowerUps {
		powerUps[string(k)] = v
	}
	return ProfileRecord{
		PlayerID:         p.PlayerID,
		Name:             p.Name,
		Wins:             p.Wins,
		Losses:           p.Losses,
		TotalGames:       p.TotalGames,
		TotalPoints:      p.TotalPoints,
		AverageScore:     p.AverageScore,
		RatingOverall:    p.Overall,
		RatingCategories: p.CategoryMMR,
		Tier:             p.Tier,
		TiersUnlocked:    p.TiersUnlocked,
		WinStreak:        p.WinStreak,
		PowerUps:         powerUps,
	}
}

func toRecordPtr(p *rating.Profile) *ProfileRecord {
	r := toRecord(p)
	return &r
}
