package store

import (
	"time"

	"github.com/quizbattle/quiz-battle-backend/pkg/types"
)

// QuestionRecord is one entry in the question bank. Only approved questions
// are ever sampled into a match.
type QuestionRecord struct {
	ID         string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Prompt     string   `gorm:"not null" json:"question"`
	Choices    []string `gorm:"serializer:json;not null" json:"options"`
	Correct    string   `gorm:"not null" json:"correctAnswer"`
	Category   string   `gorm:"index;not null;default:'General'" json:"category"`
	Difficulty string   `gorm:"not null;default:'medium'" json:"difficulty"`
	Points     int      `gorm:"not null;default:100" json:"points"`
	Status     string   `gorm:"index;not null;default:'approved'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (QuestionRecord) TableName() string { return "questions" }

// ProfileRecord is the persisted participant profile: lifetime stats, rating
// state, and the power-up inventory.
type ProfileRecord struct {
	PlayerID     string  `gorm:"primaryKey" json:"playerId"`
	Name         string  `json:"name"`
	Wins         int     `gorm:"not null;default:0" json:"wins"`
	Losses       int     `gorm:"not null;default:0" json:"losses"`
	TotalGames   int     `gorm:"not null;default:0" json:"totalGames"`
	TotalPoints  int     `gorm:"not null;default:0" json:"totalPoints"`
	AverageScore float64 `gorm:"not null;default:0" json:"averageScore"`

	RatingOverall    int            `gorm:"not null;default:1200" json:"ratingOverall"`
	RatingCategories map[string]int `gorm:"serializer:json" json:"ratingCategories"`
	Tier             string         `gorm:"not null;default:'Bronze'" json:"tier"`
	TiersUnlocked    []string       `gorm:"serializer:json" json:"tiersUnlocked"`
	WinStreak        int            `gorm:"not null;default:0" json:"winStreak"`

	PowerUps map[string]int `gorm:"serializer:json" json:"powerUps"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ProfileRecord) TableName() string { return "profiles" }

// RoomRecord mirrors the live session state; the database copy is the
// durability source of truth, the registry entry is just a cache.
type RoomRecord struct {
	Code            string              `gorm:"primaryKey" json:"code"`
	Variant         string              `gorm:"not null;default:'duel'" json:"variant"`
	Category        string              `gorm:"not null;default:'General'" json:"category"`
	Status          string              `gorm:"index;not null;default:'waiting'" json:"status"`
	Players         []types.PlayerView  `gorm:"serializer:json" json:"players"`
	CurrentQuestion int                 `gorm:"not null;default:0" json:"currentQuestion"`
	TotalQuestions  int                 `gorm:"not null;default:0" json:"totalQuestions"`
	Scores          map[string]int      `gorm:"serializer:json" json:"scores"`
	Teams           map[string][]string `gorm:"serializer:json" json:"teams,omitempty"`
	Raid            *types.RaidView     `gorm:"serializer:json" json:"raid,omitempty"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (RoomRecord) TableName() string { return "rooms" }

// HistoryRecord is the persisted summary of one completed match.
type HistoryRecord struct {
	ID        string                  `gorm:"primaryKey;type:uuid" json:"id"`
	RoomCode  string                  `gorm:"index" json:"roomId"`
	Category  string                  `gorm:"not null;default:'General'" json:"category"`
	Variant   string                  `gorm:"not null;default:'duel'" json:"matchType"`
	Winner    string                  `gorm:"index" json:"winner,omitempty"`
	Duration  int                     `gorm:"not null;default:0" json:"duration"`
	Players   []types.HistoryPlayer   `gorm:"serializer:json" json:"players"`
	Questions []types.HistoryQuestion `gorm:"serializer:json" json:"questions"`
	Raid      *types.RaidView         `gorm:"serializer:json" json:"raidMeta,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (HistoryRecord) TableName() string { return "match_history" }
