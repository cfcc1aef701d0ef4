package types

// RoomView is the client-safe projection of a live session.
type RoomView struct {
	Code            string              `json:"code"`
	Variant         string              `json:"variant"`
	Category        string              `json:"category"`
	Status          string              `json:"status"`
	Players         []PlayerView        `json:"players"`
	CurrentQuestion int                 `json:"currentQuestion"`
	TotalQuestions  int                 `json:"totalQuestions"`
	Scores          map[string]int      `json:"scores"`
	Teams           map[string][]string `json:"teams,omitempty"`
	Raid            *RaidView           `json:"raid,omitempty"`
}

type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// QuestionView never carries the correct choice.
type QuestionView struct {
	Prompt     string   `json:"question"`
	Choices    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Index      int      `json:"questionIndex"`
	Total      int      `json:"totalQuestions"`
	TimeLimit  int      `json:"timeLimit"`
}

type RaidView struct {
	BossHealth  int  `json:"bossHp"`
	DamageDealt int  `json:"damageDealt"`
	Success     bool `json:"success"`
}

// HistoryView summarizes a completed match; it is both the persisted match
// record and the payload of the game-ended broadcast.
type HistoryView struct {
	ID        string            `json:"id"`
	RoomCode  string            `json:"roomId"`
	Category  string            `json:"category"`
	Variant   string            `json:"matchType"`
	Winner    string            `json:"winner,omitempty"`
	Duration  int               `json:"duration"`
	Players   []HistoryPlayer   `json:"players"`
	Questions []HistoryQuestion `json:"questions"`
	Raid      *RaidView         `json:"raidMeta,omitempty"`
}

type HistoryPlayer struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsWinner    bool   `json:"isWinner"`
	RatingDelta int    `json:"ratingDelta"`
}

// HistoryQuestion records one round's outcome keyed by participant.
type HistoryQuestion struct {
	QuestionID string                   `json:"questionId"`
	Prompt     string                   `json:"question"`
	Answers    map[string]HistoryAnswer `json:"answers"`
}

type HistoryAnswer struct {
	Answer    *string `json:"answer"` // nil = timed out
	IsCorrect bool    `json:"isCorrect"`
	Points    int     `json:"points"`
	PowerUp   string  `json:"usedPowerup,omitempty"`
}
