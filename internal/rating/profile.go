package rating

import (
	"math"

	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
)

// Streak multiples at which a win grants a free power-up charge.
const (
	streakExtraTimeEvery    = 3
	streakDoublePointsEvery = 5
	streakSkipEvery         = 7
)

// Profile is a participant's persisted progression state. It is mutated only
// at match finalization (and by power-up charge consumption during play).
type Profile struct {
	PlayerID     string
	Name         string
	Wins         int
	Losses       int
	TotalGames   int
	TotalPoints  int
	AverageScore float64

	Overall       int
	CategoryMMR   map[string]int
	Tier          string
	TiersUnlocked []string
	WinStreak     int

	PowerUps map[scoring.PowerUp]int
}

// NewProfile returns a fresh profile at the default rating.
func NewProfile(playerID, name string) *Profile {
	return &Profile{
		PlayerID:      playerID,
		Name:          name,
		Overall:       DefaultRating,
		CategoryMMR:   DefaultCategoryRatings(),
		Tier:          Tiers[0].Name,
		TiersUnlocked: []string{Tiers[0].Name},
		PowerUps:      map[scoring.PowerUp]int{},
	}
}

// CategoryRating returns the player's rating for a category, falling back to
// the default for categories never played.
func (p *Profile) CategoryRating(category string) int {
	if p.CategoryMMR != nil {
		if r, ok := p.CategoryMMR[category]; ok {
			return r
		}
	}
	return DefaultRating
}

// Result is one participant's view of a finished match.
type Result struct {
	Category        string
	Score           int
	Won             bool
	OpponentOverall int
}

// ApplyResult folds a match outcome into the profile: win/loss counters,
// lifetime score averages, the category Elo update, derived overall rating
// and tier, and the win-streak power-up grants. Returns the category rating
// delta that was applied.
func (p *Profile) ApplyResult(res Result) int {
	p.TotalGames++
	if res.Won {
		p.Wins++
	} else {
		p.Losses++
	}
	p.TotalPoints += res.Score
	p.AverageScore = float64(p.TotalPoints) / float64(p.TotalGames)

	if p.CategoryMMR == nil {
		p.CategoryMMR = DefaultCategoryRatings()
	}
	current := p.CategoryRating(res.Category)
	delta := EloDelta(current, res.OpponentOverall, res.Won)
	next := current + delta
	if next < 0 {
		next = 0
	}
	p.CategoryMMR[res.Category] = next

	p.Overall = averageRating(p.CategoryMMR)
	tier := TierFor(p.Overall)
	p.Tier = tier
	p.unlockTier(tier)

	if res.Won {
		p.WinStreak++
		p.grantStreakRewards()
	} else {
		p.WinStreak = 0
	}
	return delta
}

// AddPowerUp grants charges of a kind; used by streak rewards and quest
// claims.
func (p *Profile) AddPowerUp(kind scoring.PowerUp, n int) {
	if p.PowerUps == nil {
		p.PowerUps = map[scoring.PowerUp]int{}
	}
	p.PowerUps[kind] += n
}

func (p *Profile) grantStreakRewards() {
	if p.WinStreak%streakExtraTimeEvery == 0 {
		p.AddPowerUp(scoring.PowerUpExtraTime, 1)
	}
	if p.WinStreak%streakDoublePointsEvery == 0 {
		p.AddPowerUp(scoring.PowerUpDoublePoints, 1)
	}
	if p.WinStreak%streakSkipEvery == 0 {
		p.AddPowerUp(scoring.PowerUpSkip, 1)
	}
}

func (p *Profile) unlockTier(tier string) {
	for _, t := range p.TiersUnlocked {
		if t == tier {
			return
		}
	}
	p.TiersUnlocked = append(p.TiersUnlocked, tier)
}

func averageRating(categories map[string]int) int {
	if len(categories) == 0 {
		return DefaultRating
	}
	sum := 0
	for _, r := range categories {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(categories))))
}
