package rating

import "math"

const (
	DefaultRating = 1200
	KFactor       = 32
)

var Categories = []string{
	"General",
	"Science",
	"History",
	"Sports",
	"Geography",
	"Entertainment",
	"Technology",
	"Mathematics",
}

type Tier struct {
	Name      string
	MinRating int
}

// Tiers must stay sorted by MinRating ascending.
var Tiers = []Tier{
	{Name: "Bronze", MinRating: 0},
	{Name: "Silver", MinRating: 1300},
	{Name: "Gold", MinRating: 1500},
	{Name: "Platinum", MinRating: 1700},
	{Name: "Diamond", MinRating: 1900},
	{Name: "Elite", MinRating: 2100},
}

// TierFor returns the highest tier whose threshold the rating meets.
func TierFor(r int) string {
	tier := Tiers[0].Name
	for _, entry := range Tiers {
		if r >= entry.MinRating {
			tier = entry.Name
		} else {
			break
		}
	}
	return tier
}

func clampRating(r float64) int {
	rounded := int(math.Round(r))
	if rounded < 0 {
		return 0
	}
	return rounded
}

// EloDelta computes the rating change for a player against an opponent's
// rating. win is 1/0 with no fractional draw credit: a tie counts as a loss.
// The delta is measured after clamping both sides at zero, so a player at the
// floor never loses further rating.
func EloDelta(playerRating, opponentRating int, won bool) int {
	score := 0.0
	if won {
		score = 1.0
	}
	expected := 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
	next := float64(playerRating) + KFactor*(score-expected)
	return clampRating(next) - clampRating(float64(playerRating))
}

func DefaultCategoryRatings() map[string]int {
	m := make(map[string]int, len(Categories))
	for _, c := range Categories {
		m[c] = DefaultRating
	}
	return m
}
