package rating

import (
	"testing"

	"github.com/quizbattle/quiz-battle-backend/internal/scoring"
	"github.com/stretchr/testify/require"
)

func TestApplyResult_Win(t *testing.T) {
	p := NewProfile("p1", "alice")

	delta := p.ApplyResult(Result{Category: "General", Score: 450, Won: true, OpponentOverall: 1200})

	require.Equal(t, 16, delta)
	require.Equal(t, 1, p.Wins)
	require.Equal(t, 0, p.Losses)
	require.Equal(t, 1, p.TotalGames)
	require.Equal(t, 450, p.TotalPoints)
	require.InDelta(t, 450.0, p.AverageScore, 0.001)
	require.Equal(t, 1216, p.CategoryMMR["General"])
	// Overall is the mean of all eight category ratings.
	require.Equal(t, 1202, p.Overall)
	require.Equal(t, "Bronze", p.Tier)
	require.Equal(t, 1, p.WinStreak)
}

func TestApplyResult_LossResetsStreak(t *testing.T) {
	p := NewProfile("p1", "alice")
	p.WinStreak = 4

	delta := p.ApplyResult(Result{Category: "Science", Score: 120, Won: false, OpponentOverall: 1200})

	require.Equal(t, -16, delta)
	require.Equal(t, 1, p.Losses)
	require.Equal(t, 0, p.WinStreak)
	require.Equal(t, 1184, p.CategoryMMR["Science"])
}

func TestApplyResult_AverageScoreFromLifetimeTotals(t *testing.T) {
	p := NewProfile("p1", "alice")
	p.ApplyResult(Result{Category: "General", Score: 100, Won: true, OpponentOverall: 1200})
	p.ApplyResult(Result{Category: "General", Score: 200, Won: false, OpponentOverall: 1200})

	require.Equal(t, 2, p.TotalGames)
	require.Equal(t, 300, p.TotalPoints)
	require.InDelta(t, 150.0, p.AverageScore, 0.001)
}

func TestStreakGrants(t *testing.T) {
	p := NewProfile("p1", "alice")
	for i := 0; i < 7; i++ {
		p.ApplyResult(Result{Category: "General", Score: 100, Won: true, OpponentOverall: 1200})
	}

	// Streak hit 3 and 6 for extra time, 5 for double points, 7 for skip.
	require.Equal(t, 2, p.PowerUps[scoring.PowerUpExtraTime])
	require.Equal(t, 1, p.PowerUps[scoring.PowerUpDoublePoints])
	require.Equal(t, 1, p.PowerUps[scoring.PowerUpSkip])
}

func TestTiersUnlockedNeverShrinks(t *testing.T) {
	p := NewProfile("p1", "alice")
	for _, c := range Categories {
		p.CategoryMMR[c] = 1600
	}
	p.ApplyResult(Result{Category: "General", Score: 100, Won: true, OpponentOverall: 1200})
	require.Contains(t, p.TiersUnlocked, "Gold")

	// Tank the ratings; Gold stays unlocked.
	for _, c := range Categories {
		p.CategoryMMR[c] = 100
	}
	p.ApplyResult(Result{Category: "General", Score: 0, Won: false, OpponentOverall: 1200})
	require.Equal(t, "Bronze", p.Tier)
	require.Contains(t, p.TiersUnlocked, "Gold")
	require.Contains(t, p.TiersUnlocked, "Bronze")
}
