package scoring

import "math"

// Reference configuration for a standard match.
const (
	QuestionTime      = 20 // seconds per question
	QuestionsPerGame  = 10
	TimeBonusMax      = 50
	ExtraTimeBonus    = 5
	ExtraTimeHeadroom = 10 // how far past the time limit extensions may push
	RaidBossHealth    = 1000
)

// Score computes the points awarded for one answer. Correct answers earn the
// question's base points plus a bonus scaled by how much of the countdown was
// left; wrong answers earn nothing.
func Score(correct bool, remaining, limit, basePoints int) int {
	if !correct {
		return 0
	}
	if limit <= 0 {
		return basePoints
	}
	bonus := float64(remaining) / float64(limit) * TimeBonusMax
	return basePoints + int(math.Round(bonus))
}

// ClampRemaining bounds a client-supplied time hint to the server's
// authoritative remaining time. The server value always wins on disagreement.
func ClampRemaining(hint, serverRemaining int) int {
	if hint < 0 {
		return 0
	}
	if hint > serverRemaining {
		return serverRemaining
	}
	return hint
}

// ExtendTime returns the countdown value after an extra-time power-up. The
// ceiling tracks the question's time limit, so stacked uses can never push
// the countdown more than ExtraTimeHeadroom past it regardless of how the
// limit is configured.
func ExtendTime(remaining, limit int) int {
	extended := remaining + ExtraTimeBonus
	if ceiling := limit + ExtraTimeHeadroom; extended > ceiling {
		return ceiling
	}
	return extended
}
