package scoring

// PowerUp is a closed set of consumable modifiers. Unknown kinds are rejected
// at the transport boundary via ParsePowerUp, never deep in game logic.
type PowerUp string

const (
	PowerUpExtraTime    PowerUp = "extra_time"
	PowerUpDoublePoints PowerUp = "double_points"
	PowerUpSkip         PowerUp = "skip"
)

// PowerUpInfo is the client-facing description of one power-up kind.
type PowerUpInfo struct {
	Label        string `json:"label"`
	Description  string `json:"description"`
	BonusSeconds int    `json:"bonusSeconds,omitempty"`
}

var Catalog = map[PowerUp]PowerUpInfo{
	PowerUpExtraTime:    {Label: "Extra Time", Description: "+5s on the timer", BonusSeconds: ExtraTimeBonus},
	PowerUpDoublePoints: {Label: "Double Points", Description: "Doubles next correct answer"},
	PowerUpSkip:         {Label: "Auto Solve", Description: "Skip question with base points"},
}

func ParsePowerUp(s string) (PowerUp, bool) {
	switch PowerUp(s) {
	case PowerUpExtraTime, PowerUpDoublePoints, PowerUpSkip:
		return PowerUp(s), true
	default:
		return "", false
	}
}
