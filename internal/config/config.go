package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/quizbattle/quiz-battle-backend/internal/matchmaking"
	"github.com/quizbattle/quiz-battle-backend/internal/session"
)

type Config struct {
	Addr        string
	DatabaseURL string
	Session     session.Config
	Matchmaking matchmaking.Config
}

// Load reads a .env file if present, then the environment, falling back to
// the reference configuration.
func Load() Config {
	_ = godotenv.Load()

	sess := session.DefaultConfig()
	sess.QuestionTime = envInt("QUESTION_TIME_SEC", sess.QuestionTime)
	sess.QuestionsPerGame = envInt("QUESTIONS_PER_GAME", sess.QuestionsPerGame)
	sess.BossHealth = envInt("RAID_BOSS_HEALTH", sess.BossHealth)
	sess.DisconnectGrace = envDuration("DISCONNECT_GRACE", sess.DisconnectGrace)
	sess.StartDelay = envDuration("GAME_START_DELAY", sess.StartDelay)

	mm := matchmaking.DefaultConfig()
	mm.BaseWindow = envInt("MATCH_BASE_WINDOW", mm.BaseWindow)
	mm.GrowthPerSecond = envInt("MATCH_WINDOW_GROWTH", mm.GrowthPerSecond)

	return Config{
		Addr:        envString("ADDR", ":8080"),
		DatabaseURL: envString("DATABASE_URL", "postgres://localhost:5432/quizbattle?sslmode=disable"),
		Session:     sess,
		Matchmaking: mm,
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
