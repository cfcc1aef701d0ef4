package hub

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/quizbattle/quiz-battle-backend/internal/session"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrNoFreeCode means every generated code collided with a live session.
var ErrNoFreeCode = errors.New("could not allocate a free room code")

// GenerateCode returns a short, human-shareable room code. Uniqueness among
// live sessions is the caller's job (retry on collision).
func GenerateCode() (string, error) {
	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// CreateWithCode generates codes until one is free and registers a session
// under it. Collisions are retried a few times; a shut-down hub reports its
// context error instead of spinning.
func (h *Hub) CreateWithCode(params session.Params) (*session.Session, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		params.Code = code
		if s := h.Create(params); s != nil {
			return s, nil
		}
		if err := h.ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, ErrNoFreeCode
}
