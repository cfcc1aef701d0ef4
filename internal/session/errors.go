package session

import "errors"

var (
	ErrUnauthorized    = errors.New("not a participant in this room")
	ErrNotOwner        = errors.New("only the room owner can start the game")
	ErrRoomFull        = errors.New("room is full")
	ErrNotReady        = errors.New("waiting for opponent")
	ErrBadState        = errors.New("invalid command for current game state")
	ErrAlreadyAnswered = errors.New("already answered this question")
	ErrPowerUpActive   = errors.New("power-up already active for this question")
	ErrNoCharges       = errors.New("no charges left for this power-up")
	ErrQuestionSupply  = errors.New("not enough questions available")
)
