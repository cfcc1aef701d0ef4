package types

// Client -> Server command types.
const (
	CmdCreateRoom        = "create-room"
	CmdJoinRoom          = "join-room"
	CmdLeaveRoom         = "leave-room"
	CmdFindMatch         = "find-match"
	CmdCancelMatchmaking = "cancel-matchmaking"
	CmdStartGame         = "start-game"
	CmdAnswerQuestion    = "answer-question"
	CmdUsePowerUp        = "use-power-up"
)

// Server -> Client event types.
const (
	EvtRoomCreated          = "room-created"
	EvtRoomJoined           = "room-joined"
	EvtRoomLeft             = "room-left"
	EvtOpponentJoined       = "opponent-joined"
	EvtMatchFound           = "match-found"
	EvtMatchmakingStarted   = "matchmaking-started"
	EvtMatchmakingCancelled = "matchmaking-cancelled"
	EvtGameStarted          = "game-started"
	EvtTimerUpdate          = "timer-update"
	EvtAnswerReceived       = "answer-received"
	EvtQuestionTimeout      = "question-timeout"
	EvtNextQuestion         = "next-question"
	EvtPowerUpUsed          = "power-up-used"
	EvtPlayerDisconnected   = "player-disconnected"
	EvtGameEnded            = "game-ended"
	EvtError                = "error"
)

// ClientMessage is every inbound command on the socket. Type selects the
// command; the remaining fields are per-command payload.
type ClientMessage struct {
	Type          string `json:"type"`
	RoomID        string `json:"roomId,omitempty"`
	Category      string `json:"category,omitempty"`
	Variant       string `json:"variant,omitempty"`
	Answer        string `json:"answer,omitempty"`
	TimeRemaining *int   `json:"timeRemaining,omitempty"` // client hint, server clamps
	PowerUp       string `json:"powerUp,omitempty"`
}

// ServerMessage is every outbound notification. Errors always use
// Type=EvtError with only Message set, so clients have one shape to handle.
type ServerMessage struct {
	Type          string         `json:"type"`
	Message       string         `json:"message,omitempty"`
	RoomID        string         `json:"roomId,omitempty"`
	Room          *RoomView      `json:"room,omitempty"`
	Question      *QuestionView  `json:"question,omitempty"`
	TimeRemaining *int           `json:"timeRemaining,omitempty"`
	PlayerID      string         `json:"playerId,omitempty"`
	IsCorrect     *bool          `json:"isCorrect,omitempty"`
	Points        *int           `json:"points,omitempty"`
	Scores        map[string]int `json:"scores,omitempty"`
	PowerUp       string         `json:"powerUp,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	Duration      int            `json:"duration,omitempty"`
	History       *HistoryView   `json:"history,omitempty"`
}

// ErrorMessage builds the uniform error shape every failure renders as.
func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: EvtError, Message: msg}
}
