package entity

import "github.com/rocketscienceinc/seafight-backend/internal/game"

// Server to client event names.
const (
	EventRoomJoined   = "room_joined"
	EventGameStarted  = "game_started"
	EventShotResult   = "shot_result"
	EventGameOver     = "game_over"
	EventOpponentLeft = "opponent_left"
	EventErrorMessage = "error_message"
)

// Wire values of shot_result.result. A sinking shot is reported as a hit with Sunk set.
const (
	ShotHit  = "hit"
	ShotMiss = "miss"
	ShotNear = "near"
)

// Event is one message addressed to a single seat.
type Event struct {
	Name    string
	Payload any
}

type RoomJoined struct {
	RoomCode string `json:"room_code"`
	YourSeat int    `json:"your_seat"`
	Message  string `json:"message"`
}

type GameStarted struct {
	RoomCode   string  `json:"room_code"`
	YourSeat   int     `json:"your_seat"`
	BoardSize  int     `json:"board_size"`
	IsYourTurn bool    `json:"is_your_turn"`
	YourBoard  [][]int `json:"your_board"`
	// Fleet lists the ship lengths in placement order.
	Fleet []int `json:"fleet"`
}

type ShotResult struct {
	RoomCode     string `json:"room_code"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Result       string `json:"result"`
	ShooterSeat  int    `json:"shooter_seat"`
	NextTurnSeat int    `json:"next_turn_seat"`
	Sunk         bool   `json:"sunk"`
}

type GameOver struct {
	RoomCode   string         `json:"room_code"`
	WinnerSeat *int           `json:"winner_seat"`
	Reason     game.EndReason `json:"reason"`
}

type OpponentLeft struct {
	RoomCode string `json:"room_code"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

func NewRoomJoinedEvent(payload RoomJoined) Event {
	return Event{Name: EventRoomJoined, Payload: payload}
}

func NewGameStartedEvent(payload GameStarted) Event {
	return Event{Name: EventGameStarted, Payload: payload}
}

func NewShotResultEvent(payload ShotResult) Event {
	return Event{Name: EventShotResult, Payload: payload}
}

func NewGameOverEvent(payload GameOver) Event {
	return Event{Name: EventGameOver, Payload: payload}
}

func NewOpponentLeftEvent(roomCode string) Event {
	return Event{Name: EventOpponentLeft, Payload: OpponentLeft{RoomCode: roomCode}}
}

func NewErrorEvent(message string) Event {
	return Event{Name: EventErrorMessage, Payload: ErrorMessage{Error: message}}
}
