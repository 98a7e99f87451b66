package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/seafight-backend/internal/entity"
)

// Client to server actions.
const (
	ActionCreateRoom    = "create_room"
	ActionCreateBotRoom = "create_bot_room"
	ActionJoinRoom      = "join_room"
	ActionFire          = "fire"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

type FirePayload struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func encodeEvent(event entity.Event) ([]byte, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.Name, err)
	}

	data, err := json.Marshal(Message{Action: event.Name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", event.Name, err)
	}

	return data, nil
}
