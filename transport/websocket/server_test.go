package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/seafight-backend/internal/config"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
	"github.com/rocketscienceinc/seafight-backend/internal/usecase"
)

const readTimeout = 5 * time.Second

func newTestServer(t *testing.T, conf config.Gateway) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	settings := game.DefaultSettings()
	settings.StartingSeat = game.StartCreator

	manager := usecase.NewGameManager(logger, usecase.ManagerOptions{Settings: settings}, nil)
	t.Cleanup(manager.Close)

	srv := httptest.NewServer(New(logger, manager, conf).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// readUntil skips messages until one with the given action arrives.
func readUntil(t *testing.T, conn *websocket.Conn, action string) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var message Message
		require.NoError(t, conn.ReadJSON(&message), "waiting for %s", action)

		if message.Action == action {
			return message
		}
	}
}

func decode[T any](t *testing.T, message Message) T {
	t.Helper()

	var payload T
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return payload
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	return decode[entity.ErrorMessage](t, readUntil(t, conn, entity.EventErrorMessage)).Error
}

func startMatch(t *testing.T, srv *httptest.Server) (*websocket.Conn, *websocket.Conn, string) {
	t.Helper()

	creator, joiner := dial(t, srv), dial(t, srv)

	send(t, creator, ActionCreateRoom, struct{}{})
	joined := decode[entity.RoomJoined](t, readUntil(t, creator, entity.EventRoomJoined))
	require.Equal(t, 0, joined.YourSeat)

	send(t, joiner, ActionJoinRoom, JoinRoomPayload{RoomCode: joined.RoomCode})
	joinerJoined := decode[entity.RoomJoined](t, readUntil(t, joiner, entity.EventRoomJoined))
	require.Equal(t, 1, joinerJoined.YourSeat)

	return creator, joiner, joined.RoomCode
}

func TestServer_TwoPlayerMatch(t *testing.T) {
	srv := newTestServer(t, config.Gateway{})

	// Given: two connected players in the same room
	creator, joiner, code := startMatch(t, srv)

	// Then: both get their own board and the creator has the first turn
	creatorStart := decode[entity.GameStarted](t, readUntil(t, creator, entity.EventGameStarted))
	joinerStart := decode[entity.GameStarted](t, readUntil(t, joiner, entity.EventGameStarted))

	assert.Equal(t, code, creatorStart.RoomCode)
	assert.Equal(t, game.DefaultBoardSize, creatorStart.BoardSize)
	assert.Len(t, creatorStart.YourBoard, game.DefaultBoardSize)
	assert.True(t, creatorStart.IsYourTurn)
	assert.False(t, joinerStart.IsYourTurn)

	// When: the creator fires
	send(t, creator, ActionFire, map[string]int{"x": 2, "y": 3})

	// Then: both players see the shot and the turn passes
	for _, conn := range []*websocket.Conn{creator, joiner} {
		shot := decode[entity.ShotResult](t, readUntil(t, conn, entity.EventShotResult))
		assert.Equal(t, 2, shot.X)
		assert.Equal(t, 3, shot.Y)
		assert.Equal(t, 0, shot.ShooterSeat)
		assert.Equal(t, 1, shot.NextTurnSeat)
	}

	// When: the creator fires again out of turn
	send(t, creator, ActionFire, map[string]int{"x": 4, "y": 4})

	// Then: only the creator gets an error
	assert.Contains(t, readError(t, creator), "not your turn")
}

func TestServer_Disconnect(t *testing.T) {
	srv := newTestServer(t, config.Gateway{})

	// Given: a running match
	creator, joiner, code := startMatch(t, srv)
	readUntil(t, joiner, entity.EventGameStarted)

	// When: the creator drops the connection
	require.NoError(t, creator.Close())

	// Then: the joiner is told the opponent left and wins by forfeit
	left := decode[entity.OpponentLeft](t, readUntil(t, joiner, entity.EventOpponentLeft))
	assert.Equal(t, code, left.RoomCode)

	over := decode[entity.GameOver](t, readUntil(t, joiner, entity.EventGameOver))
	require.NotNil(t, over.WinnerSeat)
	assert.Equal(t, 1, *over.WinnerSeat)
	assert.Equal(t, game.ReasonForfeit, over.Reason)

	// Then: the joiner may open a new room straight away
	send(t, joiner, ActionCreateRoom, struct{}{})
	joined := decode[entity.RoomJoined](t, readUntil(t, joiner, entity.EventRoomJoined))
	assert.Equal(t, 0, joined.YourSeat)
}

func TestServer_BotRoom(t *testing.T) {
	srv := newTestServer(t, config.Gateway{})
	conn := dial(t, srv)

	// When: a bot room is created
	send(t, conn, ActionCreateBotRoom, struct{}{})

	// Then: the match starts immediately
	joined := decode[entity.RoomJoined](t, readUntil(t, conn, entity.EventRoomJoined))
	started := decode[entity.GameStarted](t, readUntil(t, conn, entity.EventGameStarted))

	assert.Equal(t, joined.RoomCode, started.RoomCode)
	assert.True(t, started.IsYourTurn)

	// When: the player fires
	send(t, conn, ActionFire, map[string]int{"x": 0, "y": 0})

	// Then: the player's shot is followed by the bot's answer
	first := decode[entity.ShotResult](t, readUntil(t, conn, entity.EventShotResult))
	second := decode[entity.ShotResult](t, readUntil(t, conn, entity.EventShotResult))

	assert.Equal(t, 0, first.ShooterSeat)
	assert.Equal(t, 1, second.ShooterSeat)
	assert.Equal(t, 0, second.NextTurnSeat)
}

func TestServer_ProtocolErrors(t *testing.T) {
	srv := newTestServer(t, config.Gateway{})

	t.Run("Empty room code", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, ActionJoinRoom, JoinRoomPayload{RoomCode: ""})

		assert.Contains(t, readError(t, conn), "invalid room code")
	})

	t.Run("Unknown room", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, ActionJoinRoom, JoinRoomPayload{RoomCode: "00000"})

		assert.Contains(t, readError(t, conn), "room not found")
	})

	t.Run("Fire outside a room", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, ActionFire, map[string]int{"x": 1, "y": 1})

		assert.Contains(t, readError(t, conn), "not in a room")
	})

	t.Run("Malformed coordinates", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, ActionFire, map[string]int{"x": 1})
		assert.Contains(t, readError(t, conn), "invalid coordinates")

		send(t, conn, ActionFire, map[string]string{"x": "a", "y": "b"})
		assert.Contains(t, readError(t, conn), "invalid coordinates")
	})

	t.Run("Unknown action and invalid JSON", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, "surrender", struct{}{})
		assert.Contains(t, readError(t, conn), "unknown action")

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
		assert.Equal(t, "invalid message", readError(t, conn))
	})

	t.Run("Second room while seated", func(t *testing.T) {
		conn := dial(t, srv)

		send(t, conn, ActionCreateRoom, struct{}{})
		readUntil(t, conn, entity.EventRoomJoined)

		send(t, conn, ActionCreateBotRoom, struct{}{})

		assert.Contains(t, readError(t, conn), "already in a room")
	})
}

func TestServer_RateLimit(t *testing.T) {
	// Given: a gateway that allows a single message
	srv := newTestServer(t, config.Gateway{MessageRate: 0.001, MessageBurst: 1})
	conn := dial(t, srv)

	// When: two messages arrive back to back
	send(t, conn, "noop", struct{}{})
	send(t, conn, "noop", struct{}{})

	// Then: the first is processed and the second is refused
	assert.Contains(t, readError(t, conn), "unknown action")
	assert.Contains(t, readError(t, conn), "too many requests")
}
