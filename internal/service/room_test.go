package service

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

const waitTimeout = 5 * time.Second

type recordingHandle struct {
	mu     sync.Mutex
	events []entity.Event
}

func (that *recordingHandle) Send(event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *recordingHandle) Events() []entity.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Event(nil), that.events...)
}

func (that *recordingHandle) Names() []string {
	var names []string
	for _, event := range that.Events() {
		names = append(names, event.Name)
	}

	return names
}

func (that *recordingHandle) Last(name string) (entity.Event, bool) {
	events := that.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name == name {
			return events[i], true
		}
	}

	return entity.Event{}, false
}

type roomObserver struct {
	mu      sync.Mutex
	closed  []string
	records []*entity.MatchRecord
}

func (that *roomObserver) onClosed(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = append(that.closed, code)
}

func (that *roomObserver) onFinished(record *entity.MatchRecord) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.records = append(that.records, record)
}

func (that *roomObserver) Records() []*entity.MatchRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.MatchRecord(nil), that.records...)
}

func (that *roomObserver) Closed() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.closed...)
}

func newTestRoom(t *testing.T, creator SeatHandle, withBot bool, settings game.Settings) (*Room, *roomObserver) {
	t.Helper()

	observer := &roomObserver{}
	room := NewRoom(creator, RoomOptions{
		Code:       "12345",
		Settings:   settings,
		WithBot:    withBot,
		Rng:        rand.New(rand.NewPCG(1, 2)),
		OnClosed:   observer.onClosed,
		OnFinished: observer.onFinished,
	})

	go room.Run()

	t.Cleanup(room.Stop)

	return room, observer
}

func creatorStarts() game.Settings {
	settings := game.DefaultSettings()
	settings.StartingSeat = game.StartCreator

	return settings
}

func waitClosed(t *testing.T, room *Room) {
	t.Helper()

	select {
	case <-room.Done():
	case <-time.After(waitTimeout):
		t.Fatal("room did not close")
	}
}

func TestRoom_Join(t *testing.T) {
	t.Run("Second human starts the match", func(t *testing.T) {
		// Given: an open room with its creator
		creator, joiner := &recordingHandle{}, &recordingHandle{}
		room, _ := newTestRoom(t, creator, false, creatorStarts())

		// When: a second player joins
		seat, err := room.Join(joiner)

		// Then: the joiner gets seat 1 and both players get their own boards
		require.NoError(t, err)
		assert.Equal(t, game.SeatJoiner, seat)
		assert.Equal(t, RoomActive, room.Status())
		assert.Equal(t, []string{entity.EventRoomJoined, entity.EventGameStarted}, creator.Names())
		assert.Equal(t, []string{entity.EventRoomJoined, entity.EventGameStarted}, joiner.Names())

		event, ok := creator.Last(entity.EventGameStarted)
		require.True(t, ok)
		started := event.Payload.(entity.GameStarted)
		assert.Equal(t, "12345", started.RoomCode)
		assert.Equal(t, 0, started.YourSeat)
		assert.Equal(t, game.DefaultBoardSize, started.BoardSize)
		assert.True(t, started.IsYourTurn)
		assert.Len(t, started.YourBoard, game.DefaultBoardSize)
		assert.Equal(t, game.DefaultFleet, started.Fleet)

		event, ok = joiner.Last(entity.EventGameStarted)
		require.True(t, ok)
		assert.False(t, event.Payload.(entity.GameStarted).IsYourTurn)
	})

	t.Run("Third player is rejected", func(t *testing.T) {
		// Given: a room with both seats taken
		room, _ := newTestRoom(t, &recordingHandle{}, false, creatorStarts())
		_, err := room.Join(&recordingHandle{})
		require.NoError(t, err)

		// When: another player joins
		_, err = room.Join(&recordingHandle{})

		// Then: the room is full
		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Bot room cannot be joined", func(t *testing.T) {
		room, _ := newTestRoom(t, &recordingHandle{}, true, creatorStarts())

		_, err := room.Join(&recordingHandle{})

		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})
}

func TestRoom_Fire(t *testing.T) {
	t.Run("Shot is announced to both seats and the turn passes", func(t *testing.T) {
		// Given: a running match where the creator fires first
		creator, joiner := &recordingHandle{}, &recordingHandle{}
		room, _ := newTestRoom(t, creator, false, creatorStarts())
		_, err := room.Join(joiner)
		require.NoError(t, err)

		// When: the creator fires
		err = room.Fire(creator, 3, 4)

		// Then: both seats see the same shot result
		require.NoError(t, err)

		for _, handle := range []*recordingHandle{creator, joiner} {
			event, ok := handle.Last(entity.EventShotResult)
			require.True(t, ok)

			shot := event.Payload.(entity.ShotResult)
			assert.Equal(t, 3, shot.X)
			assert.Equal(t, 4, shot.Y)
			assert.Equal(t, 0, shot.ShooterSeat)
			assert.Equal(t, 1, shot.NextTurnSeat)
			assert.Contains(t, []string{entity.ShotHit, entity.ShotMiss, entity.ShotNear}, shot.Result)
		}
	})

	t.Run("Protocol errors change nothing", func(t *testing.T) {
		// Given: a running match where the creator fires first
		creator, joiner := &recordingHandle{}, &recordingHandle{}
		room, _ := newTestRoom(t, creator, false, creatorStarts())
		_, err := room.Join(joiner)
		require.NoError(t, err)

		// When: the joiner fires out of turn and the creator fires off the board
		turnErr := room.Fire(joiner, 0, 0)
		boundsErr := room.Fire(creator, 10, 0)

		// Then: both are rejected and nobody was told about a shot
		assert.ErrorIs(t, turnErr, apperror.ErrNotYourTurn)
		assert.ErrorIs(t, boundsErr, apperror.ErrOutOfBounds)
		assert.NotContains(t, creator.Names(), entity.EventShotResult)
		assert.NotContains(t, joiner.Names(), entity.EventShotResult)
	})

	t.Run("Firing before an opponent joined", func(t *testing.T) {
		creator := &recordingHandle{}
		room, _ := newTestRoom(t, creator, false, creatorStarts())

		err := room.Fire(creator, 0, 0)

		assert.ErrorIs(t, err, apperror.ErrMatchNotActive)
	})

	t.Run("Connection without a seat cannot fire", func(t *testing.T) {
		// Given: a running match
		creator, joiner := &recordingHandle{}, &recordingHandle{}
		room, _ := newTestRoom(t, creator, false, creatorStarts())
		_, err := room.Join(joiner)
		require.NoError(t, err)

		// When: a connection that never joined fires
		stranger := &recordingHandle{}
		err = room.Fire(stranger, 0, 0)

		// Then: it is rejected and the match did not move
		assert.ErrorIs(t, err, apperror.ErrNotInRoom)
		assert.NotContains(t, joiner.Names(), entity.EventShotResult)
		assert.ErrorIs(t, room.Fire(joiner, 0, 0), apperror.ErrNotYourTurn)
	})
}

func TestRoom_BotMatch(t *testing.T) {
	// Given: a bot room
	creator := &recordingHandle{}
	room, observer := newTestRoom(t, creator, true, game.DefaultSettings())

	// When: the creator fires at every cell in order until the room closes
	for y := 0; y < game.DefaultBoardSize; y++ {
		for x := 0; x < game.DefaultBoardSize; x++ {
			err := room.Fire(creator, x, y)
			if err != nil {
				require.ErrorIs(t, err, apperror.ErrRoomClosed)
				break
			}
		}
	}

	waitClosed(t, room)

	// Then: the bot answered every shot without repeating a cell
	botShots := map[game.Point]bool{}
	humanShots := 0

	for _, event := range creator.Events() {
		shot, ok := event.Payload.(entity.ShotResult)
		if !ok {
			continue
		}

		if shot.ShooterSeat == 1 {
			p := game.Point{X: shot.X, Y: shot.Y}
			require.False(t, botShots[p], "bot fired %v twice", p)
			botShots[p] = true
		} else {
			humanShots++
		}
	}

	assert.InDelta(t, humanShots, len(botShots), 1)

	// Then: the match ended with a winner and was archived
	event, ok := creator.Last(entity.EventGameOver)
	require.True(t, ok)
	over := event.Payload.(entity.GameOver)
	require.NotNil(t, over.WinnerSeat)
	assert.Equal(t, game.ReasonFleetDestroyed, over.Reason)

	records := observer.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].WithBot)
	assert.Equal(t, *over.WinnerSeat, *records[0].WinnerSeat)
	assert.Equal(t, []string{"12345"}, observer.Closed())
	assert.Equal(t, RoomClosed, room.Status())
}

func TestRoom_Disconnect(t *testing.T) {
	t.Run("Leaving a running match forfeits it", func(t *testing.T) {
		// Given: a running match
		creator, joiner := &recordingHandle{}, &recordingHandle{}
		room, observer := newTestRoom(t, creator, false, creatorStarts())
		_, err := room.Join(joiner)
		require.NoError(t, err)

		// When: the creator disconnects
		room.Disconnect(creator)
		waitClosed(t, room)

		// Then: the joiner is told the opponent left and that they won by forfeit
		names := joiner.Names()
		require.GreaterOrEqual(t, len(names), 2)
		assert.Equal(t, []string{entity.EventOpponentLeft, entity.EventGameOver}, names[len(names)-2:])

		event, _ := joiner.Last(entity.EventGameOver)
		over := event.Payload.(entity.GameOver)
		require.NotNil(t, over.WinnerSeat)
		assert.Equal(t, 1, *over.WinnerSeat)
		assert.Equal(t, game.ReasonForfeit, over.Reason)

		// Then: the creator is not written to after leaving
		assert.NotContains(t, creator.Names(), entity.EventGameOver)

		records := observer.Records()
		require.Len(t, records, 1)
		assert.Equal(t, game.ReasonForfeit, records[0].Reason)

		// Then: the closed room rejects further shots
		assert.ErrorIs(t, room.Fire(joiner, 0, 0), apperror.ErrRoomClosed)
	})

	t.Run("Creator leaving an open room closes it without a record", func(t *testing.T) {
		creator := &recordingHandle{}
		room, observer := newTestRoom(t, creator, false, creatorStarts())

		room.Disconnect(creator)
		waitClosed(t, room)

		assert.Empty(t, observer.Records())
		assert.Equal(t, []string{"12345"}, observer.Closed())

		_, err := room.Join(&recordingHandle{})
		assert.ErrorIs(t, err, apperror.ErrRoomClosed)
	})
}

func TestRoom_Stop(t *testing.T) {
	// Given: a running match
	creator, joiner := &recordingHandle{}, &recordingHandle{}
	room, observer := newTestRoom(t, creator, false, creatorStarts())
	_, err := room.Join(joiner)
	require.NoError(t, err)

	// When: the room is stopped
	room.Stop()

	// Then: the match is aborted without a winner
	event, ok := joiner.Last(entity.EventGameOver)
	require.True(t, ok)
	over := event.Payload.(entity.GameOver)
	assert.Nil(t, over.WinnerSeat)
	assert.Equal(t, game.ReasonAborted, over.Reason)

	records := observer.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsAborted())
	assert.Equal(t, RoomClosed, room.Status())
}

func TestRoom_InfeasibleFleetAborts(t *testing.T) {
	// Given: settings whose fleet cannot fit on the board
	creator := &recordingHandle{}
	settings := game.Settings{BoardSize: 3, Fleet: []int{4}, StartingSeat: game.StartCreator}

	// When: a bot room starts
	room, observer := newTestRoom(t, creator, true, settings)
	waitClosed(t, room)

	// Then: the creator is told about the error and that the match is gone
	assert.Equal(t, []string{entity.EventRoomJoined, entity.EventErrorMessage, entity.EventOpponentLeft}, creator.Names())

	records := observer.Records()
	require.Len(t, records, 1)
	assert.Equal(t, game.ReasonAborted, records[0].Reason)
}

func TestRoom_Disconnect_StrangerIsIgnored(t *testing.T) {
	// Given: a running match
	creator, joiner := &recordingHandle{}, &recordingHandle{}
	room, observer := newTestRoom(t, creator, false, creatorStarts())
	_, err := room.Join(joiner)
	require.NoError(t, err)

	// When: a connection that holds no seat disconnects
	room.Disconnect(&recordingHandle{})

	// Then: nobody forfeits and the match goes on
	assert.NotContains(t, joiner.Names(), entity.EventOpponentLeft)
	assert.Empty(t, observer.Records())
	assert.Equal(t, RoomActive, room.Status())
	require.NoError(t, room.Fire(creator, 0, 0))
}

func TestRoom_Holds(t *testing.T) {
	// Given: a room with its creator
	creator, joiner := &recordingHandle{}, &recordingHandle{}
	room, _ := newTestRoom(t, creator, false, creatorStarts())

	// Then: only seated handles are held
	assert.True(t, room.Holds(creator))
	assert.False(t, room.Holds(joiner))

	// When: the creator tries to join their own room
	_, err := room.Join(creator)

	// Then: the creator is already seated
	require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)

	// When: the creator leaves
	room.Disconnect(creator)
	waitClosed(t, room)

	// Then: the closed room holds nobody
	assert.False(t, room.Holds(creator))
}

func TestRoom_JoinIntoAbortedStart(t *testing.T) {
	// Given: a two-player room whose fleet cannot fit on the board
	creator, joiner := &recordingHandle{}, &recordingHandle{}
	settings := game.Settings{BoardSize: 3, Fleet: []int{4}, StartingSeat: game.StartCreator}
	room, observer := newTestRoom(t, creator, false, settings)

	// When: the second player joins
	_, err := room.Join(joiner)

	// Then: the join fails because the match aborted as it started
	require.ErrorIs(t, err, apperror.ErrInvariantViolation)
	waitClosed(t, room)
	assert.Equal(t, []string{entity.EventRoomJoined, entity.EventErrorMessage, entity.EventOpponentLeft}, joiner.Names())

	records := observer.Records()
	require.Len(t, records, 1)
	assert.Equal(t, game.ReasonAborted, records[0].Reason)
}
