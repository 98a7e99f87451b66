package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
	"github.com/rocketscienceinc/seafight-backend/internal/pkg"
	"github.com/rocketscienceinc/seafight-backend/internal/service"
)

const (
	DefaultCodeLength   = 5
	DefaultCodeCooldown = 10 * time.Minute

	maxCodeAttempts = 100
)

var (
	ErrNoFreeRoomCode = errors.New("no free room code")
	ErrManagerClosed  = errors.New("game manager is closed")
)

type archiver interface {
	Enqueue(record *entity.MatchRecord) bool
}

type ManagerOptions struct {
	Settings     game.Settings
	CodeLength   int
	CodeCooldown time.Duration
}

type Stats struct {
	OpenRooms     int   `json:"open_rooms"`
	ActiveRooms   int   `json:"active_rooms"`
	GamesFinished int64 `json:"games_finished"`
}

// GameManager is the directory of live rooms. It never holds its lock while talking to a room.
type GameManager struct {
	logger  *slog.Logger
	opts    ManagerOptions
	archive archiver

	generateCode func(length int) (string, error)

	mu      sync.RWMutex
	rooms   map[string]*service.Room
	retired map[string]time.Time
	closed  bool

	gamesFinished atomic.Int64
	wg            sync.WaitGroup
}

// NewGameManager creates the registry. archive may be nil, in which case finished matches are only counted.
func NewGameManager(logger *slog.Logger, opts ManagerOptions, archive archiver) *GameManager {
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultCodeLength
	}

	if opts.CodeCooldown <= 0 {
		opts.CodeCooldown = DefaultCodeCooldown
	}

	return &GameManager{
		logger:  logger.With("component", "game_manager"),
		opts:    opts,
		archive: archive,

		generateCode: pkg.GenerateRoomCode,

		rooms:   make(map[string]*service.Room),
		retired: make(map[string]time.Time),
	}
}

// CreateRoom opens a room for two humans with the caller at seat 0.
func (that *GameManager) CreateRoom(handle service.SeatHandle) (string, error) {
	return that.createRoom(handle, false)
}

// CreateBotRoom opens a room against the bot and starts the match right away.
func (that *GameManager) CreateBotRoom(handle service.SeatHandle) (string, error) {
	return that.createRoom(handle, true)
}

// JoinRoom seats the caller in an open room.
func (that *GameManager) JoinRoom(code string, handle service.SeatHandle) (game.Seat, error) {
	code = strings.TrimSpace(code)

	if code == "" {
		return 0, fmt.Errorf("%w: room code is empty", apperror.ErrInvalidRoomCode)
	}

	if !pkg.IsRoomCode(code, that.opts.CodeLength) {
		return 0, fmt.Errorf("%w: %q", apperror.ErrInvalidRoomCode, code)
	}

	room, err := that.getRoom(code)
	if err != nil {
		return 0, err
	}

	seat, err := room.Join(handle)
	if errors.Is(err, apperror.ErrRoomClosed) {
		return 0, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to join room %s: %w", code, err)
	}

	return seat, nil
}

// Fire shoots for the seat handle holds in the room. A handle from an earlier room under the
// same code gets ErrNotInRoom.
func (that *GameManager) Fire(code string, handle service.SeatHandle, x, y int) error {
	room, err := that.getRoom(code)
	if err != nil {
		return err
	}

	return room.Fire(handle, x, y)
}

// Disconnect releases the seat handle holds. Unknown rooms and foreign handles are ignored.
func (that *GameManager) Disconnect(code string, handle service.SeatHandle) {
	room, err := that.getRoom(code)
	if err != nil {
		return
	}

	room.Disconnect(handle)
}

// IsSeated reports whether handle still holds a seat in the live room under code.
func (that *GameManager) IsSeated(code string, handle service.SeatHandle) bool {
	room, err := that.getRoom(code)
	if err != nil {
		return false
	}

	return room.Holds(handle)
}

func (that *GameManager) Stats() Stats {
	that.mu.RLock()
	defer that.mu.RUnlock()

	stats := Stats{GamesFinished: that.gamesFinished.Load()}

	for _, room := range that.rooms {
		switch room.Status() {
		case service.RoomOpen:
			stats.OpenRooms++
		case service.RoomActive:
			stats.ActiveRooms++
		case service.RoomClosed:
		}
	}

	return stats
}

// Close stops every room and waits for their goroutines to exit.
func (that *GameManager) Close() {
	that.mu.Lock()
	that.closed = true

	rooms := make([]*service.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}
	that.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
	}

	that.wg.Wait()

	that.logger.Info("all rooms stopped", "rooms", len(rooms))
}

func (that *GameManager) createRoom(handle service.SeatHandle, withBot bool) (string, error) {
	log := that.logger.With("method", "createRoom")

	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return "", ErrManagerClosed
	}

	code, err := that.newCode()
	if err != nil {
		that.mu.Unlock()
		return "", err
	}

	room := service.NewRoom(handle, service.RoomOptions{
		Code:       code,
		Settings:   that.opts.Settings,
		WithBot:    withBot,
		Logger:     that.logger,
		OnClosed:   that.retire,
		OnFinished: that.onFinished,
	})

	that.rooms[code] = room
	that.wg.Add(1)
	that.mu.Unlock()

	go func() {
		defer that.wg.Done()
		room.Run()
	}()

	log.Info("room created", "roomCode", code, "withBot", withBot)

	return code, nil
}

// newCode must be called with the lock held.
func (that *GameManager) newCode() (string, error) {
	now := time.Now()
	for code, retiredAt := range that.retired {
		if now.Sub(retiredAt) >= that.opts.CodeCooldown {
			delete(that.retired, code)
		}
	}

	for range maxCodeAttempts {
		code, err := that.generateCode(that.opts.CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, live := that.rooms[code]; live {
			continue
		}

		if _, cooling := that.retired[code]; cooling {
			continue
		}

		return code, nil
	}

	return "", fmt.Errorf("%w after %d attempts", ErrNoFreeRoomCode, maxCodeAttempts)
}

func (that *GameManager) getRoom(code string) (*service.Room, error) {
	that.mu.RLock()
	room, ok := that.rooms[code]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return room, nil
}

func (that *GameManager) retire(code string) {
	that.mu.Lock()
	delete(that.rooms, code)
	that.retired[code] = time.Now()
	that.mu.Unlock()

	that.logger.Info("room closed", "roomCode", code)
}

func (that *GameManager) onFinished(record *entity.MatchRecord) {
	that.gamesFinished.Add(1)

	if that.archive == nil {
		return
	}

	if !that.archive.Enqueue(record) {
		that.logger.Warn("match record dropped", "roomCode", record.RoomCode)
	}
}
