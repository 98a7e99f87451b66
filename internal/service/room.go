package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

type RoomStatus int32

const (
	RoomOpen RoomStatus = iota
	RoomActive
	RoomClosed
)

func (that RoomStatus) String() string {
	switch that {
	case RoomOpen:
		return "open"
	case RoomActive:
		return "active"
	default:
		return "closed"
	}
}

const abortedMessage = "match aborted due to a server error"

type RoomOptions struct {
	Code     string
	Settings game.Settings
	WithBot  bool
	Rng      *rand.Rand
	Logger   *slog.Logger

	// OnClosed is called from the room goroutine once the room stops accepting commands.
	OnClosed func(code string)
	// OnFinished receives the record of a match that ended. It must not block.
	OnFinished func(record *entity.MatchRecord)
}

// Room owns one match and serializes everything that happens to it on its own goroutine.
// Callers talk to it only through Join, Fire, Disconnect, Holds and Stop, and are identified by
// the handle they joined with.
type Room struct {
	code      string
	createdAt time.Time
	withBot   bool

	logger *slog.Logger
	rng    *rand.Rand

	match     *game.Match
	bot       *Bot
	seats     [2]SeatHandle
	startedAt time.Time

	status atomic.Int32
	inbox  chan any
	done   chan struct{}

	onClosed   func(code string)
	onFinished func(record *entity.MatchRecord)
}

// NewRoom seats the creator at seat 0. Nothing happens until Run is started.
func NewRoom(creator SeatHandle, opts RoomOptions) *Room {
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // it's ok
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	room := &Room{
		code:      opts.Code,
		createdAt: time.Now(),
		withBot:   opts.WithBot,

		logger: logger.With("component", "room", "roomCode", opts.Code),
		rng:    rng,

		match: game.NewMatch(opts.Settings),
		inbox: make(chan any),
		done:  make(chan struct{}),

		onClosed:   opts.OnClosed,
		onFinished: opts.OnFinished,
	}

	room.seats[game.SeatCreator] = creator

	if opts.WithBot {
		room.bot = NewBot(room.match.BoardSize(), rng)
	}

	return room
}

func (that *Room) Code() string {
	return that.code
}

func (that *Room) CreatedAt() time.Time {
	return that.createdAt
}

func (that *Room) WithBot() bool {
	return that.withBot
}

func (that *Room) Status() RoomStatus {
	return RoomStatus(that.status.Load())
}

// Done is closed once the room has shut down.
func (that *Room) Done() <-chan struct{} {
	return that.done
}

// Run is the room loop. It returns when the room closes.
func (that *Room) Run() {
	that.welcome(game.SeatCreator)

	if that.withBot {
		that.start()
	}

	for that.Status() != RoomClosed {
		switch cmd := (<-that.inbox).(type) {
		case joinCommand:
			seat, err := that.handleJoin(cmd.handle)
			cmd.reply <- joinReply{seat: seat, err: err}
		case fireCommand:
			cmd.reply <- that.handleFire(cmd.handle, cmd.x, cmd.y)
		case disconnectCommand:
			that.handleDisconnect(cmd.handle)
			cmd.reply <- struct{}{}
		case seatedCommand:
			_, seated := that.seatOf(cmd.handle)
			cmd.reply <- seated
		case stopCommand:
			that.handleStop()
			cmd.reply <- struct{}{}
		}
	}
}

// Join takes the free seat and starts the match.
func (that *Room) Join(handle SeatHandle) (game.Seat, error) {
	reply := make(chan joinReply, 1)
	if err := that.send(joinCommand{handle: handle, reply: reply}); err != nil {
		return 0, err
	}

	result := <-reply

	return result.seat, result.err
}

// Fire shoots for the seat held by handle. Protocol errors leave the match untouched.
func (that *Room) Fire(handle SeatHandle, x, y int) error {
	reply := make(chan error, 1)
	if err := that.send(fireCommand{handle: handle, x: x, y: y, reply: reply}); err != nil {
		return err
	}

	return <-reply
}

// Disconnect releases the seat held by handle. Leaving a running match forfeits it.
func (that *Room) Disconnect(handle SeatHandle) {
	reply := make(chan struct{}, 1)
	if err := that.send(disconnectCommand{handle: handle, reply: reply}); err != nil {
		return
	}

	<-reply
}

// Holds reports whether handle still sits in this room. A closed room holds nobody.
func (that *Room) Holds(handle SeatHandle) bool {
	reply := make(chan bool, 1)
	if err := that.send(seatedCommand{handle: handle, reply: reply}); err != nil {
		return false
	}

	return <-reply
}

// Stop aborts a running match and closes the room.
func (that *Room) Stop() {
	reply := make(chan struct{}, 1)
	if err := that.send(stopCommand{reply: reply}); err != nil {
		return
	}

	<-reply
}

func (that *Room) send(cmd any) error {
	select {
	case that.inbox <- cmd:
		return nil
	case <-that.done:
		return apperror.ErrRoomClosed
	}
}

func (that *Room) handleJoin(handle SeatHandle) (game.Seat, error) {
	if that.withBot || that.Status() != RoomOpen || that.seats[game.SeatJoiner] != nil {
		return 0, apperror.ErrRoomFull
	}

	if _, seated := that.seatOf(handle); seated {
		return 0, apperror.ErrAlreadyInRoom
	}

	that.seats[game.SeatJoiner] = handle
	that.welcome(game.SeatJoiner)
	that.start()

	if that.Status() == RoomClosed {
		return 0, fmt.Errorf("%w: match aborted before the first shot", apperror.ErrInvariantViolation)
	}

	return game.SeatJoiner, nil
}

func (that *Room) handleFire(handle SeatHandle, x, y int) error {
	seat, seated := that.seatOf(handle)
	if !seated {
		return apperror.ErrNotInRoom
	}

	shot, err := that.match.Fire(seat, x, y)
	if err != nil {
		if errors.Is(err, apperror.ErrInvariantViolation) {
			that.abort(err)
		}

		return err
	}

	that.announceShot(shot)

	if shot.GameOver {
		that.finish()
		return nil
	}

	if that.withBot {
		that.botTurn()
	}

	return nil
}

func (that *Room) handleDisconnect(handle SeatHandle) {
	seat, seated := that.seatOf(handle)
	if !seated {
		return
	}

	log := that.logger.With("method", "handleDisconnect", "seat", int(seat))

	that.seats[seat] = nil

	if that.match.State() != game.StateInProgress {
		log.Info("seat left before the match started")
		that.close()

		return
	}

	if err := that.match.Forfeit(seat); err != nil {
		log.Error("failed to forfeit", "error", err)
		that.close()

		return
	}

	log.Info("seat forfeited")

	that.sendTo(seat.Opponent(), entity.NewOpponentLeftEvent(that.code))
	that.finish()
}

func (that *Room) handleStop() {
	if that.match.State() == game.StateInProgress {
		that.match.Abort()
		that.finish()

		return
	}

	that.close()
}

func (that *Room) start() {
	log := that.logger.With("method", "start")

	if err := that.match.Start(that.rng); err != nil {
		that.abort(fmt.Errorf("%w: %w", apperror.ErrInvariantViolation, err))
		return
	}

	that.startedAt = time.Now()
	that.status.Store(int32(RoomActive))

	for seat, handle := range that.seats {
		if handle == nil {
			continue
		}

		handle.Send(entity.NewGameStartedEvent(entity.GameStarted{
			RoomCode:   that.code,
			YourSeat:   seat,
			BoardSize:  that.match.BoardSize(),
			IsYourTurn: that.match.Turn() == game.Seat(seat),
			YourBoard:  that.match.Board(game.Seat(seat)).OwnerView(),
			Fleet:      fleetOf(that.match.Board(game.Seat(seat))),
		}))
	}

	log.Info("match started", "startingSeat", int(that.match.Turn()), "withBot", that.withBot)

	if that.withBot {
		that.botTurn()
	}
}

// botTurn fires for the bot while it holds the turn.
func (that *Room) botTurn() {
	for that.match.State() == game.StateInProgress && that.match.Turn() == game.SeatJoiner {
		p, err := that.bot.NextShot()
		if err != nil {
			that.abort(fmt.Errorf("%w: bot: %w", apperror.ErrInvariantViolation, err))
			return
		}

		shot, err := that.match.Fire(game.SeatJoiner, p.X, p.Y)
		if err != nil {
			that.abort(fmt.Errorf("%w: bot shot (%d,%d): %w", apperror.ErrInvariantViolation, p.X, p.Y, err))
			return
		}

		that.bot.Observe(p, shot.Result)
		that.announceShot(shot)

		if shot.GameOver {
			that.finish()
			return
		}
	}
}

func (that *Room) announceShot(shot game.Shot) {
	that.broadcast(entity.NewShotResultEvent(entity.ShotResult{
		RoomCode:     that.code,
		X:            shot.X,
		Y:            shot.Y,
		Result:       wireResult(shot.Result),
		ShooterSeat:  int(shot.Shooter),
		NextTurnSeat: int(shot.NextTurn),
		Sunk:         shot.Result == game.ResultSunk,
	}))
}

// finish announces the end of the match, archives it and closes the room.
func (that *Room) finish() {
	record := that.record()

	that.broadcast(entity.NewGameOverEvent(entity.GameOver{
		RoomCode:   that.code,
		WinnerSeat: record.WinnerSeat,
		Reason:     record.Reason,
	}))

	that.logger.Info("match finished", "reason", record.Reason, "shots", record.TotalShots(), "duration", record.Duration())

	that.archive(record)
	that.close()
}

// abort ends the match without a winner after an internal failure.
func (that *Room) abort(cause error) {
	that.logger.Error("aborting match", "error", cause)

	that.match.Abort()

	that.broadcast(entity.NewErrorEvent(abortedMessage))
	that.broadcast(entity.NewOpponentLeftEvent(that.code))

	that.archive(that.record())
	that.close()
}

func (that *Room) record() *entity.MatchRecord {
	record := entity.NewMatchRecord(that.code, that.withBot)
	record.Reason = that.match.Reason()
	record.Shots = [2]int{that.match.Shots(game.SeatCreator), that.match.Shots(game.SeatJoiner)}
	record.StartedAt = that.startedAt
	record.EndedAt = time.Now()

	if winner, ok := that.match.Winner(); ok {
		record.SetWinner(int(winner))
	}

	return record
}

func (that *Room) archive(record *entity.MatchRecord) {
	if that.onFinished != nil {
		that.onFinished(record)
	}
}

func (that *Room) close() {
	if that.Status() == RoomClosed {
		return
	}

	that.status.Store(int32(RoomClosed))

	if that.onClosed != nil {
		that.onClosed(that.code)
	}

	close(that.done)
}

func (that *Room) welcome(seat game.Seat) {
	message := "Joined the room, the match is starting"

	switch {
	case seat == game.SeatCreator && that.withBot:
		message = "Room created, you are playing against the bot"
	case seat == game.SeatCreator:
		message = "Room created, waiting for an opponent"
	}

	that.sendTo(seat, entity.NewRoomJoinedEvent(entity.RoomJoined{
		RoomCode: that.code,
		YourSeat: int(seat),
		Message:  message,
	}))
}

func (that *Room) seatOf(handle SeatHandle) (game.Seat, bool) {
	if handle == nil {
		return 0, false
	}

	for seat, held := range that.seats {
		if held == handle {
			return game.Seat(seat), true
		}
	}

	return 0, false
}

func (that *Room) sendTo(seat game.Seat, event entity.Event) {
	if handle := that.seats[seat]; handle != nil {
		handle.Send(event)
	}
}

func (that *Room) broadcast(event entity.Event) {
	for _, handle := range that.seats {
		if handle != nil {
			handle.Send(event)
		}
	}
}

func fleetOf(board *game.Board) []int {
	ships := board.Ships()

	fleet := make([]int, 0, len(ships))
	for _, ship := range ships {
		fleet = append(fleet, ship.Length())
	}

	return fleet
}

func wireResult(result game.ShotResult) string {
	switch result {
	case game.ResultHit, game.ResultSunk:
		return entity.ShotHit
	case game.ResultNear:
		return entity.ShotNear
	default:
		return entity.ShotMiss
	}
}
