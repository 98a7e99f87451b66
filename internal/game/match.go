package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
)

// Seat is a player slot: 0 for the room creator, 1 for the joiner or the bot.
type Seat int

const (
	SeatCreator Seat = 0
	SeatJoiner  Seat = 1
)

func (that Seat) Opponent() Seat {
	return 1 - that
}

func (that Seat) Valid() bool {
	return that == SeatCreator || that == SeatJoiner
}

type State string

const (
	StateAwaitingOpponent State = "awaiting_opponent"
	StateInProgress       State = "in_progress"
	StateOver             State = "over"
)

type EndReason string

const (
	ReasonFleetDestroyed EndReason = "fleet_destroyed"
	ReasonForfeit        EndReason = "forfeit"
	ReasonAborted        EndReason = "aborted"
)

// StartingSeat decides who fires first once both fleets are placed.
type StartingSeat string

const (
	StartCreator StartingSeat = "creator"
	StartRandom  StartingSeat = "random"
)

type Settings struct {
	BoardSize    int
	Fleet        []int
	Placement    PlacementOptions
	StartingSeat StartingSeat
}

func DefaultSettings() Settings {
	return Settings{
		BoardSize:    DefaultBoardSize,
		Fleet:        DefaultFleet,
		Placement:    PlacementOptions{MaxAttempts: DefaultPlacementAttempts},
		StartingSeat: StartRandom,
	}
}

// Shot is everything one legal Fire call produced.
type Shot struct {
	Shooter  Seat
	X        int
	Y        int
	NextTurn Seat
	Resolution

	GameOver bool
	Winner   Seat
}

// Match is the turn state machine binding two boards. It is not safe for concurrent use;
// the owning room serializes every call.
type Match struct {
	settings Settings

	boards [2]*Board
	state  State
	turn   Seat
	winner Seat
	reason EndReason
	shots  [2]int
}

func NewMatch(settings Settings) *Match {
	if settings.BoardSize <= 0 {
		settings.BoardSize = DefaultBoardSize
	}

	if len(settings.Fleet) == 0 {
		settings.Fleet = DefaultFleet
	}

	if settings.StartingSeat == "" {
		settings.StartingSeat = StartRandom
	}

	return &Match{
		settings: settings,
		state:    StateAwaitingOpponent,
	}
}

// Start places both fleets independently and picks the starting seat.
func (that *Match) Start(rng *rand.Rand) error {
	var boards [2]*Board

	for seat := range boards {
		board, err := NewFleetBoard(that.settings.BoardSize, that.settings.Fleet, rng, that.settings.Placement)
		if err != nil {
			return fmt.Errorf("failed to place fleet for seat %d: %w", seat, err)
		}

		boards[seat] = board
	}

	starting := SeatCreator
	if that.settings.StartingSeat == StartRandom && rng.IntN(2) == 1 {
		starting = SeatJoiner
	}

	return that.StartWithBoards(boards[SeatCreator], boards[SeatJoiner], starting)
}

// StartWithBoards starts the match on boards placed by the caller.
func (that *Match) StartWithBoards(creator, joiner *Board, starting Seat) error {
	if that.state != StateAwaitingOpponent {
		return fmt.Errorf("%w: match is %s", apperror.ErrMatchNotActive, that.state)
	}

	if creator == nil || joiner == nil || creator.Size() != joiner.Size() {
		return fmt.Errorf("%w: boards must be placed and of equal size", apperror.ErrInvariantViolation)
	}

	if !starting.Valid() {
		return fmt.Errorf("%w: starting seat %d", apperror.ErrInvariantViolation, starting)
	}

	that.boards = [2]*Board{creator, joiner}
	that.turn = starting
	that.state = StateInProgress

	return nil
}

// Fire shoots at the opponent of seat. Illegal calls change nothing.
func (that *Match) Fire(seat Seat, x, y int) (Shot, error) {
	if that.state != StateInProgress {
		return Shot{}, apperror.ErrMatchNotActive
	}

	if seat != that.turn {
		return Shot{}, apperror.ErrNotYourTurn
	}

	defender := that.boards[seat.Opponent()]

	if !defender.InBounds(x, y) {
		return Shot{}, fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, x, y)
	}

	if defender.IsTargeted(x, y) {
		return Shot{}, fmt.Errorf("%w: (%d,%d)", apperror.ErrAlreadyTargeted, x, y)
	}

	resolution, err := Resolve(defender, x, y)
	if err != nil {
		// validated above, so the resolver refusing the shot means the board is corrupt
		return Shot{}, fmt.Errorf("%w: resolve (%d,%d): %v", apperror.ErrInvariantViolation, x, y, err)
	}

	that.shots[seat]++
	that.turn = seat.Opponent()

	shot := Shot{
		Shooter:    seat,
		X:          x,
		Y:          y,
		NextTurn:   that.turn,
		Resolution: resolution,
	}

	if resolution.FleetDestroyed {
		that.finish(seat, ReasonFleetDestroyed)
		shot.GameOver = true
		shot.Winner = seat
	}

	return shot, nil
}

// Forfeit ends a running match with the other seat as the winner.
func (that *Match) Forfeit(loser Seat) error {
	if that.state != StateInProgress {
		return apperror.ErrMatchNotActive
	}

	that.finish(loser.Opponent(), ReasonForfeit)

	return nil
}

// Abort ends the match without a winner.
func (that *Match) Abort() {
	that.state = StateOver
	that.reason = ReasonAborted
}

func (that *Match) finish(winner Seat, reason EndReason) {
	that.state = StateOver
	that.winner = winner
	that.reason = reason
}

func (that *Match) State() State {
	return that.state
}

func (that *Match) Turn() Seat {
	return that.turn
}

// Winner is only meaningful once the match is over and was not aborted.
func (that *Match) Winner() (Seat, bool) {
	if that.state != StateOver || that.reason == ReasonAborted {
		return 0, false
	}

	return that.winner, true
}

func (that *Match) Reason() EndReason {
	return that.reason
}

func (that *Match) Board(seat Seat) *Board {
	return that.boards[seat]
}

func (that *Match) Shots(seat Seat) int {
	return that.shots[seat]
}

func (that *Match) BoardSize() int {
	return that.settings.BoardSize
}
