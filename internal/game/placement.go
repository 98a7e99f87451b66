package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
)

var ErrUnknownFleetPreset = errors.New("unknown fleet preset")

const (
	DefaultPlacementAttempts = 1000

	// a greedy layout can paint itself into a corner, so the whole board is redrawn a few times
	placementRestarts = 10
)

var (
	// DefaultFleet is one carrier, one battleship, two cruisers and a destroyer.
	DefaultFleet = []int{5, 4, 3, 3, 2}

	// ClassicFleet is the fleet of the paper game, usually played with NoTouch.
	ClassicFleet = []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}
)

const (
	PresetDefault = "default"
	PresetClassic = "classic"
)

// FleetPreset returns a named fleet and whether it is played with NoTouch.
func FleetPreset(name string) ([]int, bool, error) {
	switch name {
	case PresetDefault:
		return DefaultFleet, false, nil
	case PresetClassic:
		return ClassicFleet, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownFleetPreset, name)
	}
}

type PlacementOptions struct {
	// NoTouch forbids ships from touching each other, diagonals included.
	NoTouch bool
	// MaxAttempts caps the random draws spent on a single ship.
	MaxAttempts int
}

// NewFleetBoard returns a fresh board of the given size with the whole fleet placed at random.
func NewFleetBoard(size int, fleet []int, rng *rand.Rand, opts PlacementOptions) (*Board, error) {
	var err error

	for range placementRestarts {
		board := NewBoard(size)
		if err = PlaceFleet(board, fleet, rng, opts); err == nil {
			return board, nil
		}
	}

	return nil, err
}

// PlaceFleet places ships of the given lengths in order, drawing a random origin and orientation
// until each one fits.
func PlaceFleet(board *Board, fleet []int, rng *rand.Rand, opts PlacementOptions) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPlacementAttempts
	}

	for i, length := range fleet {
		if length <= 0 || length > board.Size() {
			return fmt.Errorf("%w: ship %d has length %d on a %dx%d board",
				apperror.ErrPlacementInfeasible, i, length, board.Size(), board.Size())
		}

		if err := placeShip(board, length, rng, opts.NoTouch, attempts); err != nil {
			return fmt.Errorf("ship %d of length %d: %w", i, length, err)
		}
	}

	return nil
}

func placeShip(board *Board, length int, rng *rand.Rand, noTouch bool, attempts int) error {
	for range attempts {
		origin := Point{X: rng.IntN(board.Size()), Y: rng.IntN(board.Size())}

		orientation := Horizontal
		if rng.IntN(2) == 1 {
			orientation = Vertical
		}

		ship := NewShip(origin, length, orientation)

		if noTouch && board.Touches(ship.Cells) {
			continue
		}

		if _, err := board.Place(ship); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: gave up after %d attempts", apperror.ErrPlacementInfeasible, attempts)
}
