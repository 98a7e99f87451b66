package game

import (
	"fmt"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
)

type ShotResult int

const (
	ResultMiss ShotResult = iota
	ResultNear
	ResultHit
	ResultSunk
)

func (that ShotResult) String() string {
	switch that {
	case ResultNear:
		return "near"
	case ResultHit:
		return "hit"
	case ResultSunk:
		return "sunk"
	default:
		return "miss"
	}
}

// IsHit is true for hits that did and did not sink a ship.
func (that ShotResult) IsHit() bool {
	return that == ResultHit || that == ResultSunk
}

// Resolution is the outcome of one shot against a defender's board.
type Resolution struct {
	Result         ShotResult
	SunkShipID     int // set only when Result is ResultSunk
	FleetDestroyed bool
}

// Resolve fires at (x, y) on the defender's board. MarkShot failures are returned unchanged.
func Resolve(defender *Board, x, y int) (Resolution, error) {
	before, err := defender.MarkShot(x, y)
	if err != nil {
		return Resolution{}, err
	}

	resolution := Resolution{Result: ResultMiss, SunkShipID: noShip}

	switch before {
	case CellShip:
		resolution.Result = ResultHit

		ship, ok := defender.ShipAt(x, y)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: hit cell (%d,%d) has no ship", apperror.ErrInvariantViolation, x, y)
		}

		if ship.IsSunk() {
			resolution.Result = ResultSunk
			resolution.SunkShipID = ship.ID
			resolution.FleetDestroyed = defender.IsFleetDestroyed()
		}
	case CellEmpty:
		// near only changes what the shooter is told; the cell is a miss either way
		if defender.NearLiveShip(x, y) {
			resolution.Result = ResultNear
		}
	}

	return resolution, nil
}
