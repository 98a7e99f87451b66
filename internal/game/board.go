package game

import (
	"fmt"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
)

const (
	DefaultBoardSize = 10

	noShip = -1
)

// Board is one seat's grid: its own fleet plus the shots the opponent has taken at it.
type Board struct {
	size  int
	cells [][]Cell
	owner [][]int // ship index per cell, noShip when empty
	ships []*Ship
}

func NewBoard(size int) *Board {
	cells := make([][]Cell, size)
	owner := make([][]int, size)
	for y := 0; y < size; y++ {
		cells[y] = make([]Cell, size)
		owner[y] = make([]int, size)
		for x := 0; x < size; x++ {
			owner[y][x] = noShip
		}
	}

	return &Board{
		size:  size,
		cells: cells,
		owner: owner,
	}
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < that.size && y < that.size
}

func (that *Board) Cell(x, y int) Cell {
	return that.cells[y][x]
}

// IsTargeted reports whether a shot was already resolved at (x, y).
func (that *Board) IsTargeted(x, y int) bool {
	cell := that.Cell(x, y)
	return cell == CellMiss || cell == CellHit
}

// Place records the ship on the board and assigns its ID.
func (that *Board) Place(ship Ship) (int, error) {
	if len(ship.Cells) == 0 {
		return noShip, fmt.Errorf("%w: empty ship", apperror.ErrPlacementConflict)
	}

	for _, p := range ship.Cells {
		if !that.InBounds(p.X, p.Y) {
			return noShip, fmt.Errorf("%w: cell (%d,%d) is out of bounds", apperror.ErrPlacementConflict, p.X, p.Y)
		}

		if that.cells[p.Y][p.X] != CellEmpty {
			return noShip, fmt.Errorf("%w: cell (%d,%d) is occupied", apperror.ErrPlacementConflict, p.X, p.Y)
		}
	}

	id := len(that.ships)
	placed := &Ship{ID: id, Cells: append([]Point(nil), ship.Cells...)}

	for _, p := range placed.Cells {
		that.cells[p.Y][p.X] = CellShip
		that.owner[p.Y][p.X] = id
	}

	that.ships = append(that.ships, placed)

	return id, nil
}

// Touches reports whether any of the cells lies next to (diagonals included) or on an existing ship.
func (that *Board) Touches(cells []Point) bool {
	for _, p := range cells {
		if that.InBounds(p.X, p.Y) && that.owner[p.Y][p.X] != noShip {
			return true
		}

		for _, d := range neighbours8 {
			n := p.Add(d)
			if that.InBounds(n.X, n.Y) && that.owner[n.Y][n.X] != noShip {
				return true
			}
		}
	}

	return false
}

// MarkShot resolves a shot on the cell and returns what the cell held before it.
func (that *Board) MarkShot(x, y int) (Cell, error) {
	if !that.InBounds(x, y) {
		return CellEmpty, fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, x, y)
	}

	before := that.cells[y][x]

	switch before {
	case CellShip:
		that.cells[y][x] = CellHit
		that.ships[that.owner[y][x]].hits++
	case CellEmpty:
		that.cells[y][x] = CellMiss
	default:
		return before, fmt.Errorf("%w: (%d,%d)", apperror.ErrAlreadyTargeted, x, y)
	}

	return before, nil
}

// ShipAt returns the ship occupying (x, y).
func (that *Board) ShipAt(x, y int) (Ship, bool) {
	if !that.InBounds(x, y) {
		return Ship{}, false
	}

	id := that.owner[y][x]
	if id == noShip {
		return Ship{}, false
	}

	return *that.ships[id], true
}

func (that *Board) Ships() []Ship {
	ships := make([]Ship, 0, len(that.ships))
	for _, ship := range that.ships {
		ships = append(ships, *ship)
	}

	return ships
}

func (that *Board) IsFleetDestroyed() bool {
	for _, ship := range that.ships {
		if !ship.IsSunk() {
			return false
		}
	}

	return true
}

// NearLiveShip reports whether (x, y) touches, diagonals included, a cell of a ship that is not sunk.
func (that *Board) NearLiveShip(x, y int) bool {
	for _, d := range neighbours8 {
		nx, ny := x+d.X, y+d.Y
		if !that.InBounds(nx, ny) {
			continue
		}

		id := that.owner[ny][nx]
		if id != noShip && !that.ships[id].IsSunk() {
			return true
		}
	}

	return false
}

// OwnerView is the full grid as its owner sees it.
func (that *Board) OwnerView() [][]int {
	return that.view(false)
}

// OpponentView hides untouched ship cells.
func (that *Board) OpponentView() [][]int {
	return that.view(true)
}

func (that *Board) view(hideShips bool) [][]int {
	grid := make([][]int, that.size)
	for y := range that.cells {
		grid[y] = make([]int, that.size)
		for x, cell := range that.cells[y] {
			if hideShips && cell == CellShip {
				cell = CellEmpty
			}
			grid[y][x] = int(cell)
		}
	}

	return grid
}
