package game

// Ship is a straight run of contiguous cells. Its ID is its index on the owning board.
type Ship struct {
	ID    int     `json:"id"`
	Cells []Point `json:"cells"`

	hits int
}

// NewShip lays out a ship of the given length from origin towards +X or +Y.
func NewShip(origin Point, length int, orientation Orientation) Ship {
	cells := make([]Point, length)
	for i := range cells {
		if orientation == Horizontal {
			cells[i] = Point{X: origin.X + i, Y: origin.Y}
		} else {
			cells[i] = Point{X: origin.X, Y: origin.Y + i}
		}
	}

	return Ship{Cells: cells}
}

func (that *Ship) Length() int {
	return len(that.Cells)
}

func (that *Ship) IsSunk() bool {
	return len(that.Cells) > 0 && that.hits == len(that.Cells)
}
