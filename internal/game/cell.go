package game

// Cell is the state of one board square. The numeric values are the wire values of a board grid.
type Cell int

const (
	CellEmpty Cell = 0
	CellShip  Cell = 1
	CellMiss  Cell = 2
	CellHit   Cell = 3
)

// Point addresses a cell: X is the column, Y is the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// neighbours8 are the offsets of the orthogonal and diagonal neighbours.
var neighbours8 = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Neighbours4 are the offsets of the orthogonal neighbours.
var Neighbours4 = [4]Point{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
}

func (that Point) Add(other Point) Point {
	return Point{X: that.X + other.X, Y: that.Y + other.Y}
}
