package service

import (
	"errors"
	"math/rand/v2"

	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// Bot picks shots with a hunt and target strategy. In hunt mode it fires at random untargeted
// cells of one checkerboard colour, since every ship of length two or more covers one. A hit
// switches it to target mode: the orthogonal neighbours of the hit are queued and fired first.
// Sinking a ship clears the queue and returns the bot to hunting.
type Bot struct {
	size     int
	rng      *rand.Rand
	targeted [][]bool
	queue    []game.Point
}

func NewBot(size int, rng *rand.Rand) *Bot {
	targeted := make([][]bool, size)
	for y := range targeted {
		targeted[y] = make([]bool, size)
	}

	return &Bot{
		size:     size,
		rng:      rng,
		targeted: targeted,
	}
}

// NextShot returns an untargeted cell and marks it as targeted.
func (that *Bot) NextShot() (game.Point, error) {
	for len(that.queue) > 0 {
		p := that.queue[0]
		that.queue = that.queue[1:]

		if !that.targeted[p.Y][p.X] {
			that.targeted[p.Y][p.X] = true
			return p, nil
		}
	}

	p, err := that.hunt()
	if err != nil {
		return game.Point{}, err
	}

	that.targeted[p.Y][p.X] = true

	return p, nil
}

// Observe feeds the result of the last shot back into the strategy.
func (that *Bot) Observe(p game.Point, result game.ShotResult) {
	switch result {
	case game.ResultSunk:
		that.queue = that.queue[:0]
	case game.ResultHit:
		for _, d := range game.Neighbours4 {
			n := p.Add(d)
			if that.inBounds(n) && !that.targeted[n.Y][n.X] {
				that.queue = append(that.queue, n)
			}
		}
	}
}

func (that *Bot) hunt() (game.Point, error) {
	var parity, rest []game.Point

	for y := 0; y < that.size; y++ {
		for x := 0; x < that.size; x++ {
			if that.targeted[y][x] {
				continue
			}

			if (x+y)%2 == 0 {
				parity = append(parity, game.Point{X: x, Y: y})
			} else {
				rest = append(rest, game.Point{X: x, Y: y})
			}
		}
	}

	// single-cell ships can hide on the other colour
	candidates := parity
	if len(candidates) == 0 {
		candidates = rest
	}

	if len(candidates) == 0 {
		return game.Point{}, ErrNoAvailableMoves
	}

	return candidates[that.rng.IntN(len(candidates))], nil
}

func (that *Bot) inBounds(p game.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < that.size && p.Y < that.size
}
