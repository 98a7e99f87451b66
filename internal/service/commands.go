package service

import (
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

// SeatHandle delivers events to whoever holds a seat. Send must not block.
type SeatHandle interface {
	Send(event entity.Event)
}

// Commands accepted by a room's inbox. Replies are buffered so the room never waits on a caller.

type joinCommand struct {
	handle SeatHandle
	reply  chan joinReply
}

type joinReply struct {
	seat game.Seat
	err  error
}

type fireCommand struct {
	handle SeatHandle
	x, y   int
	reply  chan error
}

type disconnectCommand struct {
	handle SeatHandle
	reply  chan struct{}
}

type seatedCommand struct {
	handle SeatHandle
	reply  chan bool
}

type stopCommand struct {
	reply chan struct{}
}
