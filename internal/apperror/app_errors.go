package apperror

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomClosed      = errors.New("room is closed")
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrAlreadyInRoom   = errors.New("already in a room")
	ErrNotInRoom       = errors.New("not in a room")

	ErrMatchNotActive  = errors.New("match is not active")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrOutOfBounds     = errors.New("coordinates are out of bounds")
	ErrAlreadyTargeted = errors.New("cell was already targeted")

	ErrPlacementConflict   = errors.New("ship placement conflict")
	ErrPlacementInfeasible = errors.New("fleet placement infeasible")
	ErrInvariantViolation  = errors.New("match invariant violated")

	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrTooManyRequests    = errors.New("too many requests")
)

// IsProtocol reports whether err is a client mistake that leaves the match untouched.
func IsProtocol(err error) bool {
	for _, target := range []error{
		ErrRoomNotFound, ErrRoomFull, ErrRoomClosed, ErrInvalidRoomCode, ErrAlreadyInRoom, ErrNotInRoom,
		ErrMatchNotActive, ErrNotYourTurn, ErrOutOfBounds, ErrAlreadyTargeted,
		ErrInvalidCoordinates, ErrTooManyRequests,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
