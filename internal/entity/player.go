package entity

// Player is one connected client and the room seat it holds, if any.
type Player struct {
	ID       string `json:"id"`
	RoomCode string `json:"room_code,omitempty"`
	Seat     int    `json:"seat"`
}

func (that *Player) InRoom() bool {
	return that.RoomCode != ""
}

func (that *Player) Sit(roomCode string, seat int) {
	that.RoomCode = roomCode
	that.Seat = seat
}

func (that *Player) Leave() {
	that.RoomCode = ""
	that.Seat = 0
}
