package entity

import (
	"time"

	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

// MatchRecord is the archived summary of a match that has ended.
type MatchRecord struct {
	RoomCode   string         `json:"room_code"`
	WithBot    bool           `json:"with_bot"`
	WinnerSeat *int           `json:"winner_seat,omitempty"`
	Reason     game.EndReason `json:"reason"`
	Shots      [2]int         `json:"shots"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
}

func NewMatchRecord(roomCode string, withBot bool) *MatchRecord {
	return &MatchRecord{
		RoomCode: roomCode,
		WithBot:  withBot,
	}
}

// SetWinner records the winning seat. Aborted matches have none.
func (that *MatchRecord) SetWinner(seat int) {
	that.WinnerSeat = &seat
}

func (that *MatchRecord) HasWinner() bool {
	return that.WinnerSeat != nil
}

func (that *MatchRecord) IsAborted() bool {
	return that.Reason == game.ReasonAborted
}

func (that *MatchRecord) Duration() time.Duration {
	if that.StartedAt.IsZero() || that.EndedAt.Before(that.StartedAt) {
		return 0
	}

	return that.EndedAt.Sub(that.StartedAt)
}

func (that *MatchRecord) TotalShots() int {
	return that.Shots[0] + that.Shots[1]
}
