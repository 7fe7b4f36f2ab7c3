// Package game defines the controller contract a room drives and the
// shipped game modes. The room owns all membership; a controller only
// sees seats, frames, and the table surface below.
package game

import (
	"fmt"

	"github.com/wordpit/wordpit/server/internal/protocol"
)

// Mode names a game variant. The set is closed at build time and
// dispatched by New.
type Mode string

// ModeStandard is the word-guess turn game.
const ModeStandard Mode = "Standard"

// Config carries mode settings taken from server configuration.
type Config struct {
	// TurnSeconds is the per-turn countdown; the turn passes when it
	// reaches zero.
	TurnSeconds int
	// TargetScore ends the match when a seat reaches it.
	TargetScore int
}

// SeatInfo describes one occupied seat in slot-index order. Seat is the
// public seat number (turn order); TransientID identifies the occupant
// on the wire and changes across reconnections.
type SeatInfo struct {
	Seat        int
	TransientID uint64
}

// Table is the surface a controller drives. It is implemented by the
// room actor and is only valid inside the controller call that received
// it.
type Table interface {
	// Code returns the room code.
	Code() string
	// Seats lists the currently occupied seats in seat order.
	Seats() []SeatInfo
	// Broadcast fans a frame out to every occupied seat.
	Broadcast(frame protocol.Envelope)
	// SendToSeat emits a frame to one seat; it fails when the seat is
	// vacant.
	SendToSeat(seat int, frame protocol.Envelope) error
	// EndGame asks the room to finish the match: the room broadcasts
	// GameEnd and closes.
	EndGame()
}

// Controller is the capability set the room forwards game events
// through. Implementations run inside the room actor's mailbox, so no
// method needs locking.
type Controller interface {
	// Begin starts the match with the table's current roster.
	Begin(t Table)
	// End tells the controller the match is over (room closure or
	// EndGame). Must be idempotent.
	End(t Table)
	// Pause and Resume suspend and resume turn progression.
	Pause(t Table)
	Resume(t Table)
	// Input delivers an opaque client frame from the given seat.
	Input(t Table, seat int, kind string, data []byte)
	// Tick advances game time by one second.
	Tick(t Table)
	// State serializes the game view for one seat, used to seed a
	// reconnecting client.
	State(t Table, seat int) ([]byte, error)
}

// New constructs the controller for a mode.
func New(mode Mode, cfg Config) (Controller, error) {
	switch mode {
	case ModeStandard:
		return NewStandard(cfg), nil
	default:
		return nil, fmt.Errorf("unknown game mode %q", mode)
	}
}
