package model

const (
	// RoomCodeLength is the exact length of every room code. Clients must
	// send codes as the literal 4-character string.
	RoomCodeLength = 4

	// RoomCodeAlphabet is the character set room codes are sampled from.
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultMaxPlayers bounds room membership unless a room is created
	// with an explicit capacity.
	DefaultMaxPlayers = 6

	// TransientIDWrap is the exclusive upper bound for transient ids.
	// The allocator wraps back to 1 past it so ids stay short enough to
	// read in logs and client payloads.
	TransientIDWrap = 10_000_000_000
)

// RoomConfig carries the per-room settings fixed at creation time.
type RoomConfig struct {
	// Public rooms are eligible for code-less matchmaking and may be
	// started by any member. Private rooms are joinable by code only and
	// only the leader may start them.
	Public     bool `json:"public"`
	MaxPlayers int  `json:"max_players"`
}

// DefaultRoomConfig is the configuration used for rooms created on
// behalf of a code-less join.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		Public:     true,
		MaxPlayers: DefaultMaxPlayers,
	}
}

// Normalize clamps out-of-range values back to defaults so a malformed
// client request cannot create a zero-capacity room.
func (c RoomConfig) Normalize() RoomConfig {
	if c.MaxPlayers < 2 {
		c.MaxPlayers = DefaultMaxPlayers
	}
	return c
}
