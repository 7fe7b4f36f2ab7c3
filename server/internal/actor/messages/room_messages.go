package messages

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/wordpit/wordpit/server/internal/model"
	"github.com/wordpit/wordpit/server/internal/protocol"
)

// --- Matching messages (to the RoomManagerActor) ---

// CreateRoom asks the manager to allocate a code and spawn a room with
// the requester pre-seated as leader at slot 0.
type CreateRoom struct {
	LeaderID      uint64
	LeaderSession *actor.PID
	Config        model.RoomConfig
}

// CreateRoomResponse answers CreateRoom.
type CreateRoomResponse struct {
	Success bool
	Code    string
	Room    *actor.PID
	Error   protocol.JoinRoomError
}

// JoinRoom routes a session into a room. An empty Code asks for
// matchmaking against the open pool (creating a fresh public room when
// the pool is empty); a non-empty Code must be a previously validated
// room code. The reply is an AddPlayerResponse, produced either by the
// target room or directly by the manager on short-circuited failures.
type JoinRoom struct {
	TransientID uint64
	Session     *actor.PID
	Code        string
}

// UnavailabilityReason says why a room left the matching queue.
type UnavailabilityReason string

const (
	UnavailableFull        UnavailabilityReason = "Full"
	UnavailableGameStarted UnavailabilityReason = "GameStarted"
)

// UpdateRoomMatchAvailability is sent by a room when it crosses a
// matchmaking threshold. Available clears the full flag and promotes
// public, non-playing rooms into the open pool; Unavailable records
// Reason and demotes the room to the reserved pool.
type UpdateRoomMatchAvailability struct {
	Code      string
	Available bool
	Reason    UnavailabilityReason
}

// OnRoomClosed is sent from a room's stop hook so the manager recycles
// the code into the free pool. Idempotent.
type OnRoomClosed struct {
	Code string
}

// --- Membership messages (to a RoomActor) ---

// AddPlayer seats a player. The room answers with AddPlayerResponse to
// the message sender, which the manager arranges to be the joining
// session's request future.
type AddPlayer struct {
	TransientID uint64
	Session     *actor.PID
}

// AddPlayerResponse answers AddPlayer and JoinRoom.
type AddPlayerResponse struct {
	Success bool
	Code    string
	Room    *actor.PID
	Error   protocol.JoinRoomError
}

// RemovePlayer vacates a player's slot. Unless the reason is
// LeaveRequested the room sends the evicted session a ClearRoom (on a
// requested leave the client already dropped the room locally and a
// frame would desync it).
type RemovePlayer struct {
	TransientID uint64
	Reason      protocol.RemoveReason
}

// ClientReconnection rewires a slot to a superseding session while
// keeping the slot index, then seeds the new session with
// RestoreState. Sent by the SessionManager before it stops the old
// session; that ordering is what keeps the old session's teardown from
// evicting the new player.
type ClientReconnection struct {
	Replacee        uint64
	ReplacerID      uint64
	ReplacerSession *actor.PID
}

// CloseRoom stops the room. Remaining members are notified from the
// stop hook.
type CloseRoom struct{}
