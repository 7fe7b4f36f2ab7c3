package messages

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/wordpit/wordpit/server/internal/protocol"
)

// --- Registry messages (to the SessionManagerActor) ---

// RegisterSession is sent by a SessionActor handling a Login frame. The
// manager allocates a transient id, performs the reconnection hand-off
// when the user already has a live session, and responds with
// RegisterSessionResponse.
type RegisterSession struct {
	Session *actor.PID
	UserID  string
}

// RegisterSessionResponse carries the transient id assigned to the
// registering session.
type RegisterSessionResponse struct {
	TransientID uint64
}

// UnregisterSession removes a session's registry record. Sent by a
// SessionActor on logout or from its stop hook after a heartbeat
// timeout. When the record still references a room, the manager
// forwards a RemovePlayer carrying the same reason.
type UnregisterSession struct {
	TransientID uint64
	Reason      protocol.RemoveReason
}

// UpdateSessionRoomInfo sets or clears (nil Room) the room
// back-reference on a session's registry record.
type UpdateSessionRoomInfo struct {
	TransientID uint64
	Room        *actor.PID
}

// GetUser looks up the user id behind a transient id. Also doubles as
// the readiness ping: any response proves the manager is serving its
// mailbox.
type GetUser struct {
	TransientID uint64
}

// GetUserResponse answers GetUser.
type GetUserResponse struct {
	UserID string
	Found  bool
}

// --- Control messages (to a SessionActor) ---

// SerializedMessage asks a session to encode and emit one frame on its
// client stream. Write failures are logged, never surfaced.
type SerializedMessage struct {
	Frame protocol.Envelope
}

// StopSession unconditionally terminates a session actor. Used by the
// manager to retire an instance superseded by a reconnection; the
// session clears its identity first so its stop hook does not emit an
// Unregister (the replacement owns the record now).
type StopSession struct{}

// ClearRoom tells a session its room membership ended. The session
// drops its local room reference, emits RemoveFromRoom(Reason) to the
// client and, when a reference was actually held, clears its registry
// back-reference.
type ClearRoom struct {
	Reason protocol.RemoveReason
}

// RestoreState is sent by a room to a freshly reconnected session: the
// room it still occupies plus the serialized game view for its seat,
// when a game is running.
type RestoreState struct {
	Room *actor.PID
	Code string
	Game []byte
}
