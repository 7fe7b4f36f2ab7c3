package protocol

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Envelope is the tagged-union shape of every frame exchanged with a
// client: a kind plus an optional kind-specific payload.
type Envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data,omitempty"`
}

// Encode serializes a frame for the wire.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Kind extracts the frame kind without unmarshalling the payload, so
// unknown kinds can be routed opaquely to an in-room game.
func Kind(raw []byte) string {
	return gjson.GetBytes(raw, "kind").String()
}

// Payload returns the raw bytes of the frame's data field, or nil when
// the field is absent or null.
func Payload(raw []byte) []byte {
	res := gjson.GetBytes(raw, "data")
	if !res.Exists() || res.Type == gjson.Null {
		return nil
	}
	return []byte(res.Raw)
}

// Constants for frame kinds sent by clients.
const (
	KindLogin        = "Login"
	KindJoinRoom     = "JoinRoom"
	KindLogout       = "Logout"
	KindCreateRoom   = "CreateRoom"
	KindLeaveRoom    = "LeaveRoom"
	KindRequestStart = "RequestStart"
)

// Constants for frame kinds sent to clients.
const (
	KindRemoveFromRoom  = "RemoveFromRoom"
	KindForceDisconnect = "ForceDisconnect"
	KindGameStarted     = "GameStarted"
	KindGameEnd         = "GameEnd"
	KindTurnUpdate      = "TurnUpdate"
	KindResult          = "Result"
	KindRestoreState    = "RestoreState"
)

// RemoveReason explains to a client why it left (or was removed from) a
// room, and doubles as the unregister reason between actors.
type RemoveReason string

const (
	ReasonRoomClosed     RemoveReason = "RoomClosed"
	ReasonLogout         RemoveReason = "Logout"
	ReasonDisconnected   RemoveReason = "Disconnected"
	ReasonLeaveRequested RemoveReason = "LeaveRequested"
	ReasonIDMismatch     RemoveReason = "IdMismatch"
)

// JoinRoomError enumerates the user-visible failures of a join or
// create request.
type JoinRoomError string

const (
	JoinErrRoomFull       JoinRoomError = "RoomFull"
	JoinErrGameInProgress JoinRoomError = "GameInProgress"
	JoinErrAlreadyInRoom  JoinRoomError = "AlreadyInRoom"
	JoinErrRoomNotFound   JoinRoomError = "RoomNotFound"
	JoinErrInvalidCode    JoinRoomError = "InvalidCode"
	JoinErrInternal       JoinRoomError = "InternalServerError"
)

// StartGameError enumerates the user-visible failures of a start
// request.
type StartGameError string

const (
	StartErrGameAlreadyRunning StartGameError = "GameAlreadyRunning"
	StartErrNotLeader          StartGameError = "NotLeader"
)

// ResultOf names the request a Result frame answers.
type ResultOf string

const (
	ResultOfJoinRoom     ResultOf = "JoinRoom"
	ResultOfCreateRoom   ResultOf = "CreateRoom"
	ResultOfRequestStart ResultOf = "RequestStart"
)

// LoginPayload is the payload of a "Login" frame.
type LoginPayload struct {
	UserID string `json:"user_id"`
}

// JoinRoomPayload is the payload of a "JoinRoom" frame. A nil Code asks
// for matchmaking; a present code must be the literal 4-character room
// code.
type JoinRoomPayload struct {
	Code *string `json:"code"`
}

// CreateRoomPayload is the payload of a "CreateRoom" frame. Zero values
// fall back to the server-side defaults.
type CreateRoomPayload struct {
	Public     bool `json:"public"`
	MaxPlayers int  `json:"max_players"`
}

// RemoveFromRoomPayload carries the eviction reason of a
// "RemoveFromRoom" or "ForceDisconnect" frame.
type RemoveFromRoomPayload struct {
	Reason RemoveReason `json:"reason"`
}

// TurnUpdatePayload announces whose turn it is by transient id.
type TurnUpdatePayload struct {
	TransientID uint64 `json:"transient_id"`
}

// GameEndPayload carries the final per-player scores, keyed by
// transient id.
type GameEndPayload struct {
	Scores map[uint64]int `json:"scores"`
}

// ResultPayload answers a client request. Info carries the room code on
// success and the error tag on failure.
type ResultPayload struct {
	ResultOf ResultOf `json:"result_of"`
	Success  bool     `json:"success"`
	Info     string   `json:"info"`
}

// RestoreStatePayload seeds a reconnecting client's UI: the room code
// it is still a member of, plus the serialized game view when a game is
// running.
type RestoreStatePayload struct {
	Code string          `json:"code"`
	Game json.RawMessage `json:"game,omitempty"`
}

// RemoveFromRoomFrame builds the frame telling a client it left a room.
func RemoveFromRoomFrame(reason RemoveReason) Envelope {
	return Envelope{Kind: KindRemoveFromRoom, Data: RemoveFromRoomPayload{Reason: reason}}
}

// ForceDisconnectFrame builds the frame announcing a server-side
// disconnect.
func ForceDisconnectFrame(reason RemoveReason) Envelope {
	return Envelope{Kind: KindForceDisconnect, Data: RemoveFromRoomPayload{Reason: reason}}
}

// GameStartedFrame builds the bare game-start broadcast.
func GameStartedFrame() Envelope {
	return Envelope{Kind: KindGameStarted}
}

// GameEndFrame builds the game-end broadcast with the match result.
func GameEndFrame(scores map[uint64]int) Envelope {
	if len(scores) == 0 {
		return Envelope{Kind: KindGameEnd}
	}
	return Envelope{Kind: KindGameEnd, Data: GameEndPayload{Scores: scores}}
}

// TurnUpdateFrame builds the turn announcement for the given player.
func TurnUpdateFrame(transientID uint64) Envelope {
	return Envelope{Kind: KindTurnUpdate, Data: TurnUpdatePayload{TransientID: transientID}}
}

// ResultFrame builds the answer to a client request.
func ResultFrame(of ResultOf, success bool, info string) Envelope {
	return Envelope{Kind: KindResult, Data: ResultPayload{ResultOf: of, Success: success, Info: info}}
}

// RestoreStateFrame builds the reconnection restore frame. game may be
// nil when no game is running.
func RestoreStateFrame(code string, game []byte) Envelope {
	return Envelope{Kind: KindRestoreState, Data: RestoreStatePayload{Code: code, Game: game}}
}
