package messages

// --- Game messages (to a RoomActor) ---

// RequestStart asks the room to begin its game. Public rooms start for
// any member; private rooms only for the leader. Failures are answered
// with a Result frame to the requesting player's session.
type RequestStart struct {
	TransientID uint64
}

// GameInput forwards an opaque client frame to the in-room game. Kind
// is the frame kind, Data the raw payload bytes; the room resolves the
// sender's seat before handing both to the controller.
type GameInput struct {
	TransientID uint64
	Kind        string
	Data        []byte
}
