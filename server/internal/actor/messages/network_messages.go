package messages

// --- Transport messages (read pump to a SessionActor) ---

// ClientFrame is one raw inbound frame. Receipt refreshes the session's
// heartbeat before the frame is decoded and dispatched.
type ClientFrame struct {
	Data []byte
}

// ClientPong reports a pong control frame. Refreshes the heartbeat and
// cancels an open reconnection window.
type ClientPong struct{}
