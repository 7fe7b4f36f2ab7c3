package actor

import (
	"encoding/json"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"

	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/metrics"
	"github.com/wordpit/wordpit/server/internal/model"
	"github.com/wordpit/wordpit/server/internal/protocol"
)

// Conn is the write side of one client stream. The transport hands an
// implementation to the session actor; tests substitute a recorder.
type Conn interface {
	// WriteFrame sends one text frame.
	WriteFrame(data []byte) error
	// Ping sends a ping control frame.
	Ping() error
	// Close tears the stream down. Safe to call more than once.
	Close() error
}

// SessionTimings are the liveness parameters of one session.
type SessionTimings struct {
	// HeartbeatInterval is how often the session pings its client and
	// checks staleness.
	HeartbeatInterval time.Duration
	// HeartbeatTimeLimit is the staleness threshold that opens the
	// reconnection window.
	HeartbeatTimeLimit time.Duration
	// ReconnectionTimeLimit is the window, measured from detected
	// staleness, during which a same-user login takes over the seat.
	ReconnectionTimeLimit time.Duration
	// RequestTimeout bounds the register/join/create round-trips.
	RequestTimeout time.Duration
}

type hbState int

const (
	hbAlive hbState = iota
	hbWaiting
	hbDead
)

// Internal timer messages, scheduled on self.
type heartbeatTick struct{}
type reconnectionTimeout struct{}

// SessionActor owns one client stream: it enforces liveness, decodes
// inbound frames into registry/room traffic, and writes outbound
// frames. Reconnection is never performed here; a reconnection is a
// new stream whose Login supersedes this actor via the SessionManager.
type SessionActor struct {
	conn           Conn
	sessionManager *actor.PID
	roomManager    *actor.PID
	timings        SessionTimings

	userID   string
	tid      uint64
	room     *actor.PID
	roomCode string

	hb       time.Time
	state    hbState
	timers   *scheduler.TimerScheduler
	stopTick scheduler.CancelFunc
	stopTerm scheduler.CancelFunc
}

// NewSessionActor creates the actor for one freshly upgraded stream.
func NewSessionActor(conn Conn, sessionManager, roomManager *actor.PID, timings SessionTimings) actor.Actor {
	return &SessionActor{
		conn:           conn,
		sessionManager: sessionManager,
		roomManager:    roomManager,
		timings:        timings,
	}
}

// Receive is the main message handling loop for the SessionActor.
func (a *SessionActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		metrics.SessionOpened()
		a.hb = time.Now()
		a.state = hbAlive
		a.timers = scheduler.NewTimerScheduler(ctx)
		a.stopTick = a.timers.SendRepeatedly(a.timings.HeartbeatInterval, a.timings.HeartbeatInterval, ctx.Self(), &heartbeatTick{})
		ctx.Logger().Debug("session started")

	case *actor.Stopping:
		a.handleStopping(ctx)

	case *messages.SerializedMessage:
		a.writeFrame(ctx, msg.Frame)

	case *messages.StopSession:
		// Superseded by a reconnecting stream. Tell the old stream its
		// transient id no longer maps to the registry record, then drop
		// identity before stopping: the replacement owns the record now
		// and the stop hook must not emit an Unregister.
		a.cancelTerminator()
		a.writeFrame(ctx, protocol.ForceDisconnectFrame(protocol.ReasonIDMismatch))
		a.userID = ""
		a.tid = 0
		a.room = nil
		a.roomCode = ""
		ctx.Stop(ctx.Self())

	case *messages.ClearRoom:
		hadRoom := a.room != nil
		a.room = nil
		a.roomCode = ""
		a.writeFrame(ctx, protocol.RemoveFromRoomFrame(msg.Reason))
		if hadRoom && a.tid != 0 {
			ctx.Send(a.sessionManager, &messages.UpdateSessionRoomInfo{TransientID: a.tid})
		}

	case *messages.RestoreState:
		a.room = msg.Room
		a.roomCode = msg.Code
		a.writeFrame(ctx, protocol.RestoreStateFrame(msg.Code, msg.Game))

	case *messages.ClientFrame:
		a.touch()
		a.dispatch(ctx, msg.Data)

	case *messages.ClientPong:
		a.touch()

	case *heartbeatTick:
		a.handleHeartbeatTick(ctx)

	case *reconnectionTimeout:
		if a.state == hbWaiting {
			a.state = hbDead
			ctx.Logger().Info("reconnection window expired", "user", a.userID, "tid", a.tid)
			ctx.Stop(ctx.Self())
		}
	}
}

func (a *SessionActor) handleStopping(ctx actor.Context) {
	if a.stopTick != nil {
		a.stopTick()
		a.stopTick = nil
	}
	a.cancelTerminator()
	if a.tid != 0 {
		ctx.Send(a.sessionManager, &messages.UnregisterSession{TransientID: a.tid, Reason: protocol.ReasonDisconnected})
	}
	if err := a.conn.Close(); err != nil {
		ctx.Logger().Debug("close on stop", "err", err)
	}
	metrics.SessionClosed()
	ctx.Logger().Debug("session stopped", "user", a.userID, "tid", a.tid)
}

// touch refreshes the heartbeat and, when a reconnection window is
// open, cancels it.
func (a *SessionActor) touch() {
	a.hb = time.Now()
	if a.state == hbWaiting {
		a.cancelTerminator()
		a.state = hbAlive
	}
}

func (a *SessionActor) cancelTerminator() {
	if a.stopTerm != nil {
		a.stopTerm()
		a.stopTerm = nil
	}
}

func (a *SessionActor) handleHeartbeatTick(ctx actor.Context) {
	if err := a.conn.Ping(); err != nil {
		ctx.Logger().Debug("ping failed", "err", err)
	}
	// Only the alive->waiting transition schedules the terminator, so
	// later ticks cannot stack a second one.
	if a.state == hbAlive && time.Since(a.hb) >= a.timings.HeartbeatTimeLimit {
		a.state = hbWaiting
		a.stopTerm = a.timers.SendOnce(a.timings.ReconnectionTimeLimit, ctx.Self(), &reconnectionTimeout{})
		ctx.Logger().Info("heartbeat stale, reconnection window open",
			"user", a.userID, "tid", a.tid, "window", a.timings.ReconnectionTimeLimit)
	}
}

func (a *SessionActor) dispatch(ctx actor.Context, raw []byte) {
	kind := protocol.Kind(raw)
	switch kind {
	case protocol.KindLogin:
		metrics.FrameReceived(kind)
		a.handleLogin(ctx, raw)
	case protocol.KindLogout:
		metrics.FrameReceived(kind)
		a.handleLogout(ctx)
	case protocol.KindJoinRoom:
		metrics.FrameReceived(kind)
		a.handleJoinRoom(ctx, raw)
	case protocol.KindCreateRoom:
		metrics.FrameReceived(kind)
		a.handleCreateRoom(ctx, raw)
	case protocol.KindLeaveRoom:
		metrics.FrameReceived(kind)
		a.handleLeaveRoom(ctx)
	case protocol.KindRequestStart:
		metrics.FrameReceived(kind)
		if a.room == nil {
			ctx.Logger().Debug("start request outside a room", "user", a.userID)
			return
		}
		ctx.Send(a.room, &messages.RequestStart{TransientID: a.tid})
	default:
		metrics.FrameReceived("game_input")
		if a.room == nil {
			ctx.Logger().Debug("dropping frame", "kind", kind, "user", a.userID)
			return
		}
		ctx.Send(a.room, &messages.GameInput{TransientID: a.tid, Kind: kind, Data: protocol.Payload(raw)})
	}
}

func (a *SessionActor) handleLogin(ctx actor.Context, raw []byte) {
	if a.userID != "" {
		ctx.Logger().Warn("duplicate login", "user", a.userID)
		return
	}
	var p protocol.LoginPayload
	if err := json.Unmarshal(protocol.Payload(raw), &p); err != nil || p.UserID == "" {
		ctx.Logger().Warn("malformed login", "err", err)
		return
	}

	fut := ctx.RequestFuture(a.sessionManager, &messages.RegisterSession{Session: ctx.Self(), UserID: p.UserID}, a.timings.RequestTimeout)
	res, err := fut.Result()
	if err != nil {
		ctx.Logger().Error("register failed", "user", p.UserID, "err", err)
		return
	}
	resp, ok := res.(*messages.RegisterSessionResponse)
	if !ok {
		ctx.Logger().Error("unexpected register response", "type", res)
		return
	}
	a.userID = p.UserID
	a.tid = resp.TransientID
	ctx.Logger().Info("logged in", "user", a.userID, "tid", a.tid)
}

func (a *SessionActor) handleLogout(ctx actor.Context) {
	if a.tid != 0 {
		ctx.Send(a.sessionManager, &messages.UnregisterSession{TransientID: a.tid, Reason: protocol.ReasonLogout})
	}
	a.userID = ""
	a.tid = 0
	a.room = nil
	a.roomCode = ""
	ctx.Stop(ctx.Self())
}

func (a *SessionActor) handleJoinRoom(ctx actor.Context, raw []byte) {
	if a.tid == 0 {
		ctx.Logger().Debug("join before login")
		return
	}
	var p protocol.JoinRoomPayload
	if data := protocol.Payload(raw); data != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			ctx.Logger().Warn("malformed join", "user", a.userID, "err", err)
			return
		}
	}

	code := ""
	if p.Code != nil {
		code = *p.Code
		if len(code) != model.RoomCodeLength {
			a.joinResult(ctx, protocol.ResultOfJoinRoom, false, string(protocol.JoinErrInvalidCode))
			return
		}
	}

	// Blocks this mailbox until the manager (or the room it forwarded
	// to) answers; further client frames queue behind it.
	fut := ctx.RequestFuture(a.roomManager, &messages.JoinRoom{TransientID: a.tid, Session: ctx.Self(), Code: code}, a.timings.RequestTimeout)
	res, err := fut.Result()
	if err != nil {
		ctx.Logger().Error("join round-trip failed", "user", a.userID, "code", code, "err", err)
		a.joinResult(ctx, protocol.ResultOfJoinRoom, false, string(protocol.JoinErrInternal))
		return
	}
	resp, ok := res.(*messages.AddPlayerResponse)
	if !ok {
		ctx.Logger().Error("unexpected join response", "type", res)
		a.joinResult(ctx, protocol.ResultOfJoinRoom, false, string(protocol.JoinErrInternal))
		return
	}
	if !resp.Success {
		a.joinResult(ctx, protocol.ResultOfJoinRoom, false, string(resp.Error))
		return
	}

	a.room = resp.Room
	a.roomCode = resp.Code
	ctx.Send(a.sessionManager, &messages.UpdateSessionRoomInfo{TransientID: a.tid, Room: resp.Room})
	a.joinResult(ctx, protocol.ResultOfJoinRoom, true, resp.Code)
}

func (a *SessionActor) handleCreateRoom(ctx actor.Context, raw []byte) {
	if a.tid == 0 {
		ctx.Logger().Debug("create before login")
		return
	}
	if a.room != nil {
		a.joinResult(ctx, protocol.ResultOfCreateRoom, false, string(protocol.JoinErrAlreadyInRoom))
		return
	}
	var p protocol.CreateRoomPayload
	if data := protocol.Payload(raw); data != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			ctx.Logger().Warn("malformed create", "user", a.userID, "err", err)
			return
		}
	}

	req := &messages.CreateRoom{
		LeaderID:      a.tid,
		LeaderSession: ctx.Self(),
		Config:        model.RoomConfig{Public: p.Public, MaxPlayers: p.MaxPlayers},
	}
	fut := ctx.RequestFuture(a.roomManager, req, a.timings.RequestTimeout)
	res, err := fut.Result()
	if err != nil {
		ctx.Logger().Error("create round-trip failed", "user", a.userID, "err", err)
		a.joinResult(ctx, protocol.ResultOfCreateRoom, false, string(protocol.JoinErrInternal))
		return
	}
	resp, ok := res.(*messages.CreateRoomResponse)
	if !ok {
		ctx.Logger().Error("unexpected create response", "type", res)
		a.joinResult(ctx, protocol.ResultOfCreateRoom, false, string(protocol.JoinErrInternal))
		return
	}
	if !resp.Success {
		a.joinResult(ctx, protocol.ResultOfCreateRoom, false, string(resp.Error))
		return
	}

	a.room = resp.Room
	a.roomCode = resp.Code
	ctx.Send(a.sessionManager, &messages.UpdateSessionRoomInfo{TransientID: a.tid, Room: resp.Room})
	a.joinResult(ctx, protocol.ResultOfCreateRoom, true, resp.Code)
}

func (a *SessionActor) handleLeaveRoom(ctx actor.Context) {
	if a.room == nil {
		ctx.Logger().Debug("leave outside a room", "user", a.userID)
		return
	}
	ctx.Send(a.room, &messages.RemovePlayer{TransientID: a.tid, Reason: protocol.ReasonLeaveRequested})
	a.room = nil
	a.roomCode = ""
	ctx.Send(a.sessionManager, &messages.UpdateSessionRoomInfo{TransientID: a.tid})
}

func (a *SessionActor) joinResult(ctx actor.Context, of protocol.ResultOf, success bool, info string) {
	if success {
		metrics.JoinResult("ok")
	} else {
		metrics.JoinResult(info)
	}
	a.writeFrame(ctx, protocol.ResultFrame(of, success, info))
}

func (a *SessionActor) writeFrame(ctx actor.Context, frame protocol.Envelope) {
	data, err := protocol.Encode(frame)
	if err != nil {
		ctx.Logger().Error("frame encode failed", "kind", frame.Kind, "err", err)
		return
	}
	if err := a.conn.WriteFrame(data); err != nil {
		ctx.Logger().Debug("frame write failed", "kind", frame.Kind, "err", err)
		return
	}
	metrics.FrameSent(frame.Kind)
}

// PropsForSession creates actor.Props for SessionActor.
func PropsForSession(conn Conn, sessionManager, roomManager *actor.PID, timings SessionTimings) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return NewSessionActor(conn, sessionManager, roomManager, timings)
	})
}
