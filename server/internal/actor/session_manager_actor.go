package actor

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/metrics"
	"github.com/wordpit/wordpit/server/internal/model"
)

// sessionRecord is the registry entry for one logged-in user.
type sessionRecord struct {
	session *actor.PID
	tid     uint64
	room    *actor.PID
}

// SessionManagerActor owns the UserId registry: it allocates transient
// ids, maps users to their live session actors, and performs the
// reconnection hand-off when a user logs in over a fresh stream while
// an older session still holds their record.
type SessionManagerActor struct {
	records map[string]*sessionRecord // UserId -> record
	users   map[uint64]string         // TransientId -> UserId
	lastID  uint64
}

// NewSessionManagerActor creates an empty registry actor.
func NewSessionManagerActor() actor.Actor {
	return &SessionManagerActor{
		records: make(map[string]*sessionRecord),
		users:   make(map[uint64]string),
	}
}

// Receive is the message handling loop for the SessionManagerActor.
func (a *SessionManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		ctx.Logger().Info("session manager started")

	case *actor.Stopping:
		ctx.Logger().Info("session manager stopping", "sessions", len(a.records))

	case *messages.RegisterSession:
		a.handleRegister(ctx, msg)

	case *messages.UnregisterSession:
		a.handleUnregister(ctx, msg)

	case *messages.UpdateSessionRoomInfo:
		a.handleUpdateRoomInfo(ctx, msg)

	case *messages.GetUser:
		userID, found := a.users[msg.TransientID]
		ctx.Respond(&messages.GetUserResponse{UserID: userID, Found: found})
	}
}

func (a *SessionManagerActor) handleRegister(ctx actor.Context, msg *messages.RegisterSession) {
	tid := a.allocateID()

	rec, exists := a.records[msg.UserID]
	if !exists {
		a.records[msg.UserID] = &sessionRecord{session: msg.Session, tid: tid}
		a.users[tid] = msg.UserID
		ctx.Logger().Info("session registered", "user", msg.UserID, "tid", tid)
		ctx.Respond(&messages.RegisterSessionResponse{TransientID: tid})
		return
	}

	// Reconnection hand-off. The room must learn the replacement PID
	// before the old session is stopped: its stop hook would otherwise
	// race an Unregister(Disconnected) that evicts the new player.
	if rec.room != nil {
		ctx.Send(rec.room, &messages.ClientReconnection{
			Replacee:        rec.tid,
			ReplacerID:      tid,
			ReplacerSession: msg.Session,
		})
	}
	ctx.Send(rec.session, &messages.StopSession{})

	delete(a.users, rec.tid)
	oldTID := rec.tid
	rec.session = msg.Session
	rec.tid = tid
	a.users[tid] = msg.UserID

	metrics.Reconnections.Inc()
	ctx.Logger().Info("session superseded", "user", msg.UserID, "old_tid", oldTID, "tid", tid, "in_room", rec.room != nil)
	ctx.Respond(&messages.RegisterSessionResponse{TransientID: tid})
}

func (a *SessionManagerActor) handleUnregister(ctx actor.Context, msg *messages.UnregisterSession) {
	userID, ok := a.users[msg.TransientID]
	if !ok {
		// Stale echo from a session that was already superseded.
		ctx.Logger().Debug("unregister for unknown tid", "tid", msg.TransientID, "reason", msg.Reason)
		return
	}
	rec := a.records[userID]
	delete(a.users, msg.TransientID)
	delete(a.records, userID)

	if rec.room != nil {
		ctx.Send(rec.room, &messages.RemovePlayer{TransientID: msg.TransientID, Reason: msg.Reason})
	}
	ctx.Logger().Info("session unregistered", "user", userID, "tid", msg.TransientID, "reason", msg.Reason)
}

func (a *SessionManagerActor) handleUpdateRoomInfo(ctx actor.Context, msg *messages.UpdateSessionRoomInfo) {
	userID, ok := a.users[msg.TransientID]
	if !ok {
		ctx.Logger().Debug("room update for unknown tid", "tid", msg.TransientID)
		return
	}
	a.records[userID].room = msg.Room
}

// allocateID returns the next transient id. The counter wraps at
// TransientIDWrap so ids stay readable; ids still held by a live
// session are skipped.
func (a *SessionManagerActor) allocateID() uint64 {
	for {
		a.lastID++
		if a.lastID >= model.TransientIDWrap {
			a.lastID = 1
		}
		if _, live := a.users[a.lastID]; !live {
			return a.lastID
		}
	}
}

// PropsForSessionManager creates actor.Props for SessionManagerActor.
func PropsForSessionManager() *actor.Props {
	return actor.PropsFromProducer(NewSessionManagerActor)
}
