package actor

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/model"
	"github.com/wordpit/wordpit/server/internal/protocol"
)

func register(t *testing.T, system *actor.ActorSystem, mgr, session *actor.PID, user string) uint64 {
	t.Helper()
	fut := system.Root.RequestFuture(mgr, &messages.RegisterSession{Session: session, UserID: user}, probeWait)
	res, err := fut.Result()
	require.NoError(t, err)
	resp, ok := res.(*messages.RegisterSessionResponse)
	require.True(t, ok, "unexpected response %#v", res)
	return resp.TransientID
}

func getUser(t *testing.T, system *actor.ActorSystem, mgr *actor.PID, tid uint64) *messages.GetUserResponse {
	t.Helper()
	fut := system.Root.RequestFuture(mgr, &messages.GetUser{TransientID: tid}, probeWait)
	res, err := fut.Result()
	require.NoError(t, err)
	return res.(*messages.GetUserResponse)
}

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	var last uint64
	for i, user := range []string{"alice", "bob", "carol"} {
		tid := register(t, system, mgr, newProbe().spawn(t, system), user)
		if i > 0 {
			assert.Greater(t, tid, last)
		}
		last = tid

		resp := getUser(t, system, mgr, tid)
		assert.True(t, resp.Found)
		assert.Equal(t, user, resp.UserID)
	}
}

func TestAllocateIDWrapsAndSkipsLiveIDs(t *testing.T) {
	mgr := NewSessionManagerActor().(*SessionManagerActor)
	mgr.lastID = model.TransientIDWrap - 2
	mgr.users[model.TransientIDWrap-1] = "alice" // still live at the wrap point
	mgr.users[1] = "bob"                         // occupies the first post-wrap id

	// One allocation skips the live pre-wrap id, wraps past the bound,
	// skips the live id 1, and lands on the first free id.
	assert.Equal(t, uint64(2), mgr.allocateID())
	assert.Equal(t, uint64(3), mgr.allocateID())
}

func TestReconnectionHandoffOrder(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	oldSession := newProbe()
	oldPID := oldSession.spawn(t, system)
	room := newProbe()
	roomPID := room.spawn(t, system)

	oldTID := register(t, system, mgr, oldPID, "alice")
	system.Root.Send(mgr, &messages.UpdateSessionRoomInfo{TransientID: oldTID, Room: roomPID})

	newSession := newProbe()
	newPID := newSession.spawn(t, system)
	newTID := register(t, system, mgr, newPID, "alice")
	assert.Greater(t, newTID, oldTID)

	rec := expectMsg[*messages.ClientReconnection](t, room)
	assert.Equal(t, oldTID, rec.Replacee)
	assert.Equal(t, newTID, rec.ReplacerID)
	assert.True(t, newPID.Equal(rec.ReplacerSession))

	expectMsg[*messages.StopSession](t, oldSession)

	// The record survives the hand-off under the new id, room intact.
	resp := getUser(t, system, mgr, newTID)
	assert.True(t, resp.Found)
	assert.Equal(t, "alice", resp.UserID)
	resp = getUser(t, system, mgr, oldTID)
	assert.False(t, resp.Found)
}

func TestReconnectionWithoutRoom(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	oldSession := newProbe()
	register(t, system, mgr, oldSession.spawn(t, system), "alice")

	newSession := newProbe()
	register(t, system, mgr, newSession.spawn(t, system), "alice")

	expectMsg[*messages.StopSession](t, oldSession)
	expectNoMsg(t, newSession, 100*time.Millisecond)
}

func TestUnregisterForwardsRemovePlayer(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	room := newProbe()
	roomPID := room.spawn(t, system)
	tid := register(t, system, mgr, newProbe().spawn(t, system), "alice")
	system.Root.Send(mgr, &messages.UpdateSessionRoomInfo{TransientID: tid, Room: roomPID})

	system.Root.Send(mgr, &messages.UnregisterSession{TransientID: tid, Reason: protocol.ReasonDisconnected})

	rm := expectMsg[*messages.RemovePlayer](t, room)
	assert.Equal(t, tid, rm.TransientID)
	assert.Equal(t, protocol.ReasonDisconnected, rm.Reason)

	assert.False(t, getUser(t, system, mgr, tid).Found)
}

func TestStaleUnregisterAfterSupersedure(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	room := newProbe()
	roomPID := room.spawn(t, system)
	oldSession := newProbe()
	oldTID := register(t, system, mgr, oldSession.spawn(t, system), "alice")
	system.Root.Send(mgr, &messages.UpdateSessionRoomInfo{TransientID: oldTID, Room: roomPID})

	newTID := register(t, system, mgr, newProbe().spawn(t, system), "alice")
	expectMsg[*messages.ClientReconnection](t, room)
	expectMsg[*messages.StopSession](t, oldSession)

	// A late Unregister from the superseded session must not evict the
	// replacement or reach the room.
	system.Root.Send(mgr, &messages.UnregisterSession{TransientID: oldTID, Reason: protocol.ReasonDisconnected})

	expectNoMsg(t, room, 100*time.Millisecond)
	assert.True(t, getUser(t, system, mgr, newTID).Found)
}

func TestClearedRoomInfoStopsRemoveForwarding(t *testing.T) {
	system := newTestSystem(t)
	mgr := system.Root.Spawn(PropsForSessionManager())

	room := newProbe()
	roomPID := room.spawn(t, system)
	tid := register(t, system, mgr, newProbe().spawn(t, system), "alice")
	system.Root.Send(mgr, &messages.UpdateSessionRoomInfo{TransientID: tid, Room: roomPID})
	system.Root.Send(mgr, &messages.UpdateSessionRoomInfo{TransientID: tid})

	system.Root.Send(mgr, &messages.UnregisterSession{TransientID: tid, Reason: protocol.ReasonLogout})

	expectNoMsg(t, room, 100*time.Millisecond)
	assert.False(t, getUser(t, system, mgr, tid).Found)
}
