package actor

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"

	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/game"
	"github.com/wordpit/wordpit/server/internal/metrics"
	"github.com/wordpit/wordpit/server/internal/model"
	"github.com/wordpit/wordpit/server/internal/protocol"
)

// gameTick drives the active controller's clock. Scheduled on self
// while a game is running.
type gameTick struct{}

const gameTickInterval = time.Second

// playerSlot is one occupied seat: the occupant's transient id and the
// session actor currently speaking for it. Reconnection swaps both
// without moving the slot.
type playerSlot struct {
	tid     uint64
	session *actor.PID
}

// RoomActor owns one lobby and its optional in-progress game. The
// roster is a slot slice plus a TransientId -> index map; the slot
// index is the public seat number and never changes for the duration
// of a membership.
type RoomActor struct {
	code    string
	cfg     model.RoomConfig
	gameCfg game.Config
	manager *actor.PID

	slots       []*playerSlot
	seatByTID   map[uint64]int
	playerCount int
	leaderTID   uint64

	active   game.Controller
	timers   *scheduler.TimerScheduler
	stopTick scheduler.CancelFunc
}

// NewRoomActor creates a room with the leader pre-seated at slot 0.
func NewRoomActor(code string, cfg model.RoomConfig, gameCfg game.Config, leaderID uint64, leaderSession *actor.PID, manager *actor.PID) actor.Actor {
	return &RoomActor{
		code:        code,
		cfg:         cfg,
		gameCfg:     gameCfg,
		manager:     manager,
		slots:       []*playerSlot{{tid: leaderID, session: leaderSession}},
		seatByTID:   map[uint64]int{leaderID: 0},
		playerCount: 1,
		leaderTID:   leaderID,
	}
}

// Receive is the message handling loop for the RoomActor.
func (a *RoomActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.timers = scheduler.NewTimerScheduler(ctx)
		metrics.RoomOpened()
		ctx.Logger().Info("room started", "code", a.code, "public", a.cfg.Public, "max_players", a.cfg.MaxPlayers)
		if a.playerCount >= a.cfg.MaxPlayers {
			a.sendUnavailable(ctx, messages.UnavailableFull)
		} else if a.cfg.Public {
			a.sendAvailable(ctx)
		}

	case *actor.Stopping:
		a.handleStopping(ctx)

	case *messages.AddPlayer:
		a.handleAddPlayer(ctx, msg)

	case *messages.RemovePlayer:
		a.handleRemovePlayer(ctx, msg)

	case *messages.ClientReconnection:
		a.handleReconnection(ctx, msg)

	case *messages.RequestStart:
		a.handleRequestStart(ctx, msg)

	case *messages.GameInput:
		a.handleGameInput(ctx, msg)

	case *gameTick:
		if a.active != nil {
			a.active.Tick(a.table(ctx))
		}

	case *messages.CloseRoom:
		ctx.Stop(ctx.Self())
	}
}

func (a *RoomActor) handleAddPlayer(ctx actor.Context, msg *messages.AddPlayer) {
	if a.active != nil {
		ctx.Respond(&messages.AddPlayerResponse{Code: a.code, Error: protocol.JoinErrGameInProgress})
		return
	}
	if a.playerCount >= a.cfg.MaxPlayers {
		ctx.Respond(&messages.AddPlayerResponse{Code: a.code, Error: protocol.JoinErrRoomFull})
		return
	}
	if _, seated := a.seatByTID[msg.TransientID]; seated {
		ctx.Respond(&messages.AddPlayerResponse{Code: a.code, Error: protocol.JoinErrAlreadyInRoom})
		return
	}

	seat := -1
	for i, slot := range a.slots {
		if slot == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		a.slots = append(a.slots, nil)
		seat = len(a.slots) - 1
	}
	a.slots[seat] = &playerSlot{tid: msg.TransientID, session: msg.Session}
	a.seatByTID[msg.TransientID] = seat
	a.playerCount++

	ctx.Logger().Info("player joined", "code", a.code, "tid", msg.TransientID, "seat", seat, "players", a.playerCount)
	if a.playerCount >= a.cfg.MaxPlayers {
		a.sendUnavailable(ctx, messages.UnavailableFull)
	}
	ctx.Respond(&messages.AddPlayerResponse{Success: true, Code: a.code, Room: ctx.Self()})
}

func (a *RoomActor) handleRemovePlayer(ctx actor.Context, msg *messages.RemovePlayer) {
	seat, ok := a.seatByTID[msg.TransientID]
	if !ok {
		ctx.Logger().Debug("remove for unknown tid", "code", a.code, "tid", msg.TransientID, "reason", msg.Reason)
		return
	}

	wasFull := a.playerCount >= a.cfg.MaxPlayers
	session := a.slots[seat].session
	a.slots[seat] = nil
	delete(a.seatByTID, msg.TransientID)
	a.playerCount--

	// On a requested leave the client already dropped the room locally;
	// echoing a frame would desync it.
	if msg.Reason != protocol.ReasonLeaveRequested {
		ctx.Send(session, &messages.ClearRoom{Reason: msg.Reason})
	}

	ctx.Logger().Info("player left", "code", a.code, "tid", msg.TransientID, "seat", seat, "reason", msg.Reason, "players", a.playerCount)

	if a.playerCount == 0 {
		ctx.Stop(ctx.Self())
		return
	}
	if wasFull && a.active == nil {
		a.sendAvailable(ctx)
	}
}

func (a *RoomActor) handleReconnection(ctx actor.Context, msg *messages.ClientReconnection) {
	seat, ok := a.seatByTID[msg.Replacee]
	if !ok {
		// Raced a concurrent RemovePlayer; the seat is gone.
		ctx.Logger().Debug("reconnection for unknown tid", "code", a.code, "replacee", msg.Replacee)
		return
	}

	a.slots[seat].tid = msg.ReplacerID
	a.slots[seat].session = msg.ReplacerSession
	delete(a.seatByTID, msg.Replacee)
	a.seatByTID[msg.ReplacerID] = seat
	if a.leaderTID == msg.Replacee {
		a.leaderTID = msg.ReplacerID
	}

	var view []byte
	if a.active != nil {
		state, err := a.active.State(a.table(ctx), seat)
		if err != nil {
			ctx.Logger().Warn("game state for restore failed", "code", a.code, "seat", seat, "err", err)
		} else {
			view = state
		}
	}
	ctx.Send(msg.ReplacerSession, &messages.RestoreState{Room: ctx.Self(), Code: a.code, Game: view})
	ctx.Logger().Info("player reconnected", "code", a.code, "seat", seat, "old_tid", msg.Replacee, "tid", msg.ReplacerID)
}

func (a *RoomActor) handleRequestStart(ctx actor.Context, msg *messages.RequestStart) {
	seat, ok := a.seatByTID[msg.TransientID]
	if !ok {
		ctx.Logger().Debug("start request from unknown tid", "code", a.code, "tid", msg.TransientID)
		return
	}
	requester := a.slots[seat].session

	if a.active != nil {
		a.sendFrame(ctx, requester, protocol.ResultFrame(protocol.ResultOfRequestStart, false, string(protocol.StartErrGameAlreadyRunning)))
		return
	}
	if !a.cfg.Public && msg.TransientID != a.leaderTID {
		a.sendFrame(ctx, requester, protocol.ResultFrame(protocol.ResultOfRequestStart, false, string(protocol.StartErrNotLeader)))
		return
	}

	ctrl, err := game.New(game.ModeStandard, a.gameCfg)
	if err != nil {
		ctx.Logger().Error("game construction failed", "code", a.code, "err", err)
		a.sendFrame(ctx, requester, protocol.ResultFrame(protocol.ResultOfRequestStart, false, string(protocol.JoinErrInternal)))
		return
	}

	a.active = ctrl
	a.sendUnavailable(ctx, messages.UnavailableGameStarted)
	a.notifyClients(ctx, protocol.GameStartedFrame(), -1)
	metrics.GamesStarted.Inc()
	ctx.Logger().Info("game started", "code", a.code, "players", a.playerCount, "by", msg.TransientID)

	a.active.Begin(a.table(ctx))
	if a.active != nil {
		a.stopTick = a.timers.SendRepeatedly(gameTickInterval, gameTickInterval, ctx.Self(), &gameTick{})
	}
}

func (a *RoomActor) handleGameInput(ctx actor.Context, msg *messages.GameInput) {
	if a.active == nil {
		ctx.Logger().Debug("game input without active game", "code", a.code, "tid", msg.TransientID, "kind", msg.Kind)
		return
	}
	seat, ok := a.seatByTID[msg.TransientID]
	if !ok {
		ctx.Logger().Debug("game input from unknown tid", "code", a.code, "tid", msg.TransientID)
		return
	}
	a.active.Input(a.table(ctx), seat, msg.Kind, msg.Data)
}

func (a *RoomActor) handleStopping(ctx actor.Context) {
	if a.stopTick != nil {
		a.stopTick()
		a.stopTick = nil
	}
	if a.active != nil {
		a.active.End(a.table(ctx))
		a.active = nil
		metrics.GamesEnded.Inc()
	}
	for _, slot := range a.slots {
		if slot != nil {
			ctx.Send(slot.session, &messages.ClearRoom{Reason: protocol.ReasonRoomClosed})
		}
	}
	ctx.Send(a.manager, &messages.OnRoomClosed{Code: a.code})
	metrics.RoomClosed()
	ctx.Logger().Info("room closed", "code", a.code)
}

// finishGame is the Table.EndGame path: the controller has already
// broadcast the result, so the room just closes. The
// fresh-room-per-match policy keeps the playing flag meaningful until
// OnRoomClosed recycles the code.
func (a *RoomActor) finishGame(ctx actor.Context) {
	if a.active == nil {
		return
	}
	if a.stopTick != nil {
		a.stopTick()
		a.stopTick = nil
	}
	a.active = nil
	metrics.GamesEnded.Inc()
	ctx.Logger().Info("game ended", "code", a.code)
	ctx.Stop(ctx.Self())
}

// notifyClients fans frame out to every occupied slot, or to the one
// slot named by target when target >= 0.
func (a *RoomActor) notifyClients(ctx actor.Context, frame protocol.Envelope, target int) {
	if target >= 0 {
		if target >= len(a.slots) || a.slots[target] == nil {
			ctx.Logger().Warn("notify on vacant seat", "code", a.code, "seat", target)
			return
		}
		a.sendFrame(ctx, a.slots[target].session, frame)
		return
	}
	for _, slot := range a.slots {
		if slot != nil {
			a.sendFrame(ctx, slot.session, frame)
		}
	}
}

func (a *RoomActor) sendFrame(ctx actor.Context, session *actor.PID, frame protocol.Envelope) {
	ctx.Send(session, &messages.SerializedMessage{Frame: frame})
}

func (a *RoomActor) sendAvailable(ctx actor.Context) {
	ctx.Send(a.manager, &messages.UpdateRoomMatchAvailability{Code: a.code, Available: true})
}

func (a *RoomActor) sendUnavailable(ctx actor.Context, reason messages.UnavailabilityReason) {
	ctx.Send(a.manager, &messages.UpdateRoomMatchAvailability{Code: a.code, Reason: reason})
}

// table builds the game.Table view over this room for one controller
// call. It is only valid within that call.
func (a *RoomActor) table(ctx actor.Context) game.Table {
	return &roomTable{room: a, ctx: ctx}
}

type roomTable struct {
	room *RoomActor
	ctx  actor.Context
}

func (t *roomTable) Code() string { return t.room.code }

func (t *roomTable) Seats() []game.SeatInfo {
	seats := make([]game.SeatInfo, 0, t.room.playerCount)
	for i, slot := range t.room.slots {
		if slot != nil {
			seats = append(seats, game.SeatInfo{Seat: i, TransientID: slot.tid})
		}
	}
	return seats
}

func (t *roomTable) Broadcast(frame protocol.Envelope) {
	t.room.notifyClients(t.ctx, frame, -1)
}

func (t *roomTable) SendToSeat(seat int, frame protocol.Envelope) error {
	if seat < 0 || seat >= len(t.room.slots) || t.room.slots[seat] == nil {
		return fmt.Errorf("seat %d in room %s is vacant", seat, t.room.code)
	}
	t.room.sendFrame(t.ctx, t.room.slots[seat].session, frame)
	return nil
}

func (t *roomTable) EndGame() {
	t.room.finishGame(t.ctx)
}

// PropsForRoom creates actor.Props for RoomActor.
func PropsForRoom(code string, cfg model.RoomConfig, gameCfg game.Config, leaderID uint64, leaderSession *actor.PID, manager *actor.PID) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return NewRoomActor(code, cfg, gameCfg, leaderID, leaderSession, manager)
	})
}
