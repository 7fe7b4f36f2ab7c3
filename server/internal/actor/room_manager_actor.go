package actor

import (
	"crypto/rand"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/game"
	"github.com/wordpit/wordpit/server/internal/model"
	"github.com/wordpit/wordpit/server/internal/protocol"
)

// roomEntry is the manager's view of one live room: its PID plus the
// matching flags. The entry's pool, not the flags alone, decides
// matchability.
type roomEntry struct {
	room    *actor.PID
	full    bool
	playing bool
	public  bool
}

// RoomManagerActor allocates room codes, spawns rooms, and keeps every
// known code in exactly one of three pools: free (drained, ready for
// reuse), open (matchable), reserved (live but not matchable because
// it is private, full, or playing).
type RoomManagerActor struct {
	gameCfg           game.Config
	defaultMaxPlayers int

	free     map[string]struct{}
	open     map[string]*roomEntry
	reserved map[string]*roomEntry
}

// NewRoomManagerActor creates an empty manager. gameCfg seeds every
// spawned room's controller; defaultMaxPlayers caps rooms created
// without an explicit capacity.
func NewRoomManagerActor(gameCfg game.Config, defaultMaxPlayers int) actor.Actor {
	return &RoomManagerActor{
		gameCfg:           gameCfg,
		defaultMaxPlayers: defaultMaxPlayers,
		free:              make(map[string]struct{}),
		open:              make(map[string]*roomEntry),
		reserved:          make(map[string]*roomEntry),
	}
}

// Receive is the message handling loop for RoomManagerActor.
func (a *RoomManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		ctx.Logger().Info("room manager started")

	case *actor.Stopping:
		// Rooms are children; the runtime stops them with us.
		ctx.Logger().Info("room manager stopping", "open", len(a.open), "reserved", len(a.reserved))

	case *messages.CreateRoom:
		a.handleCreateRoom(ctx, msg)

	case *messages.JoinRoom:
		a.handleJoinRoom(ctx, msg)

	case *messages.UpdateRoomMatchAvailability:
		a.handleAvailability(ctx, msg)

	case *messages.OnRoomClosed:
		a.handleRoomClosed(ctx, msg)
	}
}

func (a *RoomManagerActor) handleCreateRoom(ctx actor.Context, msg *messages.CreateRoom) {
	code, room, err := a.spawnRoom(ctx, msg.Config, msg.LeaderID, msg.LeaderSession)
	if err != nil {
		ctx.Logger().Error("room spawn failed", "err", err)
		ctx.Respond(&messages.CreateRoomResponse{Error: protocol.JoinErrInternal})
		return
	}
	ctx.Respond(&messages.CreateRoomResponse{Success: true, Code: code, Room: room})
}

func (a *RoomManagerActor) handleJoinRoom(ctx actor.Context, msg *messages.JoinRoom) {
	if msg.Code != "" {
		a.joinByCode(ctx, msg)
		return
	}

	// Matchmaking: any open entry will do. Map iteration order doubles
	// as the sampling; a smarter matchmaker would slot in here.
	for _, entry := range a.open {
		a.forwardAdd(ctx, entry.room, msg)
		return
	}

	// No open rooms: the requester becomes the leader of a fresh public
	// room and is already seated, so answer directly.
	cfg := model.DefaultRoomConfig()
	cfg.MaxPlayers = a.defaultMaxPlayers
	code, room, err := a.spawnRoom(ctx, cfg, msg.TransientID, msg.Session)
	if err != nil {
		ctx.Logger().Error("matchmaking room spawn failed", "err", err)
		ctx.Respond(&messages.AddPlayerResponse{Error: protocol.JoinErrInternal})
		return
	}
	ctx.Respond(&messages.AddPlayerResponse{Success: true, Code: code, Room: room})
}

func (a *RoomManagerActor) joinByCode(ctx actor.Context, msg *messages.JoinRoom) {
	if entry, ok := a.reserved[msg.Code]; ok {
		switch {
		case entry.playing:
			ctx.Respond(&messages.AddPlayerResponse{Code: msg.Code, Error: protocol.JoinErrGameInProgress})
		case entry.full:
			ctx.Respond(&messages.AddPlayerResponse{Code: msg.Code, Error: protocol.JoinErrRoomFull})
		default:
			a.forwardAdd(ctx, entry.room, msg)
		}
		return
	}
	if entry, ok := a.open[msg.Code]; ok {
		a.forwardAdd(ctx, entry.room, msg)
		return
	}
	ctx.Respond(&messages.AddPlayerResponse{Code: msg.Code, Error: protocol.JoinErrRoomNotFound})
}

// forwardAdd relays the join to the room with the original requester
// as sender, so the room's response resolves the session's pending
// future without another hop through the manager.
func (a *RoomManagerActor) forwardAdd(ctx actor.Context, room *actor.PID, msg *messages.JoinRoom) {
	ctx.RequestWithCustomSender(room, &messages.AddPlayer{
		TransientID: msg.TransientID,
		Session:     msg.Session,
	}, ctx.Sender())
}

func (a *RoomManagerActor) handleAvailability(ctx actor.Context, msg *messages.UpdateRoomMatchAvailability) {
	if msg.Available {
		if entry, ok := a.reserved[msg.Code]; ok {
			entry.full = false
			if entry.public && !entry.playing {
				delete(a.reserved, msg.Code)
				a.open[msg.Code] = entry
				ctx.Logger().Debug("room opened for matching", "code", msg.Code)
			}
		} else if entry, ok := a.open[msg.Code]; ok {
			entry.full = false
		}
		return
	}

	entry, ok := a.open[msg.Code]
	if ok {
		delete(a.open, msg.Code)
		a.reserved[msg.Code] = entry
	} else if entry, ok = a.reserved[msg.Code]; !ok {
		ctx.Logger().Debug("availability for unknown code", "code", msg.Code)
		return
	}
	switch msg.Reason {
	case messages.UnavailableFull:
		entry.full = true
	case messages.UnavailableGameStarted:
		entry.playing = true
	}
	ctx.Logger().Debug("room reserved", "code", msg.Code, "reason", msg.Reason)
}

func (a *RoomManagerActor) handleRoomClosed(ctx actor.Context, msg *messages.OnRoomClosed) {
	delete(a.open, msg.Code)
	delete(a.reserved, msg.Code)
	a.free[msg.Code] = struct{}{}
	ctx.Logger().Debug("room code recycled", "code", msg.Code)
}

func (a *RoomManagerActor) spawnRoom(ctx actor.Context, cfg model.RoomConfig, leaderID uint64, leaderSession *actor.PID) (string, *actor.PID, error) {
	cfg = cfg.Normalize()
	code := a.takeCode()

	props := PropsForRoom(code, cfg, a.gameCfg, leaderID, leaderSession, ctx.Self())
	room, err := ctx.SpawnNamed(props, "room-"+code)
	if err != nil {
		a.free[code] = struct{}{}
		return "", nil, err
	}
	a.reserved[code] = &roomEntry{room: room, public: cfg.Public}
	ctx.Logger().Info("room created", "code", code, "public", cfg.Public, "max_players", cfg.MaxPlayers, "leader", leaderID)
	return code, room, nil
}

// takeCode pops a drained code from the free pool, or generates a
// fresh one that collides with no pool.
func (a *RoomManagerActor) takeCode() string {
	for code := range a.free {
		delete(a.free, code)
		return code
	}
	for {
		code := generateRoomCode()
		if _, ok := a.open[code]; ok {
			continue
		}
		if _, ok := a.reserved[code]; ok {
			continue
		}
		if _, ok := a.free[code]; ok {
			continue
		}
		return code
	}
}

// generateRoomCode samples RoomCodeLength characters from the code
// alphabet.
func generateRoomCode() string {
	b := make([]byte, model.RoomCodeLength)
	rand.Read(b)
	for i := range b {
		b[i] = model.RoomCodeAlphabet[int(b[i])%len(model.RoomCodeAlphabet)]
	}
	return string(b)
}

// PropsForRoomManager creates actor.Props for RoomManagerActor.
func PropsForRoomManager(gameCfg game.Config, defaultMaxPlayers int) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return NewRoomManagerActor(gameCfg, defaultMaxPlayers)
	})
}
