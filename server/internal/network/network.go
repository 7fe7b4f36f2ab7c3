// Package network owns the WebSocket side of the server: the upgrade
// handler, the per-connection write wrapper handed to session actors,
// and the read pump that turns stream traffic into mailbox messages.
package network

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wordpit/wordpit/server/configs"
	sessionactor "github.com/wordpit/wordpit/server/internal/actor"
	"github.com/wordpit/wordpit/server/internal/actor/messages"
)

const (
	// writeWait bounds every write on the shared connection.
	writeWait = 10 * time.Second
	// maxFrameSize caps one inbound frame.
	maxFrameSize = 64 * 1024
)

// Server upgrades HTTP requests into client streams and spawns one
// session actor per stream.
type Server struct {
	system         *actor.ActorSystem
	sessionManager *actor.PID
	roomManager    *actor.PID
	timings        sessionactor.SessionTimings
	upgrader       websocket.Upgrader
	wg             sync.WaitGroup
}

// NewServer wires the transport to the actor system and the two
// manager actors every session needs.
func NewServer(system *actor.ActorSystem, sessionManager, roomManager *actor.PID, serverCfg configs.ServerConfig, sessionCfg configs.SessionConfig) *Server {
	return &Server{
		system:         system,
		sessionManager: sessionManager,
		roomManager:    roomManager,
		timings: sessionactor.SessionTimings{
			HeartbeatInterval:     sessionCfg.HeartbeatInterval,
			HeartbeatTimeLimit:    sessionCfg.HeartbeatTimeLimit,
			ReconnectionTimeLimit: sessionCfg.ReconnectionTimeLimit,
			RequestTimeout:        sessionCfg.JoinTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(serverCfg.AllowedOrigins),
		},
	}
}

// HandleWS upgrades the request, spawns the session actor, and runs
// the read pump on the handler goroutine until the stream breaks.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", c.Request.RemoteAddr, "err", err)
		return
	}

	conn := &wsConn{ws: ws}
	name := "session-" + uuid.NewString()
	props := sessionactor.PropsForSession(conn, s.sessionManager, s.roomManager, s.timings)
	pid, err := s.system.Root.SpawnNamed(props, name)
	if err != nil {
		slog.Error("session spawn failed", "remote", c.Request.RemoteAddr, "err", err)
		conn.Close()
		return
	}
	slog.Info("client connected", "remote", c.Request.RemoteAddr, "session", name)

	s.wg.Add(1)
	defer s.wg.Done()
	s.readPump(ws, pid)
}

// readPump forwards stream traffic into the session mailbox. A read
// error only ends the pump: the session actor stays up and its
// heartbeat machine decides between reconnection window and teardown.
func (s *Server) readPump(ws *websocket.Conn, pid *actor.PID) {
	deadline := 2 * s.timings.HeartbeatInterval
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(deadline))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(deadline))
		s.system.Root.Send(pid, &messages.ClientPong{})
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			slog.Debug("read pump closed", "session", pid.Id, "err", err)
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(deadline))
		s.system.Root.Send(pid, &messages.ClientFrame{Data: data})
	}
}

// Shutdown waits for all pumps to drain or the context to expire. The
// HTTP server must already have stopped accepting upgrades.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// wsConn serializes writes to the underlying connection; the session
// actor and its pong-driven pings share it.
type wsConn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

func (c *wsConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.ws.Close()
}
