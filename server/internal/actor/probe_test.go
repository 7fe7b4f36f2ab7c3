package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
)

const probeWait = 2 * time.Second

// probe is a test actor that records every user message it receives.
// An optional responder lets it stand in for request/response actors.
type probe struct {
	msgs    chan any
	respond func(msg any) any
}

func newProbe() *probe {
	return &probe{msgs: make(chan any, 64)}
}

func (p *probe) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case *actor.Started, *actor.Stopping, *actor.Stopped, *actor.Restarting:
		return
	}
	if p.respond != nil {
		if resp := p.respond(ctx.Message()); resp != nil {
			ctx.Respond(resp)
		}
	}
	p.msgs <- ctx.Message()
}

func (p *probe) spawn(t *testing.T, system *actor.ActorSystem) *actor.PID {
	t.Helper()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return p }))
	t.Cleanup(func() { system.Root.Stop(pid) })
	return pid
}

// expectMsg waits for the probe's next message and requires it to have
// type T.
func expectMsg[T any](t *testing.T, p *probe) T {
	t.Helper()
	select {
	case m := <-p.msgs:
		v, ok := m.(T)
		require.True(t, ok, "expected %T, got %#v", *new(T), m)
		return v
	case <-time.After(probeWait):
		t.Fatalf("timed out waiting for %T", *new(T))
		panic("unreachable")
	}
}

// expectNoMsg requires the probe to stay silent for the given window.
func expectNoMsg(t *testing.T, p *probe, window time.Duration) {
	t.Helper()
	select {
	case m := <-p.msgs:
		t.Fatalf("unexpected message %#v", m)
	case <-time.After(window):
	}
}

func newTestSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()
	system := actor.NewActorSystem()
	t.Cleanup(system.Shutdown)
	return system
}

// fakeConn records the write side of a session's stream.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	pings  int
	closed bool
}

func (c *fakeConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitFrames polls until at least n frames were written and returns a
// snapshot of all of them.
func (c *fakeConn) waitFrames(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(probeWait)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.frames) >= n {
			snapshot := make([][]byte, len(c.frames))
			copy(snapshot, c.frames)
			c.mu.Unlock()
			return snapshot
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(c.frames))
	panic("unreachable")
}
