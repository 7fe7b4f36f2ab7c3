// Package metrics exposes the server's Prometheus collectors. All
// metrics live under the "wordpit" namespace and are registered on the
// default registry at init, so importing packages can call the helpers
// without further wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive tracks the number of live session actors.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of live client sessions.",
	})

	// SessionsOpened counts sessions spawned since process start.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "opened_total",
		Help:      "Total client sessions opened.",
	})

	// SessionsClosed counts sessions stopped since process start.
	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "closed_total",
		Help:      "Total client sessions closed.",
	})

	// Reconnections counts successful reconnection hand-offs.
	Reconnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "reconnections_total",
		Help:      "Total reconnection hand-offs performed.",
	})

	// FramesReceived counts inbound frames by kind. Unknown kinds are
	// bucketed as game_input to bound label cardinality.
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "frames_received_total",
		Help:      "Total frames received from clients, by kind.",
	}, []string{"kind"})

	// FramesSent counts outbound frames by kind.
	FramesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "session",
		Name:      "frames_sent_total",
		Help:      "Total frames sent to clients, by kind.",
	}, []string{"kind"})

	// RoomsActive tracks the number of live room actors.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordpit",
		Subsystem: "room",
		Name:      "active",
		Help:      "Number of live rooms.",
	})

	// RoomsCreated counts rooms spawned since process start.
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "room",
		Name:      "created_total",
		Help:      "Total rooms created.",
	})

	// RoomsClosed counts rooms stopped since process start.
	RoomsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "room",
		Name:      "closed_total",
		Help:      "Total rooms closed.",
	})

	// JoinResults counts join outcomes by result tag ("ok" or the
	// user-visible error).
	JoinResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "room",
		Name:      "join_results_total",
		Help:      "Total join attempts, by outcome.",
	}, []string{"result"})

	// GamesStarted counts games begun.
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "game",
		Name:      "started_total",
		Help:      "Total games started.",
	})

	// GamesEnded counts games finished.
	GamesEnded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wordpit",
		Subsystem: "game",
		Name:      "ended_total",
		Help:      "Total games ended.",
	})
)

// SessionOpened records a new live session.
func SessionOpened() {
	SessionsActive.Inc()
	SessionsOpened.Inc()
}

// SessionClosed records a session teardown.
func SessionClosed() {
	SessionsActive.Dec()
	SessionsClosed.Inc()
}

// RoomOpened records a new live room.
func RoomOpened() {
	RoomsActive.Inc()
	RoomsCreated.Inc()
}

// RoomClosed records a room teardown.
func RoomClosed() {
	RoomsActive.Dec()
	RoomsClosed.Inc()
}

// JoinResult records one join attempt outcome. Pass "ok" for success.
func JoinResult(result string) {
	JoinResults.WithLabelValues(result).Inc()
}

// FrameReceived records one inbound frame.
func FrameReceived(kind string) {
	FramesReceived.WithLabelValues(kind).Inc()
}

// FrameSent records one outbound frame.
func FrameSent(kind string) {
	FramesSent.WithLabelValues(kind).Inc()
}
