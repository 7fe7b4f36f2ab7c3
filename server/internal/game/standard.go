package game

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/wordpit/wordpit/server/internal/protocol"
)

// KindSubmitWord is the frame kind carrying a guess in the standard
// mode.
const KindSubmitWord = "SubmitWord"

// SubmitWordPayload is the payload of a SubmitWord frame.
type SubmitWordPayload struct {
	Word string `json:"word"`
}

// StandardState is the per-seat game view serialized by State.
type StandardState struct {
	Word          string `json:"word"`
	TimeRemaining int    `json:"time_remaining"`
	Turn          uint64 `json:"turn"`
	Score         int    `json:"score"`
}

var defaultWords = []string{
	"apple", "piano", "tiger", "ocean", "maple", "crane", "flint",
	"gravel", "hollow", "ivory", "jumble", "kettle", "lantern", "mirth",
	"noble", "orbit", "plume", "quartz", "ripple", "saddle", "thorn",
	"umber", "velvet", "wander", "yonder", "zephyr", "bramble", "cinder",
	"drift", "ember",
}

// Standard is the shipped word-guess mode: players take turns guessing
// the current word; a correct guess scores and draws a fresh word, a
// wrong guess or an expired countdown passes the turn. First seat to
// the target score wins and the match ends.
type Standard struct {
	cfg   Config
	rng   *rand.Rand
	words []string

	word     string
	turnSeat int
	turnTID  uint64
	timeLeft int
	scores   map[int]int
	paused   bool
	over     bool
}

// NewStandard builds an idle standard controller; the match starts at
// Begin.
func NewStandard(cfg Config) *Standard {
	return &Standard{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		words:    defaultWords,
		turnSeat: -1,
		scores:   make(map[int]int),
	}
}

// Begin draws the first word and announces the first turn.
func (g *Standard) Begin(t Table) {
	g.word = g.pickWord()
	g.nextTurn(t)
}

// End marks the match over. Idempotent; also called from the room's
// stop hook.
func (g *Standard) End(t Table) {
	g.over = true
}

// Pause suspends turn progression.
func (g *Standard) Pause(t Table) {
	g.paused = true
}

// Resume continues turn progression.
func (g *Standard) Resume(t Table) {
	g.paused = false
}

// Input handles a client frame from the given seat. Guesses from seats
// out of turn are dropped.
func (g *Standard) Input(t Table, seat int, kind string, data []byte) {
	if g.over || g.paused {
		return
	}
	if kind != KindSubmitWord {
		slog.Debug("ignoring unknown game input", "kind", kind, "seat", seat, "code", t.Code())
		return
	}
	if seat != g.turnSeat {
		slog.Debug("guess out of turn", "seat", seat, "turn", g.turnSeat, "code", t.Code())
		return
	}

	var p SubmitWordPayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Debug("malformed guess", "seat", seat, "code", t.Code(), "err", err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(p.Word), g.word) {
		g.scores[seat]++
		if g.scores[seat] >= g.cfg.TargetScore {
			g.over = true
			t.Broadcast(protocol.GameEndFrame(g.finalScores(t)))
			t.EndGame()
			return
		}
		g.word = g.pickWord()
	}
	g.nextTurn(t)
}

// finalScores resolves the per-seat tally to transient ids for the
// match-result broadcast. Seats that never scored report zero.
func (g *Standard) finalScores(t Table) map[uint64]int {
	scores := make(map[uint64]int)
	for _, s := range t.Seats() {
		scores[s.TransientID] = g.scores[s.Seat]
	}
	return scores
}

// Tick counts the turn down and passes it at zero.
func (g *Standard) Tick(t Table) {
	if g.over || g.paused {
		return
	}
	g.timeLeft--
	if g.timeLeft <= 0 {
		g.nextTurn(t)
	}
}

// State serializes the view for one seat. The turn id is resolved
// against the table so a view built right after a reconnection names
// the replacement session, not the one it replaced.
func (g *Standard) State(t Table, seat int) ([]byte, error) {
	turn := g.turnTID
	for _, s := range t.Seats() {
		if s.Seat == g.turnSeat {
			turn = s.TransientID
			break
		}
	}
	return json.Marshal(StandardState{
		Word:          g.word,
		TimeRemaining: g.timeLeft,
		Turn:          turn,
		Score:         g.scores[seat],
	})
}

// nextTurn advances to the next occupied seat (wrapping) and announces
// it. With no occupied seats it leaves the turn unassigned; the room
// closes such matches on its own.
func (g *Standard) nextTurn(t Table) {
	seats := t.Seats()
	if len(seats) == 0 {
		return
	}

	next := seats[0]
	for _, s := range seats {
		if s.Seat > g.turnSeat {
			next = s
			break
		}
	}

	g.turnSeat = next.Seat
	g.turnTID = next.TransientID
	g.timeLeft = g.cfg.TurnSeconds
	t.Broadcast(protocol.TurnUpdateFrame(next.TransientID))
}

func (g *Standard) pickWord() string {
	return g.words[g.rng.Intn(len(g.words))]
}
