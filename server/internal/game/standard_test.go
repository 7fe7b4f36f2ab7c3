package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordpit/wordpit/server/internal/protocol"
)

// fakeTable records everything a controller pushes through it.
type fakeTable struct {
	code      string
	seats     []SeatInfo
	broadcast []protocol.Envelope
	perSeat   map[int][]protocol.Envelope
	ended     int
}

func newFakeTable(seats ...SeatInfo) *fakeTable {
	return &fakeTable{code: "AB12", seats: seats, perSeat: map[int][]protocol.Envelope{}}
}

func (f *fakeTable) Code() string      { return f.code }
func (f *fakeTable) Seats() []SeatInfo { return f.seats }

func (f *fakeTable) Broadcast(frame protocol.Envelope) {
	f.broadcast = append(f.broadcast, frame)
}

func (f *fakeTable) SendToSeat(seat int, frame protocol.Envelope) error {
	f.perSeat[seat] = append(f.perSeat[seat], frame)
	return nil
}

func (f *fakeTable) EndGame() { f.ended++ }

// lastTurn returns the transient id announced by the most recent
// TurnUpdate broadcast.
func (f *fakeTable) lastTurn(t *testing.T) uint64 {
	t.Helper()
	require.NotEmpty(t, f.broadcast, "no TurnUpdate broadcast yet")
	last := f.broadcast[len(f.broadcast)-1]
	require.Equal(t, protocol.KindTurnUpdate, last.Kind)
	payload, ok := last.Data.(protocol.TurnUpdatePayload)
	require.True(t, ok, "TurnUpdate payload has unexpected type %T", last.Data)
	return payload.TransientID
}

func guess(word string) []byte {
	data, _ := json.Marshal(SubmitWordPayload{Word: word})
	return data
}

func TestStandardBeginAnnouncesFirstTurn(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 30, TargetScore: 3})

	g.Begin(table)

	require.Len(t, table.broadcast, 1)
	assert.Equal(t, uint64(11), table.lastTurn(t))
	assert.NotEmpty(t, g.word)
	assert.Equal(t, 30, g.timeLeft)
}

func TestStandardTurnRotation(t *testing.T) {
	table := newFakeTable(
		SeatInfo{Seat: 0, TransientID: 11},
		SeatInfo{Seat: 1, TransientID: 22},
		SeatInfo{Seat: 2, TransientID: 33},
	)
	g := NewStandard(Config{TurnSeconds: 30, TargetScore: 5})
	g.Begin(table)

	// A wrong guess in turn passes the turn without scoring.
	g.Input(table, 0, KindSubmitWord, guess("definitely-not-the-word"))
	assert.Equal(t, uint64(22), table.lastTurn(t))
	assert.Zero(t, g.scores[0])

	g.Input(table, 1, KindSubmitWord, guess("also-wrong"))
	assert.Equal(t, uint64(33), table.lastTurn(t))

	// The last seat wraps back to the first.
	g.Input(table, 2, KindSubmitWord, guess("wrong-again"))
	assert.Equal(t, uint64(11), table.lastTurn(t))
}

func TestStandardScoringAndWin(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 30, TargetScore: 2})
	g.Begin(table)

	// Correct guesses score; case and surrounding space are forgiven.
	g.Input(table, 0, KindSubmitWord, guess("  "+g.word+"  "))
	assert.Equal(t, 1, g.scores[0])
	assert.Equal(t, uint64(22), table.lastTurn(t))
	assert.Zero(t, table.ended)

	g.Input(table, 1, KindSubmitWord, guess("nope"))
	assert.Equal(t, uint64(11), table.lastTurn(t))

	// Reaching the target broadcasts the result and ends the match
	// through the table.
	g.Input(table, 0, KindSubmitWord, guess(g.word))
	assert.Equal(t, 2, g.scores[0])
	assert.Equal(t, 1, table.ended)
	assert.True(t, g.over)

	end := table.broadcast[len(table.broadcast)-1]
	require.Equal(t, protocol.KindGameEnd, end.Kind)
	payload, ok := end.Data.(protocol.GameEndPayload)
	require.True(t, ok, "GameEnd payload has unexpected type %T", end.Data)
	assert.Equal(t, map[uint64]int{11: 2, 22: 0}, payload.Scores)

	// Input after the end is dropped.
	turns := len(table.broadcast)
	g.Input(table, 1, KindSubmitWord, guess(g.word))
	assert.Len(t, table.broadcast, turns)
}

func TestStandardIgnoresOutOfTurnAndBadInput(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 30, TargetScore: 3})
	g.Begin(table)
	word := g.word

	g.Input(table, 1, KindSubmitWord, guess(word)) // not seat 1's turn
	g.Input(table, 0, "Emote", []byte(`{"face":"grin"}`))
	g.Input(table, 0, KindSubmitWord, []byte(`{broken`))

	assert.Equal(t, word, g.word)
	assert.Zero(t, g.scores[0])
	assert.Zero(t, g.scores[1])
	assert.Equal(t, uint64(11), table.lastTurn(t))
}

func TestStandardTickCountdown(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 2, TargetScore: 3})
	g.Begin(table)

	g.Tick(table)
	assert.Equal(t, uint64(11), table.lastTurn(t), "turn must hold until the countdown expires")

	g.Tick(table)
	assert.Equal(t, uint64(22), table.lastTurn(t), "expired countdown passes the turn")
	assert.Equal(t, 2, g.timeLeft)
}

func TestStandardPauseHaltsProgress(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 1, TargetScore: 3})
	g.Begin(table)

	g.Pause(table)
	g.Tick(table)
	g.Tick(table)
	g.Input(table, 0, KindSubmitWord, guess(g.word))
	assert.Equal(t, uint64(11), table.lastTurn(t))
	assert.Zero(t, g.scores[0])

	g.Resume(table)
	g.Tick(table)
	assert.Equal(t, uint64(22), table.lastTurn(t))
}

func TestStandardStateResolvesTurnFromTable(t *testing.T) {
	table := newFakeTable(SeatInfo{Seat: 0, TransientID: 11}, SeatInfo{Seat: 1, TransientID: 22})
	g := NewStandard(Config{TurnSeconds: 30, TargetScore: 3})
	g.Begin(table)
	g.Input(table, 0, KindSubmitWord, guess(g.word)) // seat 0 scores, turn moves to seat 1

	// Seat 1 reconnects under a fresh transient id.
	table.seats[1].TransientID = 99

	raw, err := g.State(table, 0)
	require.NoError(t, err)

	var view StandardState
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, uint64(99), view.Turn)
	assert.Equal(t, 1, view.Score)
	assert.Equal(t, g.word, view.Word)
	assert.Equal(t, 30, view.TimeRemaining)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(Mode("chess"), Config{TurnSeconds: 30, TargetScore: 3})
	require.Error(t, err)

	c, err := New(ModeStandard, Config{TurnSeconds: 30, TargetScore: 3})
	require.NoError(t, err)
	require.NotNil(t, c)
}
