package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/nine-nine/game/board"
)

// scriptedRand returns queued values in order and 0 once exhausted
type scriptedRand struct {
	values []int
	calls  int
}

func (r *scriptedRand) Intn(n int) int {
	r.calls++
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

// queueDice queues dice faces (1-based) as Intn results
func (r *scriptedRand) queueDice(faces ...int) {
	for _, f := range faces {
		r.values = append(r.values, f-1)
	}
}

func (r *scriptedRand) queue(values ...int) {
	r.values = append(r.values, values...)
}

var testClock = func() time.Time { return time.Unix(1700000000, 0) }

func newTestVsCom(t *testing.T, mutate func(*GameConfig)) (*VsCom, *scriptedRand) {
	t.Helper()
	config := DefaultConfig(ModeVsCom)
	config.FirstMover = string(Human)
	if mutate != nil {
		mutate(config)
	}
	rnd := &scriptedRand{}
	eng, err := NewEngine(config, WithRand(rnd), WithClock(testClock))
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng.(*VsCom), rnd
}

func newTestVsPlayer(t *testing.T, mutate func(*GameConfig), initialNext ...int) (*VsPlayer, *scriptedRand) {
	t.Helper()
	config := DefaultConfig(ModeVsPlayer)
	if mutate != nil {
		mutate(config)
	}
	rnd := &scriptedRand{}
	rnd.queueDice(initialNext...)
	eng, err := NewEngine(config, WithRand(rnd), WithClock(testClock))
	require.NoError(t, err)
	return eng.(*VsPlayer), rnd
}

func eventsOfType(events []Event, eventType EventType) []Event {
	var found []Event
	for _, e := range events {
		if e.Type == eventType {
			found = append(found, e)
		}
	}
	return found
}

func findOutcome(t *testing.T, res Result) *Outcome {
	t.Helper()
	outcomes := eventsOfType(res.Events, EventOutcome)
	require.Len(t, outcomes, 1, "expected exactly one outcome event")
	return outcomes[0].Outcome
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		kind interface{}
	}{
		{"vscom", ModeVsCom, &VsCom{}},
		{"vsplayer", ModeVsPlayer, &VsPlayer{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			eng, err := NewEngine(DefaultConfig(test.mode))
			require.NoError(t, err)
			defer eng.Close()

			assert.IsType(t, test.kind, eng)
			assert.Equal(t, test.mode, eng.Mode())
			assert.Equal(t, PhaseIdle, eng.Snapshot().Phase)
		})
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := DefaultConfig(ModeVsCom)
	config.DiceFaces = 0

	_, err := NewEngine(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dice_faces")
}

func TestNewEngine_CopiesConfig(t *testing.T) {
	config := DefaultConfig(ModeVsPlayer)
	eng, err := NewEngine(config)
	require.NoError(t, err)

	config.ChoiceBonus[1] = 999
	assert.Equal(t, 10, eng.Config().ChoiceBonus[1])
}

func TestInputBeforeStart(t *testing.T) {
	config := DefaultConfig(ModeVsPlayer)
	eng, err := NewEngine(config)
	require.NoError(t, err)

	_, err = eng.RequestRoll(Player1)
	assert.ErrorIs(t, err, ErrWrongPhase)

	res := eng.Tick()
	assert.Empty(t, res.Events)
}

func TestUnknownSide(t *testing.T) {
	e, _ := newTestVsCom(t, nil)
	e.Start()

	_, err := e.RequestRoll(Side("spectator"))
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e, _ := newTestVsPlayer(t, nil, 2, 3)
	e.Start()

	snap := e.Snapshot()
	snap.Board.Obstacles = append(snap.Board.Obstacles, board.Position{X: 1, Y: 1})
	snap.Board.Pieces[0] = board.Position{X: 8, Y: 8}
	snap.Points[Player1] = 500

	assert.Empty(t, e.board.Obstacles)
	assert.Equal(t, board.Position{X: 0, Y: 4}, e.board.Pieces[0])
	assert.Equal(t, 10, e.points[0])
}

func TestMatchIDChangesOnReset(t *testing.T) {
	e, _ := newTestVsCom(t, nil)
	first := e.Start().State.MatchID
	require.NotEmpty(t, first)

	res := e.Reset()
	assert.True(t, res.Restarted)
	assert.NotEqual(t, first, res.State.MatchID)
	assert.Equal(t, 2, res.State.Match)
	assert.Len(t, eventsOfType(res.Events, EventReset), 1)
}

func TestHistoryPreservedAcrossReset(t *testing.T) {
	e, rnd := newTestVsCom(t, nil)
	e.Start()

	rnd.queueDice(2)
	_, err := e.RequestRoll(Human)
	require.NoError(t, err)
	_, err = e.SelectDirection(Human, board.Left)
	require.NoError(t, err)

	before := len(e.History())
	require.Equal(t, 2, before)

	e.Reset()
	history := e.History()
	assert.Len(t, history, before)
	assert.Equal(t, "roll", history[0].Action)
	assert.Equal(t, 1, history[0].Match)
	assert.Equal(t, 2, history[1].Number)
}

func TestRejectedRequestsLeaveStateUnchanged(t *testing.T) {
	e, rnd := newTestVsCom(t, nil)
	e.Start()
	rnd.queueDice(3)
	_, err := e.RequestRoll(Human)
	require.NoError(t, err)

	before := e.Snapshot()
	historyBefore := len(e.History())

	calls := []func() error{
		func() error { _, err := e.RequestRoll(Human); return err },
		func() error { _, err := e.SelectFiveOption(Human, FivePlace); return err },
		func() error { _, err := e.SelectDirection(Human, board.UpLeft); return err },
		func() error { _, err := e.SelectDirection(Computer, board.Up); return err },
		func() error { _, err := e.ActivateSkill(Human, SkillDiceUp); return err },
		func() error { _, err := e.Advance(12345); return err },
	}
	for i, call := range calls {
		err := call()
		require.Error(t, err, "call %d", i)
	}

	assert.Equal(t, before, e.Snapshot())
	assert.Len(t, e.History(), historyBefore)
}

func TestErrorsMatchSentinels(t *testing.T) {
	e, _ := newTestVsCom(t, nil)
	e.Start()

	_, err := e.SelectDirection(Human, board.Up)
	assert.True(t, errors.Is(err, ErrWrongPhase))

	_, err = e.ActivateSkill(Human, SkillZodiac)
	assert.True(t, errors.Is(err, ErrUnsupported))
}
