package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/nine-nine/game/board"
)

// match holds the state and bookkeeping shared by both engines. Each engine
// supplies restart, which begins a fresh match after a terminal condition.
type match struct {
	config *GameConfig
	rnd    Rand
	now    func() time.Time
	sides  [2]Side

	board         *board.Board
	active        int
	turn          int
	phase         Phase
	dice          int
	enabled       []board.Direction
	timeRemaining int
	matchID       string
	matchNumber   int
	lastOutcome   *Outcome

	token   uint64
	pending *Continuation

	history []HistoryEntry

	// per-transition output, drained by collect
	events    []Event
	next      *Continuation
	restarted bool

	restart func()
}

func newMatch(config *GameConfig, o options) match {
	sides := SidesFor(config.Mode)
	return match{
		config:  config,
		rnd:     o.rnd,
		now:     o.now,
		sides:   sides,
		board:   board.New(config.StartPositions[sides[0]], config.StartPositions[sides[1]]),
		phase:   PhaseIdle,
		history: []HistoryEntry{},
	}
}

// begin resets per-match state. Any outstanding continuation becomes stale.
func (m *match) begin(first int) {
	m.board = board.New(m.config.StartPositions[m.sides[0]], m.config.StartPositions[m.sides[1]])
	m.active = first
	m.turn = 1
	m.phase = PhaseIdle
	m.dice = 0
	m.enabled = nil
	m.timeRemaining = m.config.TimeLimitSeconds
	m.matchID = uuid.NewString()
	m.matchNumber++
	m.token++
	m.pending = nil
	m.next = nil
}

func (m *match) firstMover() int {
	switch m.config.FirstMover {
	case string(m.sides[0]):
		return 0
	case string(m.sides[1]):
		return 1
	}
	return m.rnd.Intn(2)
}

func (m *match) sideIndex(side Side) (int, error) {
	switch side {
	case m.sides[0]:
		return 0, nil
	case m.sides[1]:
		return 1, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownSide, side)
}

// checkTurn validates that side may act now. An empty phase skips the phase check.
func (m *match) checkTurn(side Side, phase Phase) (int, error) {
	idx, err := m.sideIndex(side)
	if err != nil {
		return idx, err
	}
	if m.phase == PhaseIdle {
		return idx, fmt.Errorf("%w: match has not started", ErrWrongPhase)
	}
	if idx != m.active {
		return idx, fmt.Errorf("%w: %s is playing", ErrNotYourTurn, m.sides[m.active])
	}
	if m.pending != nil {
		return idx, ErrBusy
	}
	if phase != "" && m.phase != phase {
		return idx, fmt.Errorf("%w: expected %s, current phase is %s", ErrWrongPhase, phase, m.phase)
	}
	return idx, nil
}

func (m *match) position(idx int) board.Position {
	return m.board.Pieces[idx]
}

func (m *match) rollDice() int {
	return m.rnd.Intn(m.config.DiceFaces) + 1
}

func (m *match) placementAfterMove() []board.Direction {
	if m.config.AfterMovePlacement == PlacementAll {
		return board.AllDirections
	}
	return board.Orthogonal
}

func (m *match) emit(e Event) {
	e.Timestamp = m.now()
	m.events = append(m.events, e)
}

func (m *match) emitBoard(message string) {
	m.emit(Event{Type: EventRenderBoard, Board: m.board.Clone(), Message: message})
}

func (m *match) emitTurn() {
	m.emit(Event{
		Type:    EventTurnIndicator,
		Side:    m.sides[m.active],
		Turn:    m.turn,
		Message: fmt.Sprintf("Turn %d: %s", m.turn, m.sides[m.active]),
	})
}

func (m *match) emitPhase(message string) {
	m.emit(Event{Type: EventPhase, Side: m.sides[m.active], Phase: m.phase, Message: message})
}

func (m *match) emitTimer() {
	remaining := m.timeRemaining
	m.emit(Event{Type: EventTimer, Remaining: &remaining})
}

// prompt moves the active side into phase with the given enabled directions
func (m *match) prompt(phase Phase, dirs []board.Direction) {
	m.phase = phase
	m.enabled = dirs
	m.emitPhase("")
	m.emit(Event{Type: EventDirectionInput, Side: m.sides[m.active], Phase: phase, Directions: dirs})
}

func (m *match) schedule(step string, delay time.Duration) {
	m.token++
	m.pending = &Continuation{Token: m.token, Delay: delay, Step: step}
	m.next = m.pending
}

// takePending consumes the outstanding continuation if token matches it
func (m *match) takePending(token uint64) (string, error) {
	if m.pending == nil || m.pending.Token != token {
		return "", fmt.Errorf("%w: token %d", ErrStaleContinuation, token)
	}
	step := m.pending.Step
	m.pending = nil
	return step, nil
}

func (m *match) record(entry HistoryEntry) {
	entry.Number = len(m.history) + 1
	entry.Match = m.matchNumber
	entry.MatchID = m.matchID
	entry.Turn = m.turn
	entry.Timestamp = m.now().Unix()
	m.history = append(m.history, entry)
}

func (m *match) recordMove(idx int, walk board.Walk) {
	from, to := walk.From, walk.To
	m.record(HistoryEntry{
		Side:      m.sides[idx],
		Action:    "move",
		Dice:      m.dice,
		Direction: walk.Direction,
		From:      &from,
		To:        &to,
		Detail:    string(walk.Outcome),
	})
}

func (m *match) recordPlacement(idx int, d board.Direction, at board.Position) {
	from := m.position(idx)
	m.record(HistoryEntry{
		Side:      m.sides[idx],
		Action:    "place",
		Direction: d,
		From:      &from,
		To:        &at,
	})
}

// lose ends the match against the participant at idx and starts a new one
func (m *match) lose(idx int, reason OutcomeReason) {
	loser := m.sides[idx]
	var text string
	switch reason {
	case ReasonFell:
		text = m.config.Messages.Fell
	case ReasonNoMoves:
		text = m.config.Messages.NoMoves
	default:
		text = m.config.Messages.NoPlacements
	}
	m.conclude(&Outcome{
		Winner:  m.sides[1-idx],
		Loser:   loser,
		Reason:  reason,
		Message: fmt.Sprintf(text, loser),
	})
}

func (m *match) conclude(outcome *Outcome) {
	outcome.MatchID = m.matchID
	outcome.Turn = m.turn
	m.emit(Event{Type: EventOutcome, Side: outcome.Winner, Message: outcome.Message, Outcome: outcome})
	m.record(HistoryEntry{Side: outcome.Winner, Action: "outcome", Detail: string(outcome.Reason)})
	m.lastOutcome = outcome
	m.reset()
}

// reset discards the current match and begins a new one
func (m *match) reset() {
	m.emit(Event{Type: EventReset, Message: "Board reinitialised"})
	m.restart()
	m.restarted = true
}

// tick counts the clock down by one second. Expiry ends the match with no
// winner; the acting side is recorded as the loser.
func (m *match) tick() {
	if m.phase == PhaseIdle || m.config.TimeLimitSeconds == 0 {
		return
	}
	m.timeRemaining--
	if m.timeRemaining < 0 {
		m.timeRemaining = 0
	}
	m.emitTimer()
	if m.timeRemaining == 0 {
		message := m.config.Messages.Timeout
		if message == "" {
			message = "Time is up!"
		}
		m.conclude(&Outcome{Loser: m.sides[m.active], Reason: ReasonTimeout, Message: message})
	}
}

func (m *match) baseSnapshot() Snapshot {
	b := m.board.Clone()
	enabled := make([]board.Direction, len(m.enabled))
	copy(enabled, m.enabled)

	var last *Outcome
	if m.lastOutcome != nil {
		o := *m.lastOutcome
		last = &o
	}

	return Snapshot{
		MatchID:    m.matchID,
		Match:      m.matchNumber,
		Mode:       m.config.Mode,
		ConfigName: m.config.Name,
		Board:      b,
		Sides:      m.sides,
		Positions: map[Side]board.Position{
			m.sides[0]: b.Pieces[0],
			m.sides[1]: b.Pieces[1],
		},
		Active:            m.sides[m.active],
		Turn:              m.turn,
		Phase:             m.phase,
		Dice:              m.dice,
		TimeRemaining:     m.timeRemaining,
		EnabledDirections: enabled,
		Busy:              m.pending != nil,
		LastOutcome:       last,
	}
}

// collect drains the output of the current transition
func (m *match) collect(state Snapshot) Result {
	result := Result{
		State:     state,
		Events:    m.events,
		Next:      m.next,
		Restarted: m.restarted,
	}
	if result.Events == nil {
		result.Events = []Event{}
	}
	m.events = nil
	m.next = nil
	m.restarted = false
	return result
}

func (m *match) historyCopy() []HistoryEntry {
	history := make([]HistoryEntry, len(m.history))
	copy(history, m.history)
	return history
}
