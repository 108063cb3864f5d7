package engine

import (
	"fmt"
	"time"

	"github.com/wricardo/nine-nine/game/board"
)

const (
	stepOpponentRoll  = "opponent_roll"
	stepOpponentMove  = "opponent_move"
	stepOpponentPlace = "opponent_place"
)

const (
	humanIdx    = 0
	computerIdx = 1
)

// VsCom is the engine for one human against the scripted opponent. The
// opponent's roll, move and placement each run as a separate continuation.
type VsCom struct {
	match
	policy Policy
	closer func()

	// directions the opponent's pending placement may use
	opponentPlacement []board.Direction
}

func newVsCom(config *GameConfig, o options) (*VsCom, error) {
	e := &VsCom{match: newMatch(config, o)}
	e.restart = e.startMatch

	e.policy = o.policy
	if e.policy == nil {
		random := NewRandomPolicy(o.rnd)
		e.policy = random
		if config.OpponentScript != "" {
			scripted, err := NewLuaPolicy(config.OpponentScript, random)
			if err != nil {
				return nil, err
			}
			e.policy = scripted
			e.closer = scripted.Close
		}
	}
	return e, nil
}

func (e *VsCom) Mode() Mode { return ModeVsCom }
func (e *VsCom) Config() *GameConfig { return e.config }
func (e *VsCom) Sides() [2]Side { return e.sides }
func (e *VsCom) History() []HistoryEntry { return e.historyCopy() }
func (e *VsCom) Snapshot() Snapshot { return e.baseSnapshot() }

func (e *VsCom) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// Start begins the first match
func (e *VsCom) Start() Result {
	e.startMatch()
	return e.collect(e.Snapshot())
}

// Reset abandons the current match and starts a new one
func (e *VsCom) Reset() Result {
	e.reset()
	return e.collect(e.Snapshot())
}

func (e *VsCom) startMatch() {
	e.begin(e.firstMover())
	e.opponentPlacement = nil
	e.emitBoard(e.config.Messages.Welcome)
	e.emitTimer()
	e.beginTurn()
}

func (e *VsCom) beginTurn() {
	e.phase = PhaseAwaitingRoll
	e.dice = 0
	e.enabled = nil
	e.emitTurn()
	if e.active == computerIdx {
		e.emitPhase("The computer is thinking")
		e.schedule(stepOpponentRoll, e.delay(e.config.RollDelayMS))
		return
	}
	e.emitPhase("Roll the dice")
}

func (e *VsCom) endTurn() {
	e.turn++
	e.active = 1 - e.active
	e.beginTurn()
}

func (e *VsCom) delay(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (e *VsCom) isFiveChoice() bool {
	return e.config.FiveChoiceRoll > 0 && e.dice == e.config.FiveChoiceRoll
}

func (e *VsCom) roll(idx int) {
	e.dice = e.rollDice()
	e.emit(Event{Type: EventDiceResult, Side: e.sides[idx], Dice: e.dice})
	e.record(HistoryEntry{Side: e.sides[idx], Action: "roll", Dice: e.dice})
}

// RequestRoll rolls the dice for the human
func (e *VsCom) RequestRoll(side Side) (Result, error) {
	idx, err := e.checkHuman(side, PhaseAwaitingRoll)
	if err != nil {
		return Result{}, err
	}

	e.roll(idx)
	if e.isFiveChoice() {
		e.phase = PhaseFiveChoice
		e.emitPhase("")
		e.emit(Event{
			Type:    EventChoicePrompt,
			Side:    e.sides[idx],
			Dice:    e.dice,
			Options: []FiveOption{FiveMove, FivePlace},
			Message: fmt.Sprintf("Move %d or place an obstacle in any direction", e.dice),
		})
	} else {
		e.promptHumanMove()
	}
	return e.collect(e.Snapshot()), nil
}

// SelectFiveOption resolves the choice offered after a five-choice roll
func (e *VsCom) SelectFiveOption(side Side, option FiveOption) (Result, error) {
	if _, err := e.checkHuman(side, PhaseFiveChoice); err != nil {
		return Result{}, err
	}

	if option != FiveMove && option != FivePlace {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}

	e.record(HistoryEntry{Side: side, Action: "five_option", Dice: e.dice, Detail: string(option)})
	if option == FiveMove {
		e.promptHumanMove()
	} else {
		e.promptHumanPlacement(board.AllDirections)
	}
	return e.collect(e.Snapshot()), nil
}

// SelectDirection moves the human's piece or places the human's obstacle,
// depending on the phase.
func (e *VsCom) SelectDirection(side Side, d board.Direction) (Result, error) {
	idx, err := e.checkHuman(side, "")
	if err != nil {
		return Result{}, err
	}

	switch e.phase {
	case PhaseMovement:
		if !board.Contains(e.enabled, d) {
			return Result{}, fmt.Errorf("%w: %s is not available", ErrIllegalMove, d)
		}
		walk, err := e.board.MovePiece(idx, d, e.dice, e.config.SafeEdgeRoll)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
		e.afterMove(idx, walk)
		if !walk.Fatal() {
			e.promptHumanPlacement(e.placementAfterMove())
		}

	case PhasePlacement:
		if !board.Contains(e.enabled, d) {
			return Result{}, fmt.Errorf("%w: %s is not available", ErrIllegalPlacement, d)
		}
		if err := e.place(idx, d); err != nil {
			return Result{}, err
		}
		e.endTurn()

	default:
		return Result{}, fmt.Errorf("%w: no direction expected during %s", ErrWrongPhase, e.phase)
	}
	return e.collect(e.Snapshot()), nil
}

func (e *VsCom) ActivateSkill(side Side, skill Skill) (Result, error) {
	return Result{}, fmt.Errorf("%w: skills", ErrUnsupported)
}

func (e *VsCom) SelectZodiac(side Side, zodiac string) (Result, error) {
	return Result{}, fmt.Errorf("%w: zodiac skills", ErrUnsupported)
}

// Tick advances the countdown by one second
func (e *VsCom) Tick() Result {
	e.tick()
	return e.collect(e.Snapshot())
}

// Advance runs the opponent step identified by token
func (e *VsCom) Advance(token uint64) (Result, error) {
	step, err := e.takePending(token)
	if err != nil {
		return Result{}, err
	}

	switch step {
	case stepOpponentRoll:
		e.opponentRoll()
	case stepOpponentMove:
		e.opponentMove()
	case stepOpponentPlace:
		e.opponentPlace()
	}
	return e.collect(e.Snapshot()), nil
}

func (e *VsCom) checkHuman(side Side, phase Phase) (int, error) {
	if side == Computer {
		return -1, fmt.Errorf("%w: the computer plays itself", ErrNotYourTurn)
	}
	return e.checkTurn(side, phase)
}

// promptHumanMove offers every orthogonal direction whose first step is not
// blocked. Stepping off the board is allowed and resolved as a fall.
func (e *VsCom) promptHumanMove() {
	legal := e.board.LegalMoves(e.position(humanIdx), board.Orthogonal)
	if len(legal) == 0 {
		e.lose(humanIdx, ReasonNoMoves)
		return
	}
	e.prompt(PhaseMovement, legal)
}

func (e *VsCom) promptHumanPlacement(dirs []board.Direction) {
	legal := e.board.LegalPlacements(e.position(humanIdx), dirs)
	if len(legal) == 0 {
		e.lose(humanIdx, ReasonNoPlacements)
		return
	}
	e.prompt(PhasePlacement, legal)
}

func (e *VsCom) afterMove(idx int, walk board.Walk) {
	e.recordMove(idx, walk)
	e.emitBoard("")
	if walk.Fatal() {
		e.lose(idx, ReasonFell)
	}
}

func (e *VsCom) place(idx int, d board.Direction) error {
	at, err := e.board.PlaceObstacle(e.position(idx), d)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalPlacement, err)
	}
	e.recordPlacement(idx, d, at)
	e.emitBoard("")
	e.emit(Event{Type: EventPlacementSound, Side: e.sides[idx], Position: &at})
	return nil
}

func (e *VsCom) view() OpponentView {
	return OpponentView{Board: e.board.Clone(), Mover: computerIdx, Dice: e.dice, Turn: e.turn}
}

func (e *VsCom) safeMoves() []board.Direction {
	return SafeMoves(e.board, computerIdx, e.dice, e.config.SafeEdgeRoll)
}

func (e *VsCom) stepDelay() time.Duration {
	return e.delay(e.config.StepDelayMS)
}

func (e *VsCom) opponentRoll() {
	e.roll(computerIdx)

	if e.isFiveChoice() {
		option := e.policy.ChooseFiveOption(e.view())
		e.record(HistoryEntry{Side: Computer, Action: "five_option", Dice: e.dice, Detail: string(option)})
		// With nowhere safe to move, the move branch falls back to placing.
		if option == FiveMove && len(e.safeMoves()) > 0 {
			e.phase = PhaseMovement
			e.emitPhase("")
			e.schedule(stepOpponentMove, e.stepDelay())
			return
		}
		e.opponentPlacement = board.AllDirections
		e.phase = PhasePlacement
		e.emitPhase("")
		e.schedule(stepOpponentPlace, e.stepDelay())
		return
	}

	if len(e.safeMoves()) == 0 {
		e.lose(computerIdx, ReasonNoMoves)
		return
	}
	e.phase = PhaseMovement
	e.emitPhase("")
	e.schedule(stepOpponentMove, e.stepDelay())
}

func (e *VsCom) opponentMove() {
	safe := e.safeMoves()
	if len(safe) == 0 {
		e.lose(computerIdx, ReasonNoMoves)
		return
	}

	d := e.policy.ChooseMove(e.view(), safe)
	if !board.Contains(safe, d) {
		d = safe[e.rnd.Intn(len(safe))]
	}
	walk, err := e.board.MovePiece(computerIdx, d, e.dice, e.config.SafeEdgeRoll)
	if err != nil {
		e.lose(computerIdx, ReasonNoMoves)
		return
	}
	e.afterMove(computerIdx, walk)
	if walk.Fatal() {
		return
	}

	e.opponentPlacement = e.placementAfterMove()
	e.phase = PhasePlacement
	e.emitPhase("")
	e.schedule(stepOpponentPlace, e.stepDelay())
}

func (e *VsCom) opponentPlace() {
	legal := e.board.LegalPlacements(e.position(computerIdx), e.opponentPlacement)
	if len(legal) == 0 {
		e.lose(computerIdx, ReasonNoPlacements)
		return
	}

	d := e.policy.ChoosePlacement(e.view(), legal)
	if !board.Contains(legal, d) {
		d = legal[e.rnd.Intn(len(legal))]
	}
	if err := e.place(computerIdx, d); err != nil {
		e.lose(computerIdx, ReasonNoPlacements)
		return
	}
	e.endTurn()
}
