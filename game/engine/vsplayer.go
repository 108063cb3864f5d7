package engine

import (
	"fmt"

	"github.com/wricardo/nine-nine/game/board"
)

// VsPlayer is the engine for two humans. Each player earns points at the
// start of a turn and at constrained decisions, and spends them on skills
// that adjust dice values.
type VsPlayer struct {
	match

	points   [2]int
	nextDice [2]int

	// zodiac selections survive resets
	zodiac [2]string
}

func newVsPlayer(config *GameConfig, o options) *VsPlayer {
	e := &VsPlayer{match: newMatch(config, o)}
	e.restart = e.startMatch
	return e
}

func (e *VsPlayer) Mode() Mode { return ModeVsPlayer }
func (e *VsPlayer) Config() *GameConfig { return e.config }
func (e *VsPlayer) Sides() [2]Side { return e.sides }
func (e *VsPlayer) History() []HistoryEntry { return e.historyCopy() }
func (e *VsPlayer) Close() {}

func (e *VsPlayer) Snapshot() Snapshot {
	s := e.baseSnapshot()
	s.Points = map[Side]int{e.sides[0]: e.points[0], e.sides[1]: e.points[1]}
	s.NextDice = map[Side]int{e.sides[0]: e.nextDice[0], e.sides[1]: e.nextDice[1]}
	s.Zodiac = map[Side]string{}
	for i, z := range e.zodiac {
		if z != "" {
			s.Zodiac[e.sides[i]] = z
		}
	}
	return s
}

// Start begins the first match
func (e *VsPlayer) Start() Result {
	e.startMatch()
	return e.collect(e.Snapshot())
}

// Reset abandons the current match and starts a new one. Points and
// positions are reinitialised; zodiac selections are kept.
func (e *VsPlayer) Reset() Result {
	e.reset()
	return e.collect(e.Snapshot())
}

func (e *VsPlayer) startMatch() {
	e.begin(e.firstMover())
	e.points = [2]int{}
	e.nextDice = [2]int{e.rollDice(), e.rollDice()}
	e.emitBoard(e.config.Messages.Welcome)
	if e.config.TimeLimitSeconds > 0 {
		e.emitTimer()
	}
	e.emitNextDice()
	e.beginTurn()
}

func (e *VsPlayer) beginTurn() {
	e.phase = PhaseAwaitingRoll
	e.dice = 0
	e.enabled = nil
	e.emitTurn()
	e.award(e.active, e.config.TurnBonus)
	e.emitPhase("Roll the dice")
}

func (e *VsPlayer) endTurn() {
	e.turn++
	e.active = 1 - e.active
	e.beginTurn()
}

func (e *VsPlayer) award(idx, amount int) {
	if amount <= 0 {
		return
	}
	e.points[idx] += amount
	e.emit(Event{Type: EventPointDelta, Side: e.sides[idx], Delta: amount, Points: e.points[idx]})
}

// awardChoice pays the bonus for a decision with the given number of options
func (e *VsPlayer) awardChoice(idx, options int) {
	e.award(idx, e.config.ChoiceBonus[options])
}

func (e *VsPlayer) emitNextDice() {
	e.emit(Event{
		Type:     EventNextDice,
		NextDice: map[Side]int{e.sides[0]: e.nextDice[0], e.sides[1]: e.nextDice[1]},
	})
}

// RequestRoll consumes the player's pending dice value and draws the next one
func (e *VsPlayer) RequestRoll(side Side) (Result, error) {
	idx, err := e.checkTurn(side, PhaseAwaitingRoll)
	if err != nil {
		return Result{}, err
	}

	e.dice = e.nextDice[idx]
	e.nextDice[idx] = e.rollDice()
	e.emit(Event{Type: EventDiceResult, Side: side, Dice: e.dice})
	e.emitNextDice()
	e.record(HistoryEntry{Side: side, Action: "roll", Dice: e.dice})

	e.promptMove(idx)
	return e.collect(e.Snapshot()), nil
}

// moveOptions lists directions whose first step stays on the board and is free
func (e *VsPlayer) moveOptions(idx int) []board.Direction {
	from := e.position(idx)
	options := make([]board.Direction, 0, len(board.Orthogonal))
	for _, d := range board.Orthogonal {
		if from.Step(d).OnBoard() && e.board.CanMoveOneStep(from, d) {
			options = append(options, d)
		}
	}
	return options
}

func (e *VsPlayer) promptMove(idx int) {
	options := e.moveOptions(idx)
	e.awardChoice(idx, len(options))
	if len(options) == 0 {
		e.lose(idx, ReasonNoMoves)
		return
	}
	e.prompt(PhaseMovement, options)
}

func (e *VsPlayer) promptPlacement(idx int) {
	options := e.board.LegalPlacements(e.position(idx), e.placementAfterMove())
	e.awardChoice(idx, len(options))
	if len(options) == 0 {
		if e.config.PlacementStalemate == StalematePass {
			e.record(HistoryEntry{Side: e.sides[idx], Action: "pass", Detail: string(ReasonNoPlacements)})
			e.endTurn()
			return
		}
		e.lose(idx, ReasonNoPlacements)
		return
	}
	e.prompt(PhasePlacement, options)
}

// SelectDirection moves the active player's piece or places an obstacle,
// depending on the phase.
func (e *VsPlayer) SelectDirection(side Side, d board.Direction) (Result, error) {
	idx, err := e.checkTurn(side, "")
	if err != nil {
		return Result{}, err
	}

	switch e.phase {
	case PhaseMovement:
		if !board.Contains(e.enabled, d) {
			return Result{}, fmt.Errorf("%w: %s is not available", ErrIllegalMove, d)
		}
		walk, err := e.board.MovePiece(idx, d, e.dice, 0)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
		e.recordMove(idx, walk)
		e.emitBoard("")
		if walk.Fatal() {
			e.lose(idx, ReasonFell)
			break
		}
		e.promptPlacement(idx)

	case PhasePlacement:
		if !board.Contains(e.enabled, d) {
			return Result{}, fmt.Errorf("%w: %s is not available", ErrIllegalPlacement, d)
		}
		at, err := e.board.PlaceObstacle(e.position(idx), d)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIllegalPlacement, err)
		}
		e.recordPlacement(idx, d, at)
		e.emitBoard("")
		e.emit(Event{Type: EventPlacementSound, Side: side, Position: &at})
		e.endTurn()

	default:
		return Result{}, fmt.Errorf("%w: no direction expected during %s", ErrWrongPhase, e.phase)
	}
	return e.collect(e.Snapshot()), nil
}

// ActivateSkill spends points on a skill. Skills are only usable on the
// player's own turn.
func (e *VsPlayer) ActivateSkill(side Side, skill Skill) (Result, error) {
	idx, err := e.checkTurn(side, "")
	if err != nil {
		return Result{}, err
	}

	cost := e.config.SkillCost
	var zodiac ZodiacSkill

	switch skill {
	case SkillDiceUp:
	case SkillDiceDown:
		if e.nextDice[idx] <= 1 {
			return Result{}, fmt.Errorf("%w: next dice is already %d", ErrSkillUnavailable, e.nextDice[idx])
		}
	case SkillZodiac:
		if e.zodiac[idx] == "" {
			return Result{}, fmt.Errorf("%w: no zodiac selected", ErrSkillUnavailable)
		}
		if e.phase != PhaseMovement && e.phase != PhaseAwaitingRoll {
			return Result{}, fmt.Errorf("%w: zodiac skills apply before rolling or while moving", ErrWrongPhase)
		}
		zodiac, _ = LookupZodiac(e.zodiac[idx])
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}

	if e.points[idx] < cost {
		return Result{}, fmt.Errorf("%w: %s costs %d, %s has %d", ErrInsufficientPoints, skill, cost, side, e.points[idx])
	}

	e.points[idx] -= cost
	e.emit(Event{Type: EventSkillUsed, Side: side, Skill: skill, Points: e.points[idx]})
	if cost > 0 {
		e.emit(Event{Type: EventPointDelta, Side: side, Delta: -cost, Points: e.points[idx]})
	}

	switch skill {
	case SkillDiceUp:
		e.nextDice[idx]++
		e.emitNextDice()
	case SkillDiceDown:
		e.nextDice[idx]--
		e.emitNextDice()
	case SkillZodiac:
		if e.phase == PhaseMovement {
			e.dice = zodiac.DiceValue
			e.emit(Event{Type: EventDiceResult, Side: side, Dice: e.dice})
		} else {
			e.nextDice[idx] = zodiac.DiceValue
			e.emitNextDice()
		}
	}

	e.record(HistoryEntry{Side: side, Action: "skill", Detail: string(skill), Dice: e.dice})
	return e.collect(e.Snapshot()), nil
}

// SelectZodiac chooses the zodiac skill used by SkillZodiac. Either player
// may change their selection at any time.
func (e *VsPlayer) SelectZodiac(side Side, name string) (Result, error) {
	idx, err := e.sideIndex(side)
	if err != nil {
		return Result{}, err
	}
	zodiac, ok := LookupZodiac(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: zodiac %q", ErrUnknownSkill, name)
	}

	e.zodiac[idx] = zodiac.Name
	e.record(HistoryEntry{Side: side, Action: "select_zodiac", Detail: zodiac.Name})
	return e.collect(e.Snapshot()), nil
}

func (e *VsPlayer) SelectFiveOption(side Side, option FiveOption) (Result, error) {
	return Result{}, fmt.Errorf("%w: five-choice rolls", ErrUnsupported)
}

// Advance has nothing to run: this engine never schedules continuations
func (e *VsPlayer) Advance(token uint64) (Result, error) {
	return Result{}, fmt.Errorf("%w: token %d", ErrStaleContinuation, token)
}

// Tick advances the optional countdown by one second
func (e *VsPlayer) Tick() Result {
	e.tick()
	return e.collect(e.Snapshot())
}
