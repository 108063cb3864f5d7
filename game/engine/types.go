package engine

import (
	"time"

	"github.com/wricardo/nine-nine/game/board"
)

// Mode selects which rule engine a configuration drives
type Mode string

const (
	// ModeVsCom is one human against a scripted opponent
	ModeVsCom Mode = "vscom"
	// ModeVsPlayer is two humans sharing the board, with points and skills
	ModeVsPlayer Mode = "vsplayer"
)

// Side identifies a participant
type Side string

const (
	Human    Side = "human"
	Computer Side = "computer"
	Player1  Side = "player1"
	Player2  Side = "player2"
)

// Phase is the sub-step of the active participant's turn
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAwaitingRoll Phase = "awaiting_roll"
	PhaseFiveChoice   Phase = "five_choice"
	PhaseMovement     Phase = "movement"
	PhasePlacement    Phase = "placement"
)

// FiveOption is the branch chosen after rolling the five-choice value
type FiveOption string

const (
	// FiveMove moves the rolled distance and then places an obstacle
	FiveMove FiveOption = "move"
	// FivePlace skips movement and places an obstacle in any of eight directions
	FivePlace FiveOption = "place"
)

// Skill is a paid action available in vsplayer mode
type Skill string

const (
	SkillDiceUp   Skill = "dice_up"
	SkillDiceDown Skill = "dice_down"
	SkillZodiac   Skill = "zodiac"
)

// OutcomeReason explains why a match ended
type OutcomeReason string

const (
	ReasonFell         OutcomeReason = "fell"
	ReasonNoMoves      OutcomeReason = "no_moves"
	ReasonNoPlacements OutcomeReason = "no_placements"
	ReasonTimeout      OutcomeReason = "timeout"
)

// Outcome records the end of a match. On timeout Winner is empty and Loser
// is the side that was acting when the clock ran out.
type Outcome struct {
	MatchID string        `json:"match_id"`
	Winner  Side          `json:"winner,omitempty"`
	Loser   Side          `json:"loser,omitempty"`
	Reason  OutcomeReason `json:"reason"`
	Turn    int           `json:"turn"`
	Message string        `json:"message"`
}

// EventType names a presentation event
type EventType string

const (
	EventRenderBoard    EventType = "render_board"
	EventPlacementSound EventType = "placement_sound"
	EventTurnIndicator  EventType = "turn_indicator"
	EventTimer          EventType = "timer"
	EventDiceResult     EventType = "dice_result"
	EventNextDice       EventType = "next_dice"
	EventPhase          EventType = "phase"
	EventPointDelta     EventType = "point_delta"
	EventDirectionInput EventType = "direction_input"
	EventChoicePrompt   EventType = "choice_prompt"
	EventSkillUsed      EventType = "skill_used"
	EventOutcome        EventType = "outcome"
	EventReset          EventType = "reset"
)

// Event is an outbound notification for whatever presents the match.
// Only the fields relevant to Type are set.
type Event struct {
	Type       EventType         `json:"type"`
	Message    string            `json:"message,omitempty"`
	Side       Side              `json:"side,omitempty"`
	Turn       int               `json:"turn,omitempty"`
	Phase      Phase             `json:"phase,omitempty"`
	Dice       int               `json:"dice,omitempty"`
	Delta      int               `json:"delta,omitempty"`
	Points     int               `json:"points,omitempty"`
	Remaining  *int              `json:"remaining,omitempty"`
	Board      *board.Board      `json:"board,omitempty"`
	Position   *board.Position   `json:"position,omitempty"`
	Directions []board.Direction `json:"directions,omitempty"`
	Options    []FiveOption      `json:"options,omitempty"`
	Skill      Skill             `json:"skill,omitempty"`
	NextDice   map[Side]int      `json:"next_dice,omitempty"`
	Outcome    *Outcome          `json:"outcome,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Snapshot is a deep copy of an engine's observable state
type Snapshot struct {
	MatchID           string                  `json:"match_id"`
	Match             int                     `json:"match"`
	Mode              Mode                    `json:"mode"`
	ConfigName        string                  `json:"config_name"`
	Board             *board.Board            `json:"board"`
	Sides             [2]Side                 `json:"sides"`
	Positions         map[Side]board.Position `json:"positions"`
	Active            Side                    `json:"active"`
	Turn              int                     `json:"turn"`
	Phase             Phase                   `json:"phase"`
	Dice              int                     `json:"dice"`
	TimeRemaining     int                     `json:"time_remaining,omitempty"`
	Points            map[Side]int            `json:"points,omitempty"`
	NextDice          map[Side]int            `json:"next_dice,omitempty"`
	Zodiac            map[Side]string         `json:"zodiac,omitempty"`
	EnabledDirections []board.Direction       `json:"enabled_directions"`
	Busy              bool                    `json:"busy"`
	LastOutcome       *Outcome                `json:"last_outcome,omitempty"`
}

// Continuation is a delayed engine step the caller must schedule. The token
// is passed back to Advance once Delay has elapsed.
type Continuation struct {
	Token uint64        `json:"token"`
	Delay time.Duration `json:"delay"`
	Step  string        `json:"step"`
}

// Result is returned by every state transition
type Result struct {
	State     Snapshot      `json:"state"`
	Events    []Event       `json:"events"`
	Next      *Continuation `json:"next,omitempty"`
	Restarted bool          `json:"restarted"`
}

// HistoryEntry is one recorded action. History is cumulative across resets.
type HistoryEntry struct {
	Number    int             `json:"number"`
	Match     int             `json:"match"`
	MatchID   string          `json:"match_id"`
	Turn      int             `json:"turn"`
	Side      Side            `json:"side,omitempty"`
	Action    string          `json:"action"`
	Dice      int             `json:"dice,omitempty"`
	Direction board.Direction `json:"direction,omitempty"`
	From      *board.Position `json:"from,omitempty"`
	To        *board.Position `json:"to,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Rand is the source of dice rolls and scripted choices
type Rand interface {
	Intn(n int) int
}
