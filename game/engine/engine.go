package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/nine-nine/game/board"
)

// Engine provides the main interface for match operations. Every transition
// returns a Result; rejected requests return an error and change nothing.
type Engine interface {
	Mode() Mode
	Config() *GameConfig
	Sides() [2]Side

	// State
	Snapshot() Snapshot
	History() []HistoryEntry

	// Lifecycle
	Start() Result
	Reset() Result

	// Player input
	RequestRoll(side Side) (Result, error)
	SelectDirection(side Side, d board.Direction) (Result, error)
	SelectFiveOption(side Side, option FiveOption) (Result, error)
	ActivateSkill(side Side, skill Skill) (Result, error)
	SelectZodiac(side Side, zodiac string) (Result, error)

	// Scheduling
	Advance(token uint64) (Result, error)
	Tick() Result

	Close()
}

type options struct {
	rnd    Rand
	now    func() time.Time
	policy Policy
}

// Option customises an engine
type Option func(*options)

// WithRand sets the source of dice rolls and random choices
func WithRand(rnd Rand) Option {
	return func(o *options) { o.rnd = rnd }
}

// WithClock sets the clock used for event and history timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPolicy overrides the scripted opponent's decision policy
func WithPolicy(policy Policy) Option {
	return func(o *options) { o.policy = policy }
}

// NewEngine creates the engine for config.Mode. Call Start before sending input.
func NewEngine(config *GameConfig, opts ...Option) (Engine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	o := options{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	config = config.Clone()

	switch config.Mode {
	case ModeVsPlayer:
		return newVsPlayer(config, o), nil
	case ModeVsCom:
		e, err := newVsCom(config, o)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unsupported mode %q", config.Mode)
}

var (
	_ Engine = (*VsCom)(nil)
	_ Engine = (*VsPlayer)(nil)
)
