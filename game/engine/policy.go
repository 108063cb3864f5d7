package engine

import (
	"github.com/wricardo/nine-nine/game/board"
)

// OpponentView is the read-only state handed to a Policy
type OpponentView struct {
	Board *board.Board
	Mover int
	Dice  int
	Turn  int
}

// Position of the moving piece
func (v OpponentView) Position() board.Position {
	return v.Board.Pieces[v.Mover]
}

// Opponent returns the position of the other piece
func (v OpponentView) Opponent() board.Position {
	return v.Board.Pieces[1-v.Mover]
}

// Policy makes the scripted opponent's decisions. ChooseMove and
// ChoosePlacement are only called with a non-empty option list; a returned
// direction outside the list is replaced by a random legal one.
type Policy interface {
	ChooseFiveOption(view OpponentView) FiveOption
	ChooseMove(view OpponentView, options []board.Direction) board.Direction
	ChoosePlacement(view OpponentView, options []board.Direction) board.Direction
}

// RandomPolicy picks uniformly among legal choices
type RandomPolicy struct {
	rnd Rand
}

// NewRandomPolicy creates a uniform-random policy
func NewRandomPolicy(rnd Rand) *RandomPolicy {
	return &RandomPolicy{rnd: rnd}
}

func (p *RandomPolicy) ChooseFiveOption(view OpponentView) FiveOption {
	if p.rnd.Intn(2) == 0 {
		return FiveMove
	}
	return FivePlace
}

func (p *RandomPolicy) ChooseMove(view OpponentView, options []board.Direction) board.Direction {
	return options[p.rnd.Intn(len(options))]
}

func (p *RandomPolicy) ChoosePlacement(view OpponentView, options []board.Direction) board.Direction {
	return options[p.rnd.Intn(len(options))]
}

// SafeMoves returns the orthogonal directions in which the mover can start a
// walk of `dice` steps without falling off the board.
func SafeMoves(b *board.Board, mover, dice, safeEdgeRoll int) []board.Direction {
	safe := make([]board.Direction, 0, len(board.Orthogonal))
	for _, d := range board.Orthogonal {
		walk, err := b.Simulate(mover, d, dice, safeEdgeRoll)
		if err != nil || walk.Fatal() {
			continue
		}
		safe = append(safe, d)
	}
	return safe
}
