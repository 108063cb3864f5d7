package board

import "fmt"

// WalkOutcome describes how a multi-step move ended
type WalkOutcome string

const (
	// Completed means every step was taken
	Completed WalkOutcome = "completed"
	// Blocked means an obstacle or the other piece stopped the walk early
	Blocked WalkOutcome = "blocked"
	// HeldAtEdge means the edge exemption kept the piece on its last on-board cell
	HeldAtEdge WalkOutcome = "held_at_edge"
	// Fell means the piece left the board
	Fell WalkOutcome = "fell"
)

// Walk is the resolved path of a move
type Walk struct {
	Piece     int         `json:"piece"`
	Direction Direction   `json:"direction"`
	From      Position    `json:"from"`
	To        Position    `json:"to"`
	Path      []Position  `json:"path"`
	Steps     int         `json:"steps"`
	Requested int         `json:"requested"`
	Outcome   WalkOutcome `json:"outcome"`
}

// Fatal reports whether the walk ends the mover's match
func (w Walk) Fatal() bool {
	return w.Outcome == Fell
}

// Simulate resolves a walk for piece (0 or 1) without mutating the board.
//
// The piece advances one cell at a time. A cell holding an obstacle or the
// other piece stops the walk before it. Leaving the board is a fall unless
// steps equals safeEdgeRoll (and safeEdgeRoll is positive), in which case the
// piece stays on its last on-board cell. A walk whose first step is blocked
// is rejected with ErrBlocked.
func (b *Board) Simulate(piece int, d Direction, steps, safeEdgeRoll int) (Walk, error) {
	if _, err := ParseDirection(string(d)); err != nil {
		return Walk{}, err
	}
	if piece < 0 || piece > 1 {
		return Walk{}, fmt.Errorf("piece index %d out of range", piece)
	}

	from := b.Pieces[piece]
	if !b.CanMoveOneStep(from, d) {
		return Walk{}, fmt.Errorf("move %s from %s: %w", d, from, ErrBlocked)
	}

	walk := Walk{
		Piece:     piece,
		Direction: d,
		From:      from,
		To:        from,
		Path:      []Position{},
		Requested: steps,
		Outcome:   Completed,
	}

	current := from
	for i := 0; i < steps; i++ {
		next := current.Step(d)
		if !next.OnBoard() {
			if safeEdgeRoll > 0 && steps == safeEdgeRoll {
				walk.Outcome = HeldAtEdge
			} else {
				walk.Outcome = Fell
			}
			break
		}
		if b.Occupied(next) {
			walk.Outcome = Blocked
			break
		}
		current = next
		walk.Path = append(walk.Path, current)
		walk.Steps++
	}
	walk.To = current

	return walk, nil
}

// MovePiece resolves the walk and applies it. A piece that falls is left on
// its last on-board cell; the caller decides what the fall means.
func (b *Board) MovePiece(piece int, d Direction, steps, safeEdgeRoll int) (Walk, error) {
	walk, err := b.Simulate(piece, d, steps, safeEdgeRoll)
	if err != nil {
		return walk, err
	}
	b.Pieces[piece] = walk.To
	return walk, nil
}
