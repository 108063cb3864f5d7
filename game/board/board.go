package board

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the width and height of the grid
const Size = 9

var (
	ErrUnknownDirection = errors.New("unknown direction")
	ErrBlocked          = errors.New("first step is blocked")
	ErrOffBoard         = errors.New("target cell is off the board")
	ErrOccupied         = errors.New("target cell is occupied")
)

// Position represents x,y coordinates on the grid
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// OnBoard reports whether the position lies inside the grid
func (p Position) OnBoard() bool {
	return p.X >= 0 && p.X < Size && p.Y >= 0 && p.Y < Size
}

// Step returns the neighbouring position in direction d
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the eight compass directions, named by screen orientation
type Direction string

const (
	Up        Direction = "up"
	Down      Direction = "down"
	Left      Direction = "left"
	Right     Direction = "right"
	UpLeft    Direction = "up-left"
	UpRight   Direction = "up-right"
	DownLeft  Direction = "down-left"
	DownRight Direction = "down-right"
)

// Orthogonal lists the four movement directions in a stable order
var Orthogonal = []Direction{Up, Down, Left, Right}

// AllDirections lists the orthogonal directions followed by the diagonals
var AllDirections = []Direction{Up, Down, Left, Right, UpLeft, UpRight, DownLeft, DownRight}

// Delta returns the x and y offsets of one step. Unknown directions return 0,0.
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case UpLeft:
		return -1, -1
	case UpRight:
		return 1, -1
	case DownLeft:
		return -1, 1
	case DownRight:
		return 1, 1
	}
	return 0, 0
}

// IsOrthogonal reports whether d is one of up, down, left, right
func (d Direction) IsOrthogonal() bool {
	return d == Up || d == Down || d == Left || d == Right
}

// ParseDirection accepts direction names case-insensitively, including the
// short forms u/d/l/r and diagonal spellings with '_' or without separator.
func ParseDirection(s string) (Direction, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "u", "up":
		return Up, nil
	case "d", "down":
		return Down, nil
	case "l", "left":
		return Left, nil
	case "r", "right":
		return Right, nil
	case "ul", "upleft", "up-left":
		return UpLeft, nil
	case "ur", "upright", "up-right":
		return UpRight, nil
	case "dl", "downleft", "down-left":
		return DownLeft, nil
	case "dr", "downright", "down-right":
		return DownRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Contains reports whether d is in dirs
func Contains(dirs []Direction, d Direction) bool {
	for _, candidate := range dirs {
		if candidate == d {
			return true
		}
	}
	return false
}

// Board holds the two live pieces and the obstacles placed so far.
// Obstacles are append-only during a match.
type Board struct {
	Pieces    [2]Position `json:"pieces"`
	Obstacles []Position  `json:"obstacles"`
}

// New creates an empty board with the two pieces on their start cells
func New(first, second Position) *Board {
	return &Board{
		Pieces:    [2]Position{first, second},
		Obstacles: []Position{},
	}
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	obstacles := make([]Position, len(b.Obstacles))
	copy(obstacles, b.Obstacles)
	return &Board{Pieces: b.Pieces, Obstacles: obstacles}
}

// HasObstacle reports whether an obstacle sits on p
func (b *Board) HasObstacle(p Position) bool {
	for _, o := range b.Obstacles {
		if o == p {
			return true
		}
	}
	return false
}

// HasPiece reports whether either live piece sits on p
func (b *Board) HasPiece(p Position) bool {
	return b.Pieces[0] == p || b.Pieces[1] == p
}

// Occupied reports whether p holds an obstacle or a live piece
func (b *Board) Occupied(p Position) bool {
	return b.HasObstacle(p) || b.HasPiece(p)
}

// CanMoveOneStep reports whether the first step from `from` in direction d is
// free of obstacles and pieces. Leaving the board is not treated as illegal
// here; falling off is resolved by Walk.
func (b *Board) CanMoveOneStep(from Position, d Direction) bool {
	return !b.Occupied(from.Step(d))
}

// CanPlaceObstacle reports whether an obstacle may be placed on the cell
// adjacent to `from` in direction d.
func (b *Board) CanPlaceObstacle(d Direction, from Position) bool {
	target := from.Step(d)
	return target.OnBoard() && !b.Occupied(target)
}

// LegalMoves filters dirs down to those whose first step passes CanMoveOneStep
func (b *Board) LegalMoves(from Position, dirs []Direction) []Direction {
	legal := make([]Direction, 0, len(dirs))
	for _, d := range dirs {
		if b.CanMoveOneStep(from, d) {
			legal = append(legal, d)
		}
	}
	return legal
}

// AnyLegalMove reports whether at least one of dirs passes CanMoveOneStep
func (b *Board) AnyLegalMove(from Position, dirs []Direction) bool {
	for _, d := range dirs {
		if b.CanMoveOneStep(from, d) {
			return true
		}
	}
	return false
}

// LegalPlacements filters dirs down to those passing CanPlaceObstacle
func (b *Board) LegalPlacements(from Position, dirs []Direction) []Direction {
	legal := make([]Direction, 0, len(dirs))
	for _, d := range dirs {
		if b.CanPlaceObstacle(d, from) {
			legal = append(legal, d)
		}
	}
	return legal
}

// AnyLegalPlacement reports whether at least one of dirs passes CanPlaceObstacle
func (b *Board) AnyLegalPlacement(from Position, dirs []Direction) bool {
	for _, d := range dirs {
		if b.CanPlaceObstacle(d, from) {
			return true
		}
	}
	return false
}

// PlaceObstacle puts an obstacle next to `from` in direction d
func (b *Board) PlaceObstacle(from Position, d Direction) (Position, error) {
	target := from.Step(d)
	if !target.OnBoard() {
		return target, fmt.Errorf("place %s from %s: %w", d, from, ErrOffBoard)
	}
	if b.Occupied(target) {
		return target, fmt.Errorf("place %s from %s: %w", d, from, ErrOccupied)
	}
	b.Obstacles = append(b.Obstacles, target)
	return target, nil
}
