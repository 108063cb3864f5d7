package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovePiece_Completed(t *testing.T) {
	b := New(Position{X: 4, Y: 8}, Position{X: 4, Y: 0})

	walk, err := b.MovePiece(0, Up, 3, 4)
	require.NoError(t, err)

	assert.Equal(t, Completed, walk.Outcome)
	assert.Equal(t, Position{X: 4, Y: 5}, walk.To)
	assert.Equal(t, 3, walk.Steps)
	assert.Equal(t, []Position{{X: 4, Y: 7}, {X: 4, Y: 6}, {X: 4, Y: 5}}, walk.Path)
	assert.Equal(t, Position{X: 4, Y: 5}, b.Pieces[0])
	assert.False(t, walk.Fatal())
}

func TestMovePiece_EdgeBehaviour(t *testing.T) {
	tests := []struct {
		name         string
		steps        int
		safeEdgeRoll int
		outcome      WalkOutcome
		to           Position
	}{
		{"fall with two", 2, 4, Fell, Position{X: 0, Y: 0}},
		{"held with four", 4, 4, HeldAtEdge, Position{X: 0, Y: 0}},
		{"fall with five", 5, 4, Fell, Position{X: 0, Y: 0}},
		{"no exemption", 4, 0, Fell, Position{X: 0, Y: 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := New(Position{X: 0, Y: 0}, Position{X: 8, Y: 8})
			walk, err := b.MovePiece(0, Up, test.steps, test.safeEdgeRoll)
			require.NoError(t, err)
			assert.Equal(t, test.outcome, walk.Outcome)
			assert.Equal(t, test.to, walk.To)
			assert.Equal(t, test.outcome == Fell, walk.Fatal())
		})
	}
}

func TestMovePiece_HeldAfterPartialWalk(t *testing.T) {
	b := New(Position{X: 2, Y: 4}, Position{X: 8, Y: 8})

	walk, err := b.MovePiece(0, Left, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, HeldAtEdge, walk.Outcome)
	assert.Equal(t, Position{X: 0, Y: 4}, b.Pieces[0])
	assert.Equal(t, 2, walk.Steps)
}

func TestMovePiece_StopsBeforeObstacleAndPiece(t *testing.T) {
	b := New(Position{X: 4, Y: 8}, Position{X: 4, Y: 3})
	b.Obstacles = append(b.Obstacles, Position{X: 1, Y: 4})

	walk, err := b.MovePiece(0, Up, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, Blocked, walk.Outcome)
	assert.Equal(t, Position{X: 4, Y: 4}, walk.To)
	assert.Equal(t, 4, walk.Steps)

	walk, err = b.MovePiece(0, Left, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, Blocked, walk.Outcome)
	assert.Equal(t, Position{X: 2, Y: 4}, walk.To)
}

func TestMovePiece_FirstStepBlocked(t *testing.T) {
	b := New(Position{X: 4, Y: 4}, Position{X: 4, Y: 3})

	_, err := b.MovePiece(0, Up, 2, 4)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, Position{X: 4, Y: 4}, b.Pieces[0])
}

func TestSimulate_DoesNotMutate(t *testing.T) {
	b := New(Position{X: 4, Y: 4}, Position{X: 0, Y: 0})

	walk, err := b.Simulate(0, Right, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 7, Y: 4}, walk.To)
	assert.Equal(t, Position{X: 4, Y: 4}, b.Pieces[0])
}

func TestSimulate_InvalidInput(t *testing.T) {
	b := New(Position{X: 4, Y: 4}, Position{X: 0, Y: 0})

	_, err := b.Simulate(0, Direction("sideways"), 1, 0)
	assert.ErrorIs(t, err, ErrUnknownDirection)

	_, err = b.Simulate(2, Up, 1, 0)
	assert.Error(t, err)
}

func TestMovePiece_NeverEndsOnOccupiedOrOffBoard(t *testing.T) {
	b := New(Position{X: 4, Y: 4}, Position{X: 6, Y: 4})
	b.Obstacles = append(b.Obstacles, Position{X: 4, Y: 1}, Position{X: 2, Y: 4})

	for _, d := range Orthogonal {
		for steps := 1; steps <= 5; steps++ {
			c := b.Clone()
			walk, err := c.MovePiece(0, d, steps, 4)
			if err != nil {
				continue
			}
			assert.True(t, walk.To.OnBoard(), "%s x%d ended off board", d, steps)
			assert.False(t, c.HasObstacle(walk.To), "%s x%d ended on obstacle", d, steps)
			assert.NotEqual(t, c.Pieces[1], walk.To, "%s x%d ended on opponent", d, steps)
		}
	}
}
