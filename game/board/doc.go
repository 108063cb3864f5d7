// Package board models the 9x9 grid shared by both game variants.
//
// A Board holds exactly two live pieces and an append-only list of
// obstacles. The package answers two questions for the rule engines:
//
//   - Legality: can a piece take its first step in a direction
//     (CanMoveOneStep), and can an obstacle go on an adjacent cell
//     (CanPlaceObstacle). Both have list and any-of forms.
//   - Movement: how does a multi-step move resolve (Simulate, MovePiece).
//     Obstacles and the other piece stop a walk early, leaving the board
//     is a fall, and a configurable roll value holds the piece at the edge
//     instead.
//
// Coordinates are screen oriented: x grows to the right, y grows down, so
// "up" decreases y.
//
// Usage:
//
//	b := board.New(board.Position{X: 4, Y: 8}, board.Position{X: 4, Y: 0})
//	walk, err := b.MovePiece(0, board.Up, 3, 4)
//	if err != nil {
//		// first step blocked
//	}
//	if walk.Fatal() {
//		// piece fell off the board
//	}
package board
