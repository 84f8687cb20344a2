package game

import "errors"

var (
	// ErrMalformedMoveSet means a move-set does not hold exactly one move for
	// every alive snake.
	ErrMalformedMoveSet = errors.New("malformed move set")

	// ErrInvariantViolation means a state is not a valid board (empty body,
	// duplicate ids, health out of range, bad dimensions).
	ErrInvariantViolation = errors.New("invariant violation")
)
