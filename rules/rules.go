// Package rules implements the simultaneous-move turn transition.
//
// A turn is always resolved in the same order: every snake moves, food is
// eaten, then eliminations are decided against a single snapshot of the fed
// board. Nothing in a turn depends on the order snakes or food are stored in.
package rules

import (
	"fmt"

	"github.com/brensch/snekperft/game"
)

// Cause names why a snake was eliminated.
type Cause string

const (
	CauseWallCollision       Cause = "wall-collision"
	CauseStarvation          Cause = "starvation"
	CauseSelfCollision       Cause = "self-collision"
	CauseSnakeCollision      Cause = "snake-collision"
	CauseHeadToHeadCollision Cause = "head-collision"
)

// Elimination records one snake removed during a turn.
type Elimination struct {
	ID    string
	Cause Cause
	// By is the other snake involved in a snake or head collision.
	By string
}

// GameOver reports whether the viewpoint snake is gone or at most one snake
// is left.
func GameOver(req *game.Request) bool {
	if _, ok := req.You(); !ok {
		return true
	}
	return len(req.Board.Snakes) <= 1
}

// Step applies one move per alive snake and returns the next request.
// The input request is never modified.
func Step(req *game.Request, moves game.MoveSet) (*game.Request, error) {
	next, _, err := StepDetailed(req, moves)
	return next, err
}

// StepDetailed is Step plus the list of snakes eliminated this turn, in
// board order.
func StepDetailed(req *game.Request, moves game.MoveSet) (*game.Request, []Elimination, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	dirs, err := indexMoves(&req.Board, moves)
	if err != nil {
		return nil, nil, err
	}

	next := req.Clone()
	next.Turn++
	board := &next.Board

	// 1. Movement. Each snake only reads its own body.
	for i := range board.Snakes {
		s := &board.Snakes[i]
		if err := s.Move(dirs[s.ID]); err != nil {
			return nil, nil, err
		}
	}

	// 2. Feeding.
	feed(board)

	// 3. Elimination against the fed snapshot.
	eliminated := Eliminate(board.Snakes, board.Width, board.Height)

	// 4. Commit survivors in their original order.
	if len(eliminated) > 0 {
		dead := make(map[string]struct{}, len(eliminated))
		for _, e := range eliminated {
			dead[e.ID] = struct{}{}
		}
		survivors := make([]game.Snake, 0, len(board.Snakes)-len(eliminated))
		for _, s := range board.Snakes {
			if _, ok := dead[s.ID]; ok {
				continue
			}
			survivors = append(survivors, s)
		}
		board.Snakes = survivors
	}

	return next, eliminated, nil
}

// indexMoves maps every alive snake to its direction, rejecting move-sets
// that miss, repeat or invent a snake.
func indexMoves(board *game.Board, moves game.MoveSet) (map[string]game.Direction, error) {
	dirs := make(map[string]game.Direction, len(moves))
	for _, m := range moves {
		if _, ok := board.Snake(m.ID); !ok {
			return nil, fmt.Errorf("move for unknown snake %q: %w", m.ID, game.ErrMalformedMoveSet)
		}
		if _, dup := dirs[m.ID]; dup {
			return nil, fmt.Errorf("duplicate move for snake %q: %w", m.ID, game.ErrMalformedMoveSet)
		}
		dirs[m.ID] = m.Direction
	}
	for i := range board.Snakes {
		if _, ok := dirs[board.Snakes[i].ID]; !ok {
			return nil, fmt.Errorf("no move for snake %q: %w", board.Snakes[i].ID, game.ErrMalformedMoveSet)
		}
	}
	return dirs, nil
}

// feed lets every snake whose head is on a food item eat it. Several snakes
// can share one item; each of them grows. Eaten items are removed and the
// rest keep their order.
func feed(board *game.Board) {
	if len(board.Food) == 0 {
		return
	}
	remaining := make([]game.Point, 0, len(board.Food))
	for _, f := range board.Food {
		eaten := false
		for i := range board.Snakes {
			if board.Snakes[i].Head() == f {
				board.Snakes[i].Feed()
				eaten = true
			}
		}
		if !eaten {
			remaining = append(remaining, f)
		}
	}
	board.Food = remaining
}

// Eliminate decides which snakes die, evaluating every predicate against
// snakes exactly as passed in. The slice is only read, so the result is the
// same for any ordering of snakes.
func Eliminate(snakes []game.Snake, width, height int32) []Elimination {
	var out []Elimination
	for i := range snakes {
		if e, dead := eliminationOf(snakes, i, width, height); dead {
			out = append(out, e)
		}
	}
	return out
}

func eliminationOf(snakes []game.Snake, i int, width, height int32) (Elimination, bool) {
	s := &snakes[i]
	switch {
	case s.OutOfBounds(width, height):
		return Elimination{ID: s.ID, Cause: CauseWallCollision}, true
	case s.Health <= 0:
		return Elimination{ID: s.ID, Cause: CauseStarvation}, true
	case game.BodyCollision(s, s):
		return Elimination{ID: s.ID, Cause: CauseSelfCollision}, true
	}

	for j := range snakes {
		if i == j {
			continue
		}
		if game.BodyCollision(s, &snakes[j]) {
			return Elimination{ID: s.ID, Cause: CauseSnakeCollision, By: snakes[j].ID}, true
		}
	}
	for j := range snakes {
		if i == j {
			continue
		}
		if game.LostHeadToHead(s, &snakes[j]) {
			return Elimination{ID: s.ID, Cause: CauseHeadToHeadCollision, By: snakes[j].ID}, true
		}
	}
	return Elimination{}, false
}
