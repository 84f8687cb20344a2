// Package movegen enumerates candidate moves and full move-sets.
//
// Candidates are never filtered: reversing into the neck or leaving the board
// are generated like any other move, so every rule in the transition gets
// exercised under maximal branching.
package movegen

import (
	"github.com/brensch/snekperft/cartprod"
	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/rules"
)

// Candidates returns the four moves available to a snake.
func Candidates(id string) []game.Move {
	moves := make([]game.Move, 0, len(game.Directions))
	for _, d := range game.Directions {
		moves = append(moves, game.Move{ID: id, Direction: d})
	}
	return moves
}

// Viewpoint returns the viewpoint snake's candidates, or nothing once the
// game is over.
func Viewpoint(req *game.Request) []game.Move {
	if rules.GameOver(req) {
		return nil
	}
	return Candidates(req.YouID)
}

// All returns every full move-set in which the viewpoint snake plays youMove.
// With N alive snakes there are 4^(N-1) of them; none once the game is over.
func All(req *game.Request, youMove game.Move) []game.MoveSet {
	if rules.GameOver(req) {
		return nil
	}
	lists := make([][]game.Move, 0, len(req.Board.Snakes))
	for i := range req.Board.Snakes {
		if id := req.Board.Snakes[i].ID; id != req.YouID {
			lists = append(lists, Candidates(id))
		}
	}
	lists = append(lists, []game.Move{youMove})

	combos := cartprod.Product(lists)
	sets := make([]game.MoveSet, len(combos))
	for i, c := range combos {
		sets[i] = game.MoveSet(c)
	}
	return sets
}
