// Package perft counts the leaves of the full simultaneous-move game tree.
//
// Each level of the tree is two plies: the viewpoint snake's move is fixed
// first, then every combination of the other snakes' moves is played. Only
// the second ply applies a turn and consumes depth. Nothing is pruned, so the
// count is a fingerprint of the move generator and transition rules.
package perft

import (
	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/movegen"
	"github.com/brensch/snekperft/rules"
)

// Split is the leaf count below one viewpoint move.
type Split struct {
	Move  game.Move
	Nodes uint64
}

// Perft returns the number of distinct depth-turn continuations of req.
// pending is the viewpoint move already fixed at this level, or nil.
// The first error aborts the whole count.
func Perft(req *game.Request, depth uint, pending *game.Move) (uint64, error) {
	if depth == 0 {
		return 1, nil
	}

	var sum uint64
	if pending == nil {
		for _, m := range movegen.Viewpoint(req) {
			n, err := Perft(req, depth, &m)
			if err != nil {
				return 0, err
			}
			sum += n
		}
		return sum, nil
	}

	for _, set := range movegen.All(req, *pending) {
		next, err := rules.Step(req, set)
		if err != nil {
			return 0, err
		}
		n, err := Perft(next, depth-1, nil)
		if err != nil {
			return 0, err
		}
		sum += n
	}
	return sum, nil
}

// Count validates req and returns Perft(req, depth, nil).
func Count(req *game.Request, depth uint) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	return Perft(req, depth, nil)
}

// Divide splits Count by the viewpoint's first move. For depth > 0 the splits
// sum to Count(req, depth); depth 0 and terminal requests have no splits.
func Divide(req *game.Request, depth uint) ([]Split, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if depth == 0 {
		return nil, nil
	}
	moves := movegen.Viewpoint(req)
	splits := make([]Split, 0, len(moves))
	for _, m := range moves {
		n, err := Perft(req, depth, &m)
		if err != nil {
			return nil, err
		}
		splits = append(splits, Split{Move: m, Nodes: n})
	}
	return splits, nil
}

// Total sums the splits.
func Total(splits []Split) uint64 {
	var sum uint64
	for _, s := range splits {
		sum += s.Nodes
	}
	return sum
}
