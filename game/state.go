// Package game defines the core state types for a simultaneous-move
// Battlesnake board.
//
// These types hold exactly what the rules need. A Request is designed to be
// cheaply and deeply clonable so every search branch can own its copy.
package game

import "fmt"

// Board holds the alive snakes and the food on a Width x Height grid.
type Board struct {
	Width  int32
	Height int32
	Food   []Point
	Snakes []Snake
}

// Request is a board seen from one snake (YouID) at a given turn.
// The viewpoint snake is looked up by id, so after a transition it is either
// the refreshed survivor or absent.
type Request struct {
	Turn  int32
	Board Board
	YouID string
}

// Move assigns a direction to one snake.
type Move struct {
	ID        string
	Direction Direction
}

func (m Move) String() string {
	return m.ID + "=" + m.Direction.String()
}

// MoveSet holds one move per alive snake.
type MoveSet []Move

// Snake returns the alive snake with the given id.
func (b *Board) Snake(id string) (*Snake, bool) {
	for i := range b.Snakes {
		if b.Snakes[i].ID == id {
			return &b.Snakes[i], true
		}
	}
	return nil, false
}

// You returns the viewpoint snake, or false once it has been eliminated.
func (r *Request) You() (*Snake, bool) {
	return r.Board.Snake(r.YouID)
}

// Clone performs a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}

	out := &Request{
		Turn:  r.Turn,
		YouID: r.YouID,
		Board: Board{Width: r.Board.Width, Height: r.Board.Height},
	}

	if len(r.Board.Food) > 0 {
		out.Board.Food = make([]Point, len(r.Board.Food))
		copy(out.Board.Food, r.Board.Food)
	}

	if len(r.Board.Snakes) > 0 {
		out.Board.Snakes = make([]Snake, len(r.Board.Snakes))
		for i := range r.Board.Snakes {
			out.Board.Snakes[i] = r.Board.Snakes[i].Clone()
		}
	}

	return out
}

// Validate checks the board invariants the rules rely on.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("nil request: %w", ErrInvariantViolation)
	}
	if r.Board.Width <= 0 || r.Board.Height <= 0 {
		return fmt.Errorf("board %dx%d: %w", r.Board.Width, r.Board.Height, ErrInvariantViolation)
	}
	if r.Turn < 0 {
		return fmt.Errorf("turn %d: %w", r.Turn, ErrInvariantViolation)
	}
	seen := make(map[string]struct{}, len(r.Board.Snakes))
	for i := range r.Board.Snakes {
		s := &r.Board.Snakes[i]
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate snake id %q: %w", s.ID, ErrInvariantViolation)
		}
		seen[s.ID] = struct{}{}
		if len(s.Body) == 0 {
			return fmt.Errorf("snake %q has an empty body: %w", s.ID, ErrInvariantViolation)
		}
		if s.Health < 0 || s.Health > MaxHealth {
			return fmt.Errorf("snake %q health %d: %w", s.ID, s.Health, ErrInvariantViolation)
		}
	}
	return nil
}
