package game

import (
	"fmt"
	"slices"
)

// MaxHealth is the health a snake is reset to when it eats.
const MaxHealth = 100

// Snake is one agent. Body is head-first; head and length are always read
// from it.
type Snake struct {
	ID     string
	Health int32
	Body   []Point
}

// Head returns the first body segment. It panics on an empty body, which
// Validate rejects before any rules run.
func (s *Snake) Head() Point {
	return s.Body[0]
}

func (s *Snake) Length() int {
	return len(s.Body)
}

// Move drops the tail, pushes a new head one step from the current head and
// costs one health.
func (s *Snake) Move(d Direction) error {
	if len(s.Body) == 0 {
		return fmt.Errorf("move snake %s: empty body: %w", s.ID, ErrInvariantViolation)
	}
	newHead := s.Body[0].Add(d)
	copy(s.Body[1:], s.Body[:len(s.Body)-1])
	s.Body[0] = newHead
	if s.Health > 0 {
		s.Health--
	}
	return nil
}

// Feed grows the snake by duplicating its tail and restores full health.
func (s *Snake) Feed() {
	s.Body = append(s.Body, s.Body[len(s.Body)-1])
	s.Health = MaxHealth
}

// OutOfBounds reports whether the head left a width x height board.
func (s *Snake) OutOfBounds(width, height int32) bool {
	head := s.Head()
	return head.X < 0 || head.X >= width || head.Y < 0 || head.Y >= height
}

// BodyCollision reports whether a's head sits on b's body, b's head excluded.
// BodyCollision(a, a) is a self collision.
func BodyCollision(a, b *Snake) bool {
	return slices.Contains(b.Body[1:], a.Head())
}

// LostHeadToHead reports whether a loses a head-on with b. Equal lengths lose
// both ways.
func LostHeadToHead(a, b *Snake) bool {
	return a.Head() == b.Head() && a.Length() <= b.Length()
}

// Clone returns a copy with its own body slice.
func (s Snake) Clone() Snake {
	out := Snake{ID: s.ID, Health: s.Health}
	if len(s.Body) > 0 {
		out.Body = make([]Point, len(s.Body), len(s.Body)+1)
		copy(out.Body, s.Body)
	}
	return out
}
