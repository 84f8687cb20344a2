package game

import (
	"errors"
	"testing"
)

func twoSnakeRequest() *Request {
	return &Request{
		Turn:  3,
		YouID: "me",
		Board: Board{
			Width:  7,
			Height: 7,
			Food:   []Point{{X: 0, Y: 0}},
			Snakes: []Snake{
				{ID: "me", Health: 90, Body: []Point{{X: 1, Y: 1}, {X: 1, Y: 0}}},
				{ID: "them", Health: 80, Body: []Point{{X: 5, Y: 5}, {X: 5, Y: 4}}},
			},
		},
	}
}

func TestClone_IsDeep(t *testing.T) {
	before := twoSnakeRequest()
	clone := before.Clone()
	t.Logf("before:\n%s", dumpBoard(&before.Board))

	clone.Board.Snakes[0].Body[0] = Point{X: 6, Y: 6}
	clone.Board.Snakes[1].Health = 1
	clone.Board.Food[0] = Point{X: 3, Y: 3}
	clone.Board.Snakes[0].Feed()

	if before.Board.Snakes[0].Body[0] != (Point{X: 1, Y: 1}) {
		t.Fatalf("clone body write leaked into original: %v", before.Board.Snakes[0].Body)
	}
	if before.Board.Snakes[0].Length() != 2 {
		t.Fatalf("clone growth leaked into original: len=%d", before.Board.Snakes[0].Length())
	}
	if before.Board.Snakes[1].Health != 80 {
		t.Fatalf("clone health write leaked into original")
	}
	if before.Board.Food[0] != (Point{X: 0, Y: 0}) {
		t.Fatalf("clone food write leaked into original")
	}
	if clone.Turn != before.Turn || clone.YouID != before.YouID {
		t.Fatalf("clone lost scalar fields")
	}
}

func TestYou_TracksViewpointByID(t *testing.T) {
	r := twoSnakeRequest()
	you, ok := r.You()
	if !ok || you.ID != "me" {
		t.Fatalf("You()=%v,%v want me", you, ok)
	}

	r.Board.Snakes = r.Board.Snakes[1:]
	if _, ok := r.You(); ok {
		t.Fatalf("expected viewpoint to be absent")
	}
}

func TestValidate(t *testing.T) {
	if err := twoSnakeRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := map[string]func(r *Request){
		"empty body":    func(r *Request) { r.Board.Snakes[1].Body = nil },
		"duplicate ids": func(r *Request) { r.Board.Snakes[1].ID = "me" },
		"health > 100":  func(r *Request) { r.Board.Snakes[0].Health = 101 },
		"negative":      func(r *Request) { r.Board.Snakes[0].Health = -1 },
		"zero width":    func(r *Request) { r.Board.Width = 0 },
		"negative turn": func(r *Request) { r.Turn = -1 },
	}
	for name, mutate := range cases {
		r := twoSnakeRequest()
		mutate(r)
		err := r.Validate()
		if !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("%s: err=%v want %v", name, err, ErrInvariantViolation)
		}
	}
}
