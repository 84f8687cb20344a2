package rules

import (
	"fmt"
	"sort"
	"testing"

	"github.com/brensch/snekperft/game"
)

// permutations returns every ordering of 0..n-1 (Heap's algorithm).
func permutations(n int) [][]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	var generate func(k int)
	generate = func(k int) {
		if k <= 1 {
			out = append(out, append([]int(nil), idx...))
			return
		}
		for i := 0; i < k; i++ {
			generate(k - 1)
			if k%2 == 0 {
				idx[i], idx[k-1] = idx[k-1], idx[i]
			} else {
				idx[0], idx[k-1] = idx[k-1], idx[0]
			}
		}
	}
	generate(n)
	return out
}

func permuted[T any](in []T, order []int) []T {
	out := make([]T, len(order))
	for i, j := range order {
		out[i] = in[j]
	}
	return out
}

func cloneSnakes(in []game.Snake) []game.Snake {
	out := make([]game.Snake, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// crowdedBoard is a post-move board where several predicates fire at once:
// a three-way head-on, a body collision, a starving snake and a bystander.
func crowdedBoard() game.Board {
	return game.Board{
		Width:  7,
		Height: 7,
		Food:   []game.Point{{X: 3, Y: 3}, {X: 6, Y: 6}, {X: 0, Y: 6}},
		Snakes: []game.Snake{
			{ID: "a", Health: 20, Body: []game.Point{{X: 3, Y: 3}, {X: 2, Y: 3}, {X: 1, Y: 3}, {X: 0, Y: 3}}},
			{ID: "b", Health: 20, Body: []game.Point{{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 5, Y: 3}}},
			{ID: "c", Health: 20, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}, {X: 3, Y: 0}}},
			{ID: "d", Health: 20, Body: []game.Point{{X: 2, Y: 3}, {X: 2, Y: 4}, {X: 2, Y: 5}}},
			{ID: "e", Health: 0, Body: []game.Point{{X: 6, Y: 6}, {X: 6, Y: 5}}},
			{ID: "f", Health: 20, Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		},
	}
}

func causesByID(eliminated []Elimination) string {
	ids := make([]string, 0, len(eliminated))
	for _, e := range eliminated {
		ids = append(ids, fmt.Sprintf("%s:%s", e.ID, e.Cause))
	}
	sort.Strings(ids)
	return fmt.Sprint(ids)
}

func TestEliminate_IndependentOfSnakeOrder(t *testing.T) {
	board := crowdedBoard()
	want := causesByID(Eliminate(board.Snakes, board.Width, board.Height))
	t.Logf("eliminations: %s", want)

	for _, order := range permutations(len(board.Snakes)) {
		snakes := permuted(board.Snakes, order)
		got := causesByID(Eliminate(snakes, board.Width, board.Height))
		if got != want {
			t.Fatalf("order %v: eliminations=%s want=%s", order, got, want)
		}
	}
}

func TestEliminate_CrowdedBoardOutcome(t *testing.T) {
	board := crowdedBoard()
	got := map[string]Cause{}
	for _, e := range Eliminate(board.Snakes, board.Width, board.Height) {
		got[e.ID] = e.Cause
	}

	want := map[string]Cause{
		// a ties c on length and both beat b, so a and c lose to each other.
		"a": CauseHeadToHeadCollision,
		"b": CauseHeadToHeadCollision,
		"c": CauseHeadToHeadCollision,
		// d's head is on a's neck.
		"d": CauseSnakeCollision,
		"e": CauseStarvation,
	}
	if len(got) != len(want) {
		t.Fatalf("eliminated=%v want=%v", got, want)
	}
	for id, cause := range want {
		if got[id] != cause {
			t.Fatalf("%s cause=%q want=%q", id, got[id], cause)
		}
	}
}

func TestFeed_IndependentOfFoodAndSnakeOrder(t *testing.T) {
	base := crowdedBoard()

	snapshot := func(b *game.Board) string {
		snakes := make([]string, 0, len(b.Snakes))
		for _, s := range b.Snakes {
			snakes = append(snakes, fmt.Sprintf("%s h=%d %v", s.ID, s.Health, s.Body))
		}
		sort.Strings(snakes)
		food := make([]string, 0, len(b.Food))
		for _, f := range b.Food {
			food = append(food, fmt.Sprint(f))
		}
		sort.Strings(food)
		return fmt.Sprint(snakes, food)
	}

	ref := game.Board{Width: base.Width, Height: base.Height, Food: append([]game.Point(nil), base.Food...), Snakes: cloneSnakes(base.Snakes)}
	feed(&ref)
	want := snapshot(&ref)

	foodOrders := permutations(len(base.Food))
	for _, snakeOrder := range permutations(len(base.Snakes)) {
		for _, foodOrder := range foodOrders {
			b := game.Board{
				Width:  base.Width,
				Height: base.Height,
				Food:   permuted(base.Food, foodOrder),
				Snakes: cloneSnakes(permuted(base.Snakes, snakeOrder)),
			}
			feed(&b)
			if got := snapshot(&b); got != want {
				t.Fatalf("snakes %v food %v:\n got=%s\nwant=%s", snakeOrder, foodOrder, got, want)
			}
		}
	}

	// Every head on food grew and was restored.
	for _, id := range []string{"a", "b", "c", "e"} {
		s, _ := ref.Snake(id)
		if s.Health != game.MaxHealth {
			t.Fatalf("%s health=%d want=%d", id, s.Health, game.MaxHealth)
		}
	}
	if len(ref.Food) != 1 || ref.Food[0] != (game.Point{X: 0, Y: 6}) {
		t.Fatalf("remaining food=%v want [(0,6)]", ref.Food)
	}
}

func TestStep_SurvivorsIndependentOfSnakeOrder(t *testing.T) {
	before := &game.Request{
		YouID: "a",
		Board: game.Board{
			Width:  7,
			Height: 7,
			Food:   []game.Point{{X: 3, Y: 3}},
			Snakes: []game.Snake{
				{ID: "a", Health: 20, Body: []game.Point{{X: 2, Y: 3}, {X: 1, Y: 3}, {X: 0, Y: 3}, {X: 0, Y: 2}}},
				{ID: "b", Health: 20, Body: []game.Point{{X: 4, Y: 3}, {X: 5, Y: 3}, {X: 6, Y: 3}}},
				{ID: "c", Health: 20, Body: []game.Point{{X: 3, Y: 2}, {X: 3, Y: 1}, {X: 3, Y: 0}}},
				{ID: "d", Health: 1, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 6}}},
				{ID: "e", Health: 50, Body: []game.Point{{X: 6, Y: 6}, {X: 6, Y: 5}}},
			},
		},
	}
	moves := game.MoveSet{
		{ID: "a", Direction: game.Right},
		{ID: "b", Direction: game.Left},
		{ID: "c", Direction: game.Up},
		{ID: "d", Direction: game.Left},
		{ID: "e", Direction: game.Left},
	}

	survivors := func(r *game.Request) string {
		ids := make([]string, 0, len(r.Board.Snakes))
		for _, s := range r.Board.Snakes {
			ids = append(ids, s.ID)
		}
		sort.Strings(ids)
		return fmt.Sprint(ids)
	}

	ref, err := Step(before, moves)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	logStep(t, "reference order", before, moves, ref)
	want := survivors(ref)
	if want != "[a e]" {
		t.Fatalf("survivors=%s want=[a e]", want)
	}

	for _, order := range permutations(len(before.Board.Snakes)) {
		r := before.Clone()
		r.Board.Snakes = permuted(r.Board.Snakes, order)
		after, err := Step(r, permuted(moves, order))
		if err != nil {
			t.Fatalf("order %v: %v", order, err)
		}
		if got := survivors(after); got != want {
			t.Fatalf("order %v: survivors=%s want=%s", order, got, want)
		}
		// Survivors keep the relative order they were given in.
		for i := 1; i < len(after.Board.Snakes); i++ {
			prev := indexOf(r.Board.Snakes, after.Board.Snakes[i-1].ID)
			cur := indexOf(r.Board.Snakes, after.Board.Snakes[i].ID)
			if prev > cur {
				t.Fatalf("order %v: survivors reordered: %v", order, after.Board.Snakes)
			}
		}
	}
}

func indexOf(snakes []game.Snake, id string) int {
	for i := range snakes {
		if snakes[i].ID == id {
			return i
		}
	}
	return -1
}
