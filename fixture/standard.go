package fixture

import (
	"fmt"
	"math/rand"

	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/rules"
	"github.com/google/uuid"
)

// MaxStandardSnakes is the number of standard spawn points.
const MaxStandardSnakes = 8

type StartConfig struct {
	Width  int32
	Height int32
	Snakes int
	Food   rules.FoodSettings
}

var DefaultStartConfig = StartConfig{
	Width:  11,
	Height: 11,
	Snakes: 4,
	Food:   rules.DefaultFoodSettings,
}

// spawnPoints lists corners first, then edge midpoints, one cell in from
// the walls.
func spawnPoints(width, height int32) []game.Point {
	midX, midY := (width-1)/2, (height-1)/2
	return []game.Point{
		{X: 1, Y: 1},
		{X: width - 2, Y: height - 2},
		{X: 1, Y: height - 2},
		{X: width - 2, Y: 1},
		{X: midX, Y: 1},
		{X: midX, Y: height - 2},
		{X: 1, Y: midY},
		{X: width - 2, Y: midY},
	}
}

// Standard builds a start position: cfg.Snakes snakes stacked three deep on
// their spawn point at full health, then food per cfg.Food. The first snake
// is the viewpoint. rng makes ids and food reproducible; nil uses crypto
// randomness for ids and board-derived food.
func Standard(cfg StartConfig, rng *rand.Rand) (*game.Request, error) {
	if cfg.Width < 3 || cfg.Height < 3 {
		return nil, fmt.Errorf("board %dx%d too small for spawn points: %w", cfg.Width, cfg.Height, game.ErrInvariantViolation)
	}
	if cfg.Snakes < 1 || cfg.Snakes > MaxStandardSnakes {
		return nil, fmt.Errorf("snake count %d not in 1..%d: %w", cfg.Snakes, MaxStandardSnakes, game.ErrInvariantViolation)
	}

	points := spawnPoints(cfg.Width, cfg.Height)
	seen := make(map[game.Point]bool, len(points))

	req := &game.Request{Board: game.Board{Width: cfg.Width, Height: cfg.Height}}
	for _, p := range points {
		if len(req.Board.Snakes) == cfg.Snakes {
			break
		}
		// small boards fold some spawn points onto each other
		if seen[p] {
			continue
		}
		seen[p] = true

		id, err := newID(rng)
		if err != nil {
			return nil, err
		}
		req.Board.Snakes = append(req.Board.Snakes, game.Snake{
			ID:     id,
			Health: game.MaxHealth,
			Body:   []game.Point{p, p, p},
		})
	}
	if len(req.Board.Snakes) < cfg.Snakes {
		return nil, fmt.Errorf("board %dx%d has room for %d snakes, want %d: %w",
			cfg.Width, cfg.Height, len(req.Board.Snakes), cfg.Snakes, game.ErrInvariantViolation)
	}
	req.YouID = req.Board.Snakes[0].ID

	rules.SpawnFood(req, rng, cfg.Food)
	return req, nil
}

func newID(rng *rand.Rand) (string, error) {
	if rng == nil {
		return uuid.NewString(), nil
	}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", fmt.Errorf("snake id: %w", err)
	}
	return id.String(), nil
}
