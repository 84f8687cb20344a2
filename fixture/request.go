// Package fixture builds perft root requests from outside sources: Battlesnake
// API move-request JSON, live engine frames and generated start boards.
package fixture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brensch/snekperft/game"
	"github.com/goccy/go-json"
)

// Battlesnake API request types

type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Board struct {
	Height int           `json:"height"`
	Width  int           `json:"width"`
	Food   []Coord       `json:"food"`
	Snakes []Battlesnake `json:"snakes"`
	// Hazards are accepted but play no part in the rules.
	Hazards []Coord `json:"hazards"`
}

type Battlesnake struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Head   Coord   `json:"head"`
	Length int     `json:"length"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Named is a request together with where it came from.
type Named struct {
	Name    string
	Request *game.Request
}

// ToRequest converts an API request into a validated game request.
// The redundant head and length fields are checked against the body.
func (r *GameRequest) ToRequest() (*game.Request, error) {
	req := &game.Request{
		Turn:  int32(r.Turn),
		YouID: r.You.ID,
		Board: game.Board{
			Width:  int32(r.Board.Width),
			Height: int32(r.Board.Height),
			Food:   toPoints(r.Board.Food),
			Snakes: make([]game.Snake, 0, len(r.Board.Snakes)),
		},
	}
	for _, s := range r.Board.Snakes {
		if err := checkDerived(s); err != nil {
			return nil, err
		}
		req.Board.Snakes = append(req.Board.Snakes, game.Snake{
			ID:     s.ID,
			Health: int32(s.Health),
			Body:   toPoints(s.Body),
		})
	}
	if req.YouID == "" {
		return nil, fmt.Errorf("request has no you.id: %w", game.ErrInvariantViolation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// checkDerived rejects snapshots whose head/length disagree with the body.
// Zero values mean the field was omitted.
func checkDerived(s Battlesnake) error {
	if len(s.Body) == 0 {
		return nil // Validate reports the empty body
	}
	if s.Length != 0 && s.Length != len(s.Body) {
		return fmt.Errorf("snake %q length %d but body has %d segments: %w", s.ID, s.Length, len(s.Body), game.ErrInvariantViolation)
	}
	if s.Head != (Coord{}) && s.Head != s.Body[0] {
		return fmt.Errorf("snake %q head %v but body starts at %v: %w", s.ID, s.Head, s.Body[0], game.ErrInvariantViolation)
	}
	return nil
}

func toPoints(coords []Coord) []game.Point {
	if len(coords) == 0 {
		return nil
	}
	out := make([]game.Point, len(coords))
	for i, c := range coords {
		out[i] = game.Point{X: int32(c.X), Y: int32(c.Y)}
	}
	return out
}

// Decode reads one API move request.
func Decode(r io.Reader) (*game.Request, error) {
	var gr GameRequest
	if err := json.NewDecoder(r).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return gr.ToRequest()
}

// Load reads a request from a JSON file.
func Load(path string) (*game.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	req, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// LoadDir loads every *.json file in dir, sorted by file name.
func LoadDir(dir string) ([]Named, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	out := make([]Named, 0, len(names))
	for _, name := range names {
		req, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, Named{Name: strings.TrimSuffix(name, ".json"), Request: req})
	}
	return out, nil
}
