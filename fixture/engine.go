package fixture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brensch/snekperft/game"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// ErrFrameNotFound is returned when the event stream ends without the
// requested turn.
var ErrFrameNotFound = errors.New("frame not found")

// DefaultEngineURL is the public engine event stream, %s is the game id.
const DefaultEngineURL = "wss://engine.battlesnake.com/games/%s/events"

// EngineClient pulls single frames from the engine's game event stream.
type EngineClient struct {
	URL            string // websocket URL template
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func NewEngineClient(url string) *EngineClient {
	if url == "" {
		url = DefaultEngineURL
	}
	return &EngineClient{
		URL:            url,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// GameEvent represents an event from the WebSocket stream
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo from the "game_info" event
type GameInfo struct {
	Game GameDetails `json:"game"`
}

type GameDetails struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FrameData from "frame" events
type FrameData struct {
	Turn   int         `json:"turn"`
	Snakes []SnakeData `json:"snakes"`
	Food   []Coord     `json:"food"`
	Board  BoardData   `json:"board,omitempty"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Death  *Death  `json:"death,omitempty"`
}

type BoardData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

// Frame downloads gameID's event stream and converts the frame for turn into
// a request seen from youID. A negative turn takes the last frame. An empty
// youID picks the first alive snake.
func (c *EngineClient) Frame(ctx context.Context, gameID string, turn int, youID string) (*game.Request, error) {
	url := fmt.Sprintf(c.URL, gameID)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.ConnectTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var info GameInfo
	var last *FrameData

read:
	for {
		if c.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || last != nil {
				break
			}
			return nil, fmt.Errorf("read error: %w", err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			return nil, fmt.Errorf("parse event: %w", err)
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				return nil, fmt.Errorf("parse game_info: %w", err)
			}
		case "frame":
			var frame FrameData
			if err := json.Unmarshal(event.Data, &frame); err != nil {
				return nil, fmt.Errorf("parse frame: %w", err)
			}
			if frame.Turn == turn {
				return frameToRequest(info, &frame, youID)
			}
			last = &frame
		case "game_end":
			break read
		}
	}

	if turn < 0 && last != nil {
		return frameToRequest(info, last, youID)
	}
	return nil, fmt.Errorf("game %s turn %d: %w", gameID, turn, ErrFrameNotFound)
}

// frameToRequest keeps only alive snakes. Board size comes from the frame if
// present, then game_info, then the standard 11x11.
func frameToRequest(info GameInfo, frame *FrameData, youID string) (*game.Request, error) {
	width, height := frame.Board.Width, frame.Board.Height
	if width == 0 || height == 0 {
		width, height = info.Game.Width, info.Game.Height
	}
	if width == 0 || height == 0 {
		width, height = 11, 11
	}

	req := &game.Request{
		Turn:  int32(frame.Turn),
		YouID: youID,
		Board: game.Board{
			Width:  int32(width),
			Height: int32(height),
			Food:   toPoints(frame.Food),
		},
	}
	for _, s := range frame.Snakes {
		if s.Death != nil || s.Health <= 0 || len(s.Body) == 0 {
			continue
		}
		req.Board.Snakes = append(req.Board.Snakes, game.Snake{
			ID:     s.ID,
			Health: int32(s.Health),
			Body:   toPoints(s.Body),
		})
	}
	if req.YouID == "" {
		if len(req.Board.Snakes) == 0 {
			return nil, fmt.Errorf("turn %d has no alive snakes: %w", frame.Turn, game.ErrInvariantViolation)
		}
		req.YouID = req.Board.Snakes[0].ID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
